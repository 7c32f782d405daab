package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/Akaza561/med-bridge/internal/domain"
	"github.com/Akaza561/med-bridge/internal/repository"
	"github.com/Akaza561/med-bridge/internal/session"
)

// IdentityProvider проверка учётных данных. Сейчас это заглушка без
// реальной проверки; интерфейс выделен, чтобы настоящую проверку можно
// было подставить, не трогая остальные сервисы.
type IdentityProvider interface {
	Verify(ctx context.Context, username, password string) error
}

// AllowAll принимает любую непустую пару логин/пароль
type AllowAll struct{}

func (AllowAll) Verify(ctx context.Context, username, password string) error { return nil }

// ErrBadToken токен сессии отсутствует, просрочен или не подписан нами
var ErrBadToken = errors.New("invalid session token")

// AuthService вход/выход и токены сессий. Токен — подписанный JWT с
// именем и ролью; серверное состояние сессии живёт в session.Manager.
type AuthService struct {
	idp      IdentityProvider
	sessions *session.Manager
	stock    repository.StockRepository
	wishlist repository.WishlistRepository
	secret   []byte
	ttl      time.Duration
}

func NewAuthService(idp IdentityProvider, sessions *session.Manager, stock repository.StockRepository, wishlist repository.WishlistRepository, secret []byte) *AuthService {
	return &AuthService{
		idp:      idp,
		sessions: sessions,
		stock:    stock,
		wishlist: wishlist,
		secret:   secret,
		ttl:      24 * time.Hour,
	}
}

// Login открывает сессию и сразу заполняет её склад и вишлист
func (s *AuthService) Login(ctx context.Context, username, password string, role domain.Role) (string, session.State, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" || !domain.ValidRole(role) {
		return "", session.State{}, ErrInvalidInput
	}
	if err := s.idp.Verify(ctx, username, password); err != nil {
		return "", session.State{}, err
	}

	profile := domain.UserProfile{Username: username, Role: role}
	s.sessions.Start(profile)

	recs, err := s.stock.List(ctx)
	if err != nil {
		return "", session.State{}, err
	}
	if _, err := s.sessions.Dispatch(username, session.StockLoaded{Stock: recs}); err != nil {
		return "", session.State{}, err
	}
	ids, err := s.wishlist.Get(ctx, username)
	if err != nil {
		return "", session.State{}, err
	}
	state, err := s.sessions.Dispatch(username, session.WishlistLoaded{IDs: ids})
	if err != nil {
		return "", session.State{}, err
	}

	claims := jwt.MapClaims{
		"sub":  username,
		"role": string(role),
		"exp":  time.Now().Add(s.ttl).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", session.State{}, err
	}
	return tok, state, nil
}

// Logout отбрасывает серверное состояние сессии; заказы, склад и
// вишлист переживают выход в постоянном хранилище
func (s *AuthService) Logout(username string) {
	s.sessions.End(username)
}

// Parse разбирает токен сессии и возвращает профиль
func (s *AuthService) Parse(tokenString string) (domain.UserProfile, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return domain.UserProfile{}, ErrBadToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return domain.UserProfile{}, ErrBadToken
	}
	username, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if username == "" || !domain.ValidRole(domain.Role(role)) {
		return domain.UserProfile{}, ErrBadToken
	}
	return domain.UserProfile{Username: username, Role: domain.Role(role)}, nil
}
