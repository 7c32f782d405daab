package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/Akaza561/med-bridge/internal/domain"
	"github.com/Akaza561/med-bridge/internal/gemini"
	"github.com/Akaza561/med-bridge/internal/repository"
	"github.com/Akaza561/med-bridge/internal/session"
	"github.com/Akaza561/med-bridge/internal/storage"
	"github.com/Akaza561/med-bridge/internal/token"
)

type fakeAnalyzer struct {
	details domain.MedicineDetails
	err     error
	calls   int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, images []string) (domain.MedicineDetails, error) {
	f.calls++
	if f.err != nil {
		return domain.MedicineDetails{}, f.err
	}
	return f.details, nil
}

var _ gemini.Analyzer = (*fakeAnalyzer)(nil)

type fixture struct {
	auth     *AuthService
	catalog  *CatalogService
	scan     *ScanService
	orders   *OrderService
	sessions *session.Manager
	analyzer *fakeAnalyzer
	store    *repository.Store
}

func setup(t *testing.T) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := repository.NewStore(storage.NewMemoryKV(), log)
	orderRepo := repository.NewStoreOrders(store)
	sessions := session.NewManager()
	tokens := token.New()
	analyzer := &fakeAnalyzer{}
	return &fixture{
		auth:     NewAuthService(AllowAll{}, sessions, store, store, []byte("test-secret")),
		catalog:  NewCatalogService(store, store, sessions),
		scan:     NewScanService(analyzer, store, sessions, tokens, log),
		orders:   NewOrderService(store, orderRepo, sessions, tokens),
		sessions: sessions,
		analyzer: analyzer,
		store:    store,
	}
}

func login(t *testing.T, f *fixture, username string, role domain.Role) domain.UserProfile {
	t.Helper()
	_, _, err := f.auth.Login(context.Background(), username, "secret", role)
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return domain.UserProfile{Username: username, Role: role}
}

func TestLogin_IssuesParseableToken(t *testing.T) {
	f := setup(t)
	tok, state, err := f.auth.Login(context.Background(), "alice", "secret", domain.RoleUser)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	// session is primed with the seeded stock
	if len(state.Stock) != 2 {
		t.Fatalf("expected seeded stock in session, got %d records", len(state.Stock))
	}

	profile, err := f.auth.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if profile.Username != "alice" || profile.Role != domain.RoleUser {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestLogin_RequiresCredentialsAndRole(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	if _, _, err := f.auth.Login(ctx, "", "secret", domain.RoleUser); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty username: %v", err)
	}
	if _, _, err := f.auth.Login(ctx, "alice", "  ", domain.RoleUser); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank password: %v", err)
	}
	if _, _, err := f.auth.Login(ctx, "alice", "secret", domain.Role("Root")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown role: %v", err)
	}
}

func TestLogout_DiscardsSessionState(t *testing.T) {
	f := setup(t)
	login(t, f, "alice", domain.RoleUser)
	f.auth.Logout("alice")
	if _, err := f.sessions.Get("alice"); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("session should be gone: %v", err)
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	f := setup(t)
	if _, err := f.auth.Parse("not-a-token"); !errors.Is(err, ErrBadToken) {
		t.Fatalf("expected ErrBadToken, got %v", err)
	}
}
