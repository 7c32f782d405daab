package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Akaza561/med-bridge/internal/domain"
	"github.com/Akaza561/med-bridge/internal/gemini"
	"github.com/Akaza561/med-bridge/internal/repository"
	"github.com/Akaza561/med-bridge/internal/session"
	"github.com/Akaza561/med-bridge/internal/token"
)

// ScanService поток регистрации: вложения -> анализ -> черновик ->
// публикация. Доступен ролям User и Admin.
type ScanService struct {
	analyzer gemini.Analyzer
	stock    repository.StockRepository
	sessions *session.Manager
	tokens   *token.Generator
	log      *logrus.Logger
}

func NewScanService(analyzer gemini.Analyzer, stock repository.StockRepository, sessions *session.Manager, tokens *token.Generator, log *logrus.Logger) *ScanService {
	return &ScanService{analyzer: analyzer, stock: stock, sessions: sessions, tokens: tokens, log: log}
}

func canRegister(role domain.Role) bool {
	return role == domain.RoleUser || role == domain.RoleAdmin
}

// Attach добавляет изображение к черновику и возвращает id вложения
func (s *ScanService) Attach(profile domain.UserProfile, data string) (session.State, error) {
	if !canRegister(profile.Role) {
		return session.State{}, ErrForbidden
	}
	if data == "" {
		return session.State{}, ErrInvalidInput
	}
	img := session.Attachment{ID: uuid.NewString(), Data: data}
	return s.sessions.Dispatch(profile.Username, session.AttachImage{Image: img})
}

// Detach убирает вложение из черновика
func (s *ScanService) Detach(profile domain.UserProfile, attachmentID string) (session.State, error) {
	if !canRegister(profile.Role) {
		return session.State{}, ErrForbidden
	}
	return s.sessions.Dispatch(profile.Username, session.RemoveImage{AttachmentID: attachmentID})
}

// Scan запускает анализ всех вложений. Пока вызов не вернулся, сессия
// помечена как сканирующая и повторный запуск отклоняется. Отказ шлюза
// сохраняет вложения и оставляет поток в состоянии для повтора.
func (s *ScanService) Scan(ctx context.Context, profile domain.UserProfile) (session.State, error) {
	if !canRegister(profile.Role) {
		return session.State{}, ErrForbidden
	}
	state, err := s.sessions.Dispatch(profile.Username, session.ScanStarted{})
	if err != nil {
		return state, err
	}

	images := make([]string, 0, len(state.Draft.Images))
	for _, img := range state.Draft.Images {
		images = append(images, img.Data)
	}

	details, err := s.analyzer.Analyze(ctx, images)
	if err != nil {
		s.log.WithError(err).Warn("image analysis failed")
		if st, derr := s.sessions.Dispatch(profile.Username, session.ScanFailed{Message: err.Error()}); derr == nil {
			state = st
		}
		return state, err
	}
	return s.sessions.Dispatch(profile.Username, session.ScanSucceeded{Details: details})
}

// Save публикует черновик: свежий id, вложения становятся imageUrls,
// запись уходит в склад. Черновик очищается только явным Reset.
func (s *ScanService) Save(ctx context.Context, profile domain.UserProfile) (session.State, error) {
	if !canRegister(profile.Role) {
		return session.State{}, ErrForbidden
	}
	state, err := s.sessions.Get(profile.Username)
	if err != nil {
		return session.State{}, err
	}
	// повторная публикация того же черновика чеканила бы дубликат записи
	if state.Draft.Saved || state.Draft.Result == nil || len(state.Draft.Images) == 0 {
		return state, ErrInvalidState
	}

	urls := make([]string, 0, len(state.Draft.Images))
	for _, img := range state.Draft.Images {
		urls = append(urls, img.Data)
	}
	rec := domain.MedicineRecord{
		ID:           s.tokens.Next("MED"),
		MedicineName: state.Draft.Result.MedicineName,
		ExpiryDate:   state.Draft.Result.ExpiryDate,
		Dosage:       state.Draft.Result.Dosage,
		ImageURLs:    urls,
	}
	updated, err := s.stock.Add(ctx, rec)
	if err != nil {
		return state, err
	}
	return s.sessions.Dispatch(profile.Username, session.DraftSaved{
		Stock:  updated,
		Notice: "Medicine published to registry",
	})
}

// Reset явный «scan next»: отбрасывает вложения и черновик
func (s *ScanService) Reset(profile domain.UserProfile) (session.State, error) {
	if !canRegister(profile.Role) {
		return session.State{}, ErrForbidden
	}
	return s.sessions.Dispatch(profile.Username, session.DraftReset{})
}
