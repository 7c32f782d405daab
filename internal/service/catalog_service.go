package service

import (
	"context"

	"github.com/Akaza561/med-bridge/internal/domain"
	"github.com/Akaza561/med-bridge/internal/repository"
	"github.com/Akaza561/med-bridge/internal/session"
)

// CatalogService просмотр склада, поиск, удаление и вишлист
type CatalogService struct {
	stock    repository.StockRepository
	wishlist repository.WishlistRepository
	sessions *session.Manager
}

func NewCatalogService(stock repository.StockRepository, wishlist repository.WishlistRepository, sessions *session.Manager) *CatalogService {
	return &CatalogService{stock: stock, wishlist: wishlist, sessions: sessions}
}

// Browse перечитывает склад, запоминает запрос в сессии и возвращает
// отфильтрованную коллекцию; пустой запрос — всё без фильтра
func (s *CatalogService) Browse(ctx context.Context, username, query string) ([]domain.MedicineRecord, error) {
	recs, err := s.stock.List(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.Dispatch(username, session.StockLoaded{Stock: recs}); err != nil {
		return nil, err
	}
	if _, err := s.sessions.Dispatch(username, session.SearchChanged{Query: query}); err != nil {
		return nil, err
	}
	return session.FilterStock(recs, query), nil
}

// Delete убирает запись из реестра без создания заказа; только Admin
func (s *CatalogService) Delete(ctx context.Context, profile domain.UserProfile, id string) ([]domain.MedicineRecord, error) {
	if profile.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	updated, err := s.stock.Remove(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.Dispatch(profile.Username, session.StockLoaded{Stock: updated}); err != nil {
		return nil, err
	}
	if _, err := s.sessions.Dispatch(profile.Username, session.Notified{Message: "Item removed from registry"}); err != nil {
		return nil, err
	}
	return updated, nil
}

// Toggle переключает членство id в вишлисте; роли Admin вишлист недоступен
func (s *CatalogService) Toggle(ctx context.Context, profile domain.UserProfile, id string) ([]string, error) {
	if profile.Role == domain.RoleAdmin {
		return nil, ErrForbidden
	}
	ids, err := s.wishlist.Toggle(ctx, profile.Username, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.Dispatch(profile.Username, session.WishlistLoaded{IDs: ids}); err != nil {
		return nil, err
	}
	notice := "Removed from wishlist"
	for _, v := range ids {
		if v == id {
			notice = "Added to wishlist"
			break
		}
	}
	if _, err := s.sessions.Dispatch(profile.Username, session.Notified{Message: notice}); err != nil {
		return nil, err
	}
	return ids, nil
}

// Wishlist возвращает записи склада из вишлиста пользователя.
// Id, которые больше не указывают на складскую запись (товар куплен или
// удалён), молча отфильтровываются — это не ошибка.
func (s *CatalogService) Wishlist(ctx context.Context, profile domain.UserProfile) ([]domain.MedicineRecord, error) {
	if profile.Role == domain.RoleAdmin {
		return nil, ErrForbidden
	}
	ids, err := s.wishlist.Get(ctx, profile.Username)
	if err != nil {
		return nil, err
	}
	recs, err := s.stock.List(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := make([]domain.MedicineRecord, 0, len(ids))
	for _, r := range recs {
		if wanted[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}
