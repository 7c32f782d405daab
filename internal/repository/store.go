package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Akaza561/med-bridge/internal/domain"
	"github.com/Akaza561/med-bridge/internal/storage"
)

// Ключи в key-value хранилище; формат унаследован от исходной системы
const (
	stockKey       = "MEDSCAN_STORAGE"
	wishlistPrefix = "MEDSCAN_WISHLIST_"
	ordersPrefix   = "MEDSCAN_ORDERS_"
)

// seedStock фиксированные демонстрационные записи, которыми склад
// инициализируется при первом обращении и подменяется при битых данных
func seedStock() []domain.MedicineRecord {
	return []domain.MedicineRecord{
		{
			ID:           "MED-101",
			MedicineName: "Amoxicillin 500mg",
			ExpiryDate:   "12/2025",
			Dosage:       "1 pill every 8 hours",
			ImageURLs:    []string{"https://plus.unsplash.com/premium_photo-1673327144270-48efffda64c0?q=80&w=800&auto=format&fit=crop"},
		},
		{
			ID:           "MED-102",
			MedicineName: "Lisinopril 10mg",
			ExpiryDate:   "08/2024",
			Dosage:       "1 pill daily",
			ImageURLs:    []string{"https://images.unsplash.com/photo-1585435557343-3b092031a831?q=80&w=800&auto=format&fit=crop"},
		},
	}
}

// Store репозиторий поверх KV: каждая мутация — полный цикл
// прочитать-изменить-записать соответствующей коллекции. Мьютекс
// сериализует циклы внутри процесса; конфликтов между процессами
// хранилище не обнаруживает.
type Store struct {
	mu  sync.Mutex
	kv  storage.KV
	log *logrus.Logger
}

func NewStore(kv storage.KV, log *logrus.Logger) *Store {
	return &Store{kv: kv, log: log}
}

var (
	_ StockRepository    = (*Store)(nil)
	_ WishlistRepository = (*Store)(nil)
)

// readStock отдаёт склад с политикой «терпеть и продолжать»: нет
// данных — записать сид и вернуть его; данные не читаются — вернуть
// сид, хранилище не перезаписывая.
func (s *Store) readStock(ctx context.Context) ([]domain.MedicineRecord, error) {
	raw, err := s.kv.Get(ctx, stockKey)
	if errors.Is(err, storage.ErrNoKey) {
		seed := seedStock()
		b, merr := json.Marshal(seed)
		if merr != nil {
			return nil, merr
		}
		if err := s.kv.Set(ctx, stockKey, b); err != nil {
			return nil, err
		}
		return seed, nil
	}
	if err != nil {
		s.log.WithError(err).Warn("stock read failed, serving seed")
		return seedStock(), nil
	}
	var recs []domain.MedicineRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		s.log.WithError(err).Warn("stock data corrupt, serving seed")
		return seedStock(), nil
	}
	return recs, nil
}

func (s *Store) writeStock(ctx context.Context, recs []domain.MedicineRecord) error {
	b, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, stockKey, b)
}

func (s *Store) List(ctx context.Context) ([]domain.MedicineRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readStock(ctx)
}

func (s *Store) Add(ctx context.Context, rec domain.MedicineRecord) ([]domain.MedicineRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.readStock(ctx)
	if err != nil {
		return nil, err
	}
	updated := append([]domain.MedicineRecord{rec}, current...)
	if err := s.writeStock(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) Remove(ctx context.Context, id string) ([]domain.MedicineRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.readStock(ctx)
	if err != nil {
		return nil, err
	}
	updated := make([]domain.MedicineRecord, 0, len(current))
	for _, r := range current {
		if r.ID != id {
			updated = append(updated, r)
		}
	}
	if err := s.writeStock(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// readIDs список id по ключу; отсутствие и битые данные — пустое множество
func (s *Store) readIDs(ctx context.Context, key string) []string {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNoKey) {
			s.log.WithError(err).WithField("key", key).Warn("wishlist read failed")
		}
		return []string{}
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("wishlist data corrupt")
		return []string{}
	}
	return ids
}

func (s *Store) Get(ctx context.Context, username string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readIDs(ctx, wishlistPrefix+username), nil
}

func (s *Store) Toggle(ctx context.Context, username, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := wishlistPrefix + username
	current := s.readIDs(ctx, key)
	updated := make([]string, 0, len(current)+1)
	found := false
	for _, v := range current {
		if v == id {
			found = true
			continue
		}
		updated = append(updated, v)
	}
	if !found {
		updated = append(updated, id)
	}
	b, err := json.Marshal(updated)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Set(ctx, key, b); err != nil {
		return nil, err
	}
	return updated, nil
}

// StoreOrders репозиторий заказов поверх того же KV; отдельный тип,
// чтобы не смешивать сигнатуры со складскими
type StoreOrders struct{ store *Store }

func NewStoreOrders(store *Store) *StoreOrders { return &StoreOrders{store: store} }

var _ OrderRepository = (*StoreOrders)(nil)

func (so *StoreOrders) List(ctx context.Context, username string) ([]domain.Order, error) {
	so.store.mu.Lock()
	defer so.store.mu.Unlock()
	return so.store.readOrders(ctx, ordersPrefix+username), nil
}

func (so *StoreOrders) Add(ctx context.Context, username string, o domain.Order) ([]domain.Order, error) {
	so.store.mu.Lock()
	defer so.store.mu.Unlock()
	key := ordersPrefix + username
	updated := append([]domain.Order{o}, so.store.readOrders(ctx, key)...)
	b, err := json.Marshal(updated)
	if err != nil {
		return nil, err
	}
	if err := so.store.kv.Set(ctx, key, b); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) readOrders(ctx context.Context, key string) []domain.Order {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNoKey) {
			s.log.WithError(err).WithField("key", key).Warn("orders read failed")
		}
		return []domain.Order{}
	}
	var orders []domain.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("orders data corrupt")
		return []domain.Order{}
	}
	return orders
}
