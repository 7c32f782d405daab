package repository

import (
	"context"
	"errors"

	"github.com/Akaza561/med-bridge/internal/domain"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = errors.New("not found")

// StockRepository склад: упорядоченная коллекция единиц.
// Каждая мутация возвращает обновлённую коллекцию целиком.
type StockRepository interface {
	List(ctx context.Context) ([]domain.MedicineRecord, error)
	Add(ctx context.Context, rec domain.MedicineRecord) ([]domain.MedicineRecord, error)
	// Remove удаляет все записи с данным id; неизвестный id — no-op
	Remove(ctx context.Context, id string) ([]domain.MedicineRecord, error)
}

// WishlistRepository вишлист — множество id склада на пользователя.
// Ссылочная целостность не гарантируется: id может указывать на уже
// проданную запись, потребитель обязан это терпеть.
type WishlistRepository interface {
	Get(ctx context.Context, username string) ([]string, error)
	Toggle(ctx context.Context, username, id string) ([]string, error)
}

// OrderRepository заказы пользователя, новые в начале
type OrderRepository interface {
	List(ctx context.Context, username string) ([]domain.Order, error)
	Add(ctx context.Context, username string, o domain.Order) ([]domain.Order, error)
}
