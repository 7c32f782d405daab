package storage

import (
	"context"
	"errors"
)

// ErrNoKey возвращается, когда по ключу ничего не сохранено.
// Читающая сторона отличает отсутствие значения от ошибки чтения.
var ErrNoKey = errors.New("no value for key")

// KV минимальный контракт key-value хранилища: JSON-значения по
// строковым ключам. Реализации: файловая, in-memory и redis.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
