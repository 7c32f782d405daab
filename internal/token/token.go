package token

import (
	"fmt"
	"sync"
	"time"
)

// Generator выдаёт идентификаторы вида PREFIX-<unix-миллисекунды>.
// Две выдачи в одну миллисекунду получили бы одинаковый id, поэтому
// генератор хранит последнее выданное значение и при совпадении
// сдвигается на миллисекунду вперёд.
type Generator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock для тестов: генератор с подменённым источником времени
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next возвращает следующий уникальный токен с данным префиксом
func (g *Generator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return fmt.Sprintf("%s-%d", prefix, ms)
}
