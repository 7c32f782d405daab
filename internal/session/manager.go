package session

import (
	"errors"
	"strings"
	"sync"

	"github.com/Akaza561/med-bridge/internal/domain"
)

// ErrNoSession действие без активной сессии
var ErrNoSession = errors.New("no active session")

// Manager держит живые сессии по имени пользователя и применяет события
// через Reduce. Состояние живёт только в памяти: выход из сессии
// отбрасывает диалоги и черновик, склад и вишлист переживают его в
// постоянном хранилище.
type Manager struct {
	mu     sync.Mutex
	states map[string]State
}

func NewManager() *Manager {
	return &Manager{states: make(map[string]State)}
}

// Start открывает сессию; повторный вход тем же именем начинает с чистого
// состояния
func (m *Manager) Start(profile domain.UserProfile) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := State{Profile: profile}
	m.states[profile.Username] = s
	return s
}

// End закрывает сессию и отбрасывает её состояние
func (m *Manager) End(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, username)
}

// Get текущее состояние сессии
func (m *Manager) Get(username string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[username]
	if !ok {
		return State{}, ErrNoSession
	}
	return s, nil
}

// Dispatch применяет событие к сессии; отклонённый переход оставляет
// состояние нетронутым
func (m *Manager) Dispatch(username string, ev Event) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[username]
	if !ok {
		return State{}, ErrNoSession
	}
	next, err := Reduce(s, ev)
	if err != nil {
		return s, err
	}
	m.states[username] = next
	return next, nil
}

func filterByName(stock []domain.MedicineRecord, query string) []domain.MedicineRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return stock
	}
	out := make([]domain.MedicineRecord, 0, len(stock))
	for _, r := range stock {
		if strings.Contains(strings.ToLower(r.MedicineName), q) {
			out = append(out, r)
		}
	}
	return out
}
