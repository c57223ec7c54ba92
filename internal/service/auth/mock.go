package auth

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/iap/internal/domain"
)

// MockGate — конфигурируемая заглушка AuthGate для тестов и демо.
type MockGate struct {
	mu       sync.Mutex
	LoggedIn bool

	LoginCalls int
}

// NewMockGate возвращает gate в неавторизованном состоянии.
func NewMockGate() *MockGate {
	return &MockGate{}
}

// IsLoggedIn возвращает настроенное состояние авторизации.
func (m *MockGate) IsLoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LoggedIn
}

// Login считает вызовы login-flow; состояние авторизации не меняет,
// завершение login'а в контракте не ожидается.
func (m *MockGate) Login(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoginCalls++
}

var _ domain.AuthGate = (*MockGate)(nil)
