package cloud

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/iap/internal/domain"
)

// MockChecker — конфигурируемая заглушка CloudChecker для тестов и демо.
type MockChecker struct {
	mu        sync.Mutex
	Available bool
	Err       error

	CheckCalls int
}

// NewMockChecker возвращает checker с доступным хранилищем по умолчанию.
func NewMockChecker() *MockChecker {
	return &MockChecker{Available: true}
}

// IsStorageAvailable возвращает настроенный результат и считает вызовы.
func (m *MockChecker) IsStorageAvailable(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CheckCalls++
	if m.Err != nil {
		return false, m.Err
	}
	return m.Available, nil
}

var _ domain.CloudChecker = (*MockChecker)(nil)
