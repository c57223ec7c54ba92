package catalog

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/iap/internal/domain"
)

// MockService — конфигурируемая заглушка ProductCatalog для тестов и демо.
type MockService struct {
	mu       sync.Mutex
	Products []domain.Product
	Err      error

	LoadCalls int
}

// NewMockService возвращает mock с одним демо-продуктом.
func NewMockService() *MockService {
	return &MockService{
		Products: []domain.Product{{
			Identifier:  "demo-course",
			Title:       "Demo Course",
			PriceString: "$9.99",
			PriceMinor:  999,
			Currency:    "USD",
		}},
	}
}

// LoadProducts возвращает заранее настроенные продукты и считает вызовы.
func (m *MockService) LoadProducts(ctx context.Context, ids []string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Products, nil
}

var _ domain.ProductCatalog = (*MockService)(nil)
