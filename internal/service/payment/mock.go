package payment

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/iap/internal/domain"
)

// MockService — конфигурируемая заглушка PaymentExecutor для тестов и демо.
type MockService struct {
	mu      sync.Mutex
	Receipt domain.Receipt
	Err     error

	PurchaseCalls int
}

// NewMockService возвращает mock с успешным платежом по умолчанию.
func NewMockService() *MockService {
	return &MockService{
		Receipt: domain.Receipt{
			TransactionID:      "mock-tx",
			TransactionReceipt: "mock-receipt",
		},
	}
}

// PurchaseProduct возвращает заранее настроенный чек и считает вызовы.
func (m *MockService) PurchaseProduct(ctx context.Context, productID string) (domain.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PurchaseCalls++
	if m.Err != nil {
		return domain.Receipt{}, m.Err
	}
	return m.Receipt, nil
}

var _ domain.PaymentExecutor = (*MockService)(nil)
