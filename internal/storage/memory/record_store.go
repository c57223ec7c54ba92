package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/iap/internal/domain"
)

// recordStoreInMemory — простая in-memory реализация RecordStore
// для локальной разработки и тестов.
type recordStoreInMemory struct {
	mu        sync.RWMutex
	namespace string
	items     map[string]domain.PurchaseRecord
}

// NewRecordStore возвращает in-memory хранилище записей покупок.
// namespace — префикс ключей (аналог bundle id), может быть пустым.
func NewRecordStore(namespace string) domain.RecordStore {
	return &recordStoreInMemory{
		namespace: namespace,
		items:     make(map[string]domain.PurchaseRecord),
	}
}

// recordKey выводит ключ записи: "<namespace>-<productID>" или просто productID.
func (s *recordStoreInMemory) recordKey(productID string) string {
	if s.namespace == "" {
		return productID
	}
	return s.namespace + "-" + productID
}

// Get возвращает запись или ErrRecordNotFound, если её нет.
func (s *recordStoreInMemory) Get(ctx context.Context, productID string) (domain.PurchaseRecord, error) {
	if productID == "" {
		return domain.PurchaseRecord{}, domain.ErrRecordKeyRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.items[s.recordKey(productID)]
	if !ok {
		return domain.PurchaseRecord{}, domain.ErrRecordNotFound
	}
	return rec, nil
}

// Save сохраняет запись, заменяя существующую для того же продукта.
func (s *recordStoreInMemory) Save(ctx context.Context, product domain.Product, receipt domain.Receipt) error {
	if product.Identifier == "" {
		return domain.ErrRecordKeyRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[s.recordKey(product.Identifier)] = domain.PurchaseRecord{
		Product: product,
		Receipt: receipt,
		SavedAt: time.Now().UTC(),
	}
	return nil
}

// Remove удаляет запись; отсутствие записи ошибкой не считается.
func (s *recordStoreInMemory) Remove(ctx context.Context, rec domain.PurchaseRecord) error {
	if rec.Product.Identifier == "" {
		return domain.ErrRecordKeyRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, s.recordKey(rec.Product.Identifier))
	return nil
}

// ListPending возвращает отложенные записи в порядке сохранения,
// ограничивая выборку limit (если >0).
func (s *recordStoreInMemory) ListPending(ctx context.Context, limit int) ([]domain.PurchaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.PurchaseRecord, 0, len(s.items))
	for _, rec := range s.items {
		result = append(result, rec)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].SavedAt.Equal(result[j].SavedAt) {
			return result[i].SavedAt.Before(result[j].SavedAt)
		}
		return result[i].Product.Identifier < result[j].Product.Identifier
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

var _ domain.RecordStore = (*recordStoreInMemory)(nil)
var _ domain.RecordLister = (*recordStoreInMemory)(nil)
