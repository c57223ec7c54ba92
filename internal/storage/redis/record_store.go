package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/iap/internal/domain"
)

// recordStore — реализация RecordStore поверх Redis.
// Профиль исходного хранилища — удалённый синхронизируемый KV:
// перечисление записей недоступно, только доступ по ключу.
type recordStore struct {
	rdb       *redis.Client
	namespace string
}

// NewRecordStore создаёт Redis-реализацию RecordStore.
// namespace — префикс ключей записей (аналог bundle id), может быть пустым.
func NewRecordStore(rdb *redis.Client, namespace string) domain.RecordStore {
	return &recordStore{rdb: rdb, namespace: namespace}
}

func (r *recordStore) recordKey(productID string) string {
	if r.namespace == "" {
		return productID
	}
	return r.namespace + "-" + productID
}

func (r *recordStore) Get(ctx context.Context, productID string) (domain.PurchaseRecord, error) {
	if productID == "" {
		return domain.PurchaseRecord{}, domain.ErrRecordKeyRequired
	}

	raw, err := r.rdb.Get(ctx, r.recordKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PurchaseRecord{}, domain.ErrRecordNotFound
		}
		return domain.PurchaseRecord{}, fmt.Errorf("get pay record: %w", err)
	}

	var rec domain.PurchaseRecord
	// Unmarshal чека нормализует legacy-поле receipt в каноническое.
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.PurchaseRecord{}, fmt.Errorf("%w: decode record: %v", domain.ErrRecordMalformed, err)
	}

	return rec, nil
}

func (r *recordStore) Save(ctx context.Context, product domain.Product, receipt domain.Receipt) error {
	if product.Identifier == "" {
		return domain.ErrRecordKeyRequired
	}

	rec := domain.PurchaseRecord{
		Product: product,
		Receipt: receipt,
		SavedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode pay record: %w", err)
	}

	if err := r.rdb.Set(ctx, r.recordKey(product.Identifier), raw, 0).Err(); err != nil {
		return fmt.Errorf("set pay record: %w", err)
	}

	return nil
}

func (r *recordStore) Remove(ctx context.Context, rec domain.PurchaseRecord) error {
	if rec.Product.Identifier == "" {
		return domain.ErrRecordKeyRequired
	}

	if err := r.rdb.Del(ctx, r.recordKey(rec.Product.Identifier)).Err(); err != nil {
		return fmt.Errorf("del pay record: %w", err)
	}

	return nil
}

var _ domain.RecordStore = (*recordStore)(nil)
