package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/iap/internal/domain"
)

const opTimeout = 5 * time.Second

type recordStore struct {
	db        *sql.DB
	namespace string
}

// NewRecordStore создаёт PostgreSQL-реализацию RecordStore.
// namespace — префикс ключей записей (аналог bundle id), может быть пустым.
func NewRecordStore(store *Store, namespace string) domain.RecordStore {
	return &recordStore{db: store.DB(), namespace: namespace}
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

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		productRaw []byte
		receiptRaw []byte
		savedAt    time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT product, receipt, saved_at
		FROM iap_pay_records
		WHERE record_key = $1
	`, r.recordKey(productID)).Scan(&productRaw, &receiptRaw, &savedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PurchaseRecord{}, domain.ErrRecordNotFound
		}
		return domain.PurchaseRecord{}, fmt.Errorf("select pay record: %w", err)
	}

	rec := domain.PurchaseRecord{SavedAt: savedAt}
	if err := json.Unmarshal(productRaw, &rec.Product); err != nil {
		return domain.PurchaseRecord{}, fmt.Errorf("%w: decode product: %v", domain.ErrRecordMalformed, err)
	}
	// Unmarshal чека нормализует legacy-поле receipt в каноническое.
	if err := json.Unmarshal(receiptRaw, &rec.Receipt); err != nil {
		return domain.PurchaseRecord{}, fmt.Errorf("%w: decode receipt: %v", domain.ErrRecordMalformed, err)
	}

	return rec, nil
}

func (r *recordStore) Save(ctx context.Context, product domain.Product, receipt domain.Receipt) error {
	if product.Identifier == "" {
		return domain.ErrRecordKeyRequired
	}

	productRaw, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}
	receiptRaw, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Upsert по ключу записи: на продукт существует не более одной записи.
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO iap_pay_records (id, record_key, product, receipt, saved_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (record_key) DO UPDATE
		SET product = EXCLUDED.product,
		    receipt = EXCLUDED.receipt,
		    saved_at = EXCLUDED.saved_at
	`, uuid.NewString(), r.recordKey(product.Identifier), productRaw, receiptRaw, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert pay record: %w", err)
	}

	return nil
}

func (r *recordStore) Remove(ctx context.Context, rec domain.PurchaseRecord) error {
	if rec.Product.Identifier == "" {
		return domain.ErrRecordKeyRequired
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM iap_pay_records
		WHERE record_key = $1
	`, r.recordKey(rec.Product.Identifier)); err != nil {
		return fmt.Errorf("delete pay record: %w", err)
	}

	return nil
}

// ListPending возвращает отложенные записи в порядке сохранения.
func (r *recordStore) ListPending(ctx context.Context, limit int) ([]domain.PurchaseRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `
		SELECT product, receipt, saved_at
		FROM iap_pay_records
		ORDER BY saved_at ASC, record_key ASC
	`

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $1", limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list pay records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.PurchaseRecord, 0)
	for rows.Next() {
		var (
			productRaw []byte
			receiptRaw []byte
			rec        domain.PurchaseRecord
		)
		if err := rows.Scan(&productRaw, &receiptRaw, &rec.SavedAt); err != nil {
			return nil, fmt.Errorf("scan pay record: %w", err)
		}
		if err := json.Unmarshal(productRaw, &rec.Product); err != nil {
			return nil, fmt.Errorf("%w: decode product: %v", domain.ErrRecordMalformed, err)
		}
		if err := json.Unmarshal(receiptRaw, &rec.Receipt); err != nil {
			return nil, fmt.Errorf("%w: decode receipt: %v", domain.ErrRecordMalformed, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pay records: %w", err)
	}

	return records, nil
}

var _ domain.RecordStore = (*recordStore)(nil)
var _ domain.RecordLister = (*recordStore)(nil)
