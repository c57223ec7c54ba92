package domain

import (
	"encoding/json"
	"time"
)

// Product описывает метаданные покупаемого продукта из каталога платформы.
// Структура неизменяема после загрузки: повторная загрузка не выполняется
// в рамках одного экземпляра оркестратора.
type Product struct {
	// Identifier — идентификатор продукта в каталоге платформы.
	Identifier string `json:"identifier"`
	// Title — локализованное название для отображения пользователю.
	Title string `json:"title,omitempty"`
	// PriceString — отформатированная цена для отображения.
	PriceString string `json:"price_string,omitempty"`
	// PriceMinor — цена в минимальных денежных единицах.
	PriceMinor int64 `json:"price_minor,omitempty"`
	// Currency — код валюты цены.
	Currency string `json:"currency,omitempty"`
}

// IsZero сообщает, что продукт пустой (каталог ничего не вернул).
func (p Product) IsZero() bool {
	return p.Identifier == ""
}

// Receipt — подтверждение платежа от платформы.
// Поле TransactionReceipt обязательно для последующей верификации.
type Receipt struct {
	// TransactionID — идентификатор транзакции платформы.
	TransactionID string `json:"transaction_id,omitempty"`
	// TransactionReceipt — каноническое поле с данными чека.
	TransactionReceipt string `json:"transaction_receipt"`
	// LegacyReceipt хранит чек в старом формате записи.
	// При чтении копируется в TransactionReceipt, если то пустое.
	LegacyReceipt string `json:"receipt,omitempty"`
	// PurchasedAt — момент завершения платежа.
	PurchasedAt time.Time `json:"purchased_at,omitempty"`
}

// UnmarshalJSON нормализует чеки старого формата: если каноническое поле
// пустое, но задано legacy-поле receipt, значение переносится.
func (r *Receipt) UnmarshalJSON(data []byte) error {
	type alias Receipt
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.TransactionReceipt == "" && a.LegacyReceipt != "" {
		a.TransactionReceipt = a.LegacyReceipt
	}
	*r = Receipt(a)
	return nil
}

// IsZero сообщает, что чек пустой (платёж не дал подтверждения).
func (r Receipt) IsZero() bool {
	return r.TransactionReceipt == "" && r.LegacyReceipt == "" && r.TransactionID == ""
}

// PurchaseRecord — сохранённая пара (продукт, чек), ожидающая submission.
// Инвариант: на один идентификатор продукта существует не более одной записи.
type PurchaseRecord struct {
	Product Product `json:"product"`
	Receipt Receipt `json:"receipt"`
	// SavedAt фиксирует момент сохранения записи.
	SavedAt time.Time `json:"saved_at,omitempty"`
}

// Validate проверяет форму записи: продукт и чек должны присутствовать оба.
// Запись неправильной формы считается повреждённой и не подлежит авторемонту.
func (rec PurchaseRecord) Validate() error {
	if rec.Product.IsZero() || rec.Receipt.IsZero() {
		return ErrRecordMalformed
	}
	return nil
}
