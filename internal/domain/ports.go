package domain

import "context"

// RecordStore — durable-хранилище отложенных покупок, по одной записи на продукт.
// Конкретные реализации выводят ключ как "<namespace>-<productID>".
type RecordStore interface {
	// Get возвращает запись или ErrRecordNotFound.
	// ErrRecordMalformed означает, что запись есть, но её нельзя прочитать.
	Get(ctx context.Context, productID string) (PurchaseRecord, error)
	// Save сохраняет запись, заменяя существующую для того же продукта.
	Save(ctx context.Context, product Product, receipt Receipt) error
	// Remove удаляет запись; отсутствие записи ошибкой не считается.
	Remove(ctx context.Context, rec PurchaseRecord) error
}

// RecordLister — опциональное расширение хранилища для перечисления
// отложенных записей (используется воркером reconcile).
type RecordLister interface {
	ListPending(ctx context.Context, limit int) ([]PurchaseRecord, error)
}

// ProductCatalog описывает загрузку метаданных продуктов из каталога платформы.
type ProductCatalog interface {
	LoadProducts(ctx context.Context, ids []string) ([]Product, error)
}

// PaymentExecutor выполняет платёж через платёжный API платформы.
type PaymentExecutor interface {
	PurchaseProduct(ctx context.Context, productID string) (Receipt, error)
}

// AuthGate сообщает о состоянии авторизации и умеет запускать login-flow.
type AuthGate interface {
	IsLoggedIn() bool
	// Login запускает login-flow как побочный эффект; завершения никто не ждёт.
	Login(ctx context.Context)
}

// CloudChecker проверяет доступность облачного хранилища устройства.
type CloudChecker interface {
	IsStorageAvailable(ctx context.Context) (bool, error)
}

// PromptChoice — выбор пользователя в диалоге покупки без авторизации.
type PromptChoice string

const (
	PromptLogin    PromptChoice = "login"
	PromptContinue PromptChoice = "continue"
	PromptCancel   PromptChoice = "cancel"
)

// PurchasePrompt показывает пользователю трёхвариантный диалог
// (войти / продолжить без входа / отменить).
type PurchasePrompt interface {
	AskUnauthenticatedPurchase(ctx context.Context, product Product) (PromptChoice, error)
}

// Submission — аргумент callback'а приложения.
// Product и Receipt равны nil только в сценарии "продукта нет",
// callback обязан обрабатывать этот случай явно.
type Submission struct {
	Product *Product
	Receipt *Receipt
	// Restored выставлен, когда покупка восстановлена из сохранённой записи.
	Restored bool
}

// SubmitFunc — application-supplied шаг submission: погашение чека
// во внешнем сервисе. Code == RCOK означает успех.
type SubmitFunc func(ctx context.Context, sub Submission) (Outcome, error)
