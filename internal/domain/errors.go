package domain

import "errors"

var (
	// ErrRecordNotFound возвращается, если записи для продукта нет в хранилище.
	ErrRecordNotFound = errors.New("purchase record not found")
	// ErrRecordMalformed — запись существует, но имеет неправильную форму.
	ErrRecordMalformed = errors.New("stored purchase record is malformed")
	// ErrRecordKeyRequired — пустой ключ записи; сохранять нечего и некуда.
	ErrRecordKeyRequired = errors.New("record key is required")
	// ErrProductRequired — пустой идентификатор продукта.
	ErrProductRequired = errors.New("product id is required")
	// ErrProductUnavailable — каталог не вернул продукт.
	ErrProductUnavailable = errors.New("product is unavailable")
	// ErrEmptyReceipt — платёж завершился без подтверждения.
	ErrEmptyReceipt = errors.New("payment returned empty receipt")
	// ErrPaymentCancelled — пользователь отменил платёж.
	ErrPaymentCancelled = errors.New("payment cancelled by user")
	// ErrCloudUnavailable — облачное хранилище недоступно, отложенную запись
	// нельзя будет восстановить на другом устройстве.
	ErrCloudUnavailable = errors.New("cloud storage is unavailable")
)

// IsUserCancelled проверяет, является ли ошибка отменой платежа пользователем.
func IsUserCancelled(err error) bool {
	return errors.Is(err, ErrPaymentCancelled)
}
