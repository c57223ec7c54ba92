package domain

// OutcomeCode — код результата операции purchase, часть внешнего контракта.
type OutcomeCode string

const (
	// RCOK — submission выполнен успешно.
	RCOK OutcomeCode = "RC_OK"
	// RCDidSaveRecord — покупка отложена: запись сохранена до следующей попытки.
	RCDidSaveRecord OutcomeCode = "RC_IAP_DID_SAVE_REC"
	// RCCallback — callback отклонил покупку или завершился ошибкой.
	RCCallback OutcomeCode = "RC_IAP_CALLBACK"
	// RCGetProduct — продукт не удалось получить из каталога.
	RCGetProduct OutcomeCode = "RC_IAP_GET_PRODUCT"
	// RCPurchase — платёж не выполнен.
	RCPurchase OutcomeCode = "RC_IAP_PURCHASE"
	// RCSaveRecord — платёж прошёл, но запись сохранить не удалось.
	// Самый тяжёлый случай: оплаченная покупка без durable-следа.
	RCSaveRecord OutcomeCode = "RC_IAP_SAVE_REC"
	// RCBadRecord — сохранённая запись повреждена; новый платёж не запускается.
	RCBadRecord OutcomeCode = "RC_IAP_BAD_REC"
)

// Outcome — результат одной попытки purchase.
type Outcome struct {
	Code OutcomeCode
	// Err — исходная ошибка, если она была.
	Err error
	// DidSaveRecord отмечает, что для покупки сохранена отложенная запись.
	DidSaveRecord bool
	// Passthrough — произвольные данные callback'а, передаются вызывающему как есть.
	Passthrough map[string]any
}

// OK сообщает об успешном submission.
func (o Outcome) OK() bool {
	return o.Code == RCOK
}
