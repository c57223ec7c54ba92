package kafka

import (
	"time"

	"github.com/google/uuid"
)

// EventType определяет тип события жизненного цикла покупки.
type EventType string

const (
	// Purchase события
	EventTypePurchaseStarted   EventType = "purchase.started"
	EventTypePurchaseSubmitted EventType = "purchase.submitted"
	EventTypePurchaseDeferred  EventType = "purchase.deferred"
	EventTypePurchaseFailed    EventType = "purchase.failed"

	// События записей отложенных покупок
	EventTypeRecordSaved    EventType = "record.saved"
	EventTypeRecordRestored EventType = "record.restored"
	EventTypeRecordRemoved  EventType = "record.removed"
)

// Topics для Kafka
const (
	TopicPurchaseEvents = "iap.purchase.events"
)

// PurchaseEvent представляет событие жизненного цикла покупки.
type PurchaseEvent struct {
	ID        string                 `json:"id"`
	EventType EventType              `json:"event_type"`
	ProductID string                 `json:"product_id"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewPurchaseEvent создаёт новое событие покупки с уникальным id.
func NewPurchaseEvent(eventType EventType, productID string, metadata map[string]interface{}) *PurchaseEvent {
	return &PurchaseEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		ProductID: productID,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
