package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func TestProducer_PublishPurchaseEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageAndSucceed()

	event := NewPurchaseEvent(
		EventTypePurchaseSubmitted,
		"product-1",
		map[string]interface{}{
			"rc": "RC_OK",
		},
	)

	if err := producer.PublishPurchaseEvent(event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	event := NewPurchaseEvent(EventTypePurchaseFailed, "product-1", nil)

	if err := producer.PublishEvent(TopicPurchaseEvents, "product-1", event); err == nil {
		t.Fatal("expected error from broker, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewPurchaseEvent_Fields(t *testing.T) {
	event := NewPurchaseEvent(EventTypeRecordSaved, "product-9", map[string]interface{}{"rc": "RC_IAP_DID_SAVE_REC"})

	if event.ID == "" {
		t.Error("event id should be populated")
	}
	if event.EventType != EventTypeRecordSaved {
		t.Errorf("expected event type %s, got %s", EventTypeRecordSaved, event.EventType)
	}
	if event.ProductID != "product-9" {
		t.Errorf("expected product id product-9, got %s", event.ProductID)
	}
	if event.Timestamp.IsZero() {
		t.Error("timestamp should be populated")
	}
	if event.Metadata["rc"] != "RC_IAP_DID_SAVE_REC" {
		t.Error("metadata should be carried as is")
	}
}
