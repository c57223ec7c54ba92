package app

import (
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitKafkaProducer_EmptyBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka-init")

	producer, err := initKafkaProducer("", logger)
	if err != nil {
		t.Errorf("empty brokers must not produce an error, got %v", err)
	}
	if producer != nil {
		t.Error("empty brokers must disable kafka")
	}
}

func TestInitKafkaProducer_UnreachableBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka-init")

	// Несуществующий брокер: producer не создаётся, ошибка возвращается.
	producer, err := initKafkaProducer("localhost:1", logger)
	if err == nil {
		t.Error("expected error for unreachable broker")
	}
	if producer != nil {
		t.Error("expected nil producer for unreachable broker")
	}
}

func TestCloseKafka_NilProducer(_ *testing.T) {
	logger := log.WithField("test", "kafka-init")

	// Не должно паниковать.
	closeKafka(nil, logger)
}
