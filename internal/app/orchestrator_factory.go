package app

import (
	"github.com/vladislavdragonenkov/iap/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/iap/internal/service/purchase"
)

// createOrchestrator создаёт purchase orchestrator с или без Kafka
// в зависимости от наличия kafka producer.
func createOrchestrator(
	cfg Config,
	deps *Dependencies,
	kafkaProducer *kafka.Producer,
) (*purchase.Orchestrator, error) {
	orchCfg := purchase.Config{
		ProductID: cfg.ProductID,
		Records:   deps.Records,
		Catalog:   deps.Catalog,
		Payments:  deps.Payments,
		Auth:      deps.Auth,
		Cloud:     deps.Cloud,
		Logger:    deps.Logger,
	}
	if cfg.StoreProductID != "" && cfg.StoreProductID != cfg.ProductID {
		storeID := cfg.StoreProductID
		orchCfg.MapProductID = func(string) string { return storeID }
	}

	if kafkaProducer != nil {
		return purchase.NewOrchestratorWithKafka(orchCfg, kafkaProducer)
	}
	return purchase.NewOrchestrator(orchCfg)
}
