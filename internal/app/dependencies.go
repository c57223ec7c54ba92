package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/iap/internal/domain"
	"github.com/vladislavdragonenkov/iap/internal/service/auth"
	"github.com/vladislavdragonenkov/iap/internal/service/catalog"
	"github.com/vladislavdragonenkov/iap/internal/service/cloud"
	"github.com/vladislavdragonenkov/iap/internal/service/payment"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Records domain.RecordStore
	// Lister равен nil, если хранилище не умеет перечислять записи.
	Lister   domain.RecordLister
	Catalog  domain.ProductCatalog
	Payments domain.PaymentExecutor
	Auth     domain.AuthGate
	Cloud    domain.CloudChecker
	Logger   *log.Entry

	// closeStorage закрывает соединение хранилища; nil для памяти.
	closeStorage func() error
}

// NewDependencies создаёт и инициализирует все зависимости приложения.
// NOTE: В production окружении catalog, payments, auth и cloud должны быть
// заменены на реальные клиенты платформы.
func NewDependencies(cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	records, lister, closeStorage, err := initRecordStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	gate := auth.NewMockGate()
	// Сервисный режим работает от имени backend-сессии.
	gate.LoggedIn = true

	return &Dependencies{
		Records:      records,
		Lister:       lister,
		Catalog:      catalog.NewMockService(),
		Payments:     payment.NewMockService(),
		Auth:         gate,
		Cloud:        cloud.NewMockChecker(),
		Logger:       logger,
		closeStorage: closeStorage,
	}, nil
}

// Close освобождает ресурсы зависимостей.
func (d *Dependencies) Close() error {
	if d.closeStorage == nil {
		return nil
	}
	return d.closeStorage()
}
