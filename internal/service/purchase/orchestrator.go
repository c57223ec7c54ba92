package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/iap/internal/domain"
	"github.com/vladislavdragonenkov/iap/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/iap/internal/metrics"
)

// Шаги покупки для метрик и логов.
const (
	StepCheckRecord  = "check_record"
	StepLoadProduct  = "load_product"
	StepPay          = "pay"
	StepSubmit       = "submit"
	StepSaveRecord   = "save_record"
	StepRemoveRecord = "remove_record"
)

// Config — неизменяемая конфигурация оркестратора покупки одного продукта.
type Config struct {
	// ProductID — идентификатор продукта, которым управляет оркестратор.
	ProductID string
	// Records — durable-хранилище отложенных покупок.
	Records domain.RecordStore
	// Catalog — каталог продуктов платформы.
	Catalog domain.ProductCatalog
	// Payments — платёжный API платформы.
	Payments domain.PaymentExecutor
	// Auth — состояние авторизации и login-flow.
	Auth domain.AuthGate
	// Cloud — проверка доступности облачного хранилища;
	// обязателен, если задан Prompt.
	Cloud domain.CloudChecker
	// Prompt — диалог покупки без авторизации; nil отключает диалог,
	// платёж тогда выполняется сразу.
	Prompt domain.PurchasePrompt
	// MapProductID переводит внутренний идентификатор в идентификатор
	// каталога платформы; nil означает тождественное отображение.
	MapProductID func(string) string
	// Logger для событий оркестратора.
	Logger *log.Entry
}

func (cfg Config) validate() error {
	if cfg.ProductID == "" {
		return domain.ErrProductRequired
	}
	if cfg.Records == nil {
		return errors.New("record store is required")
	}
	if cfg.Catalog == nil {
		return errors.New("product catalog is required")
	}
	if cfg.Payments == nil {
		return errors.New("payment executor is required")
	}
	if cfg.Auth == nil {
		return errors.New("auth gate is required")
	}
	if cfg.Prompt != nil && cfg.Cloud == nil {
		return errors.New("cloud checker is required when prompt is enabled")
	}
	return nil
}

// Orchestrator реализует машину состояний согласования покупки:
// сначала досдача ранее оплаченной записи, затем новый платёж,
// при неудаче submission — durable-запись до следующей попытки.
type Orchestrator struct {
	productID string
	records   domain.RecordStore
	payments  domain.PaymentExecutor
	auth      domain.AuthGate
	cloud     domain.CloudChecker
	prompt    domain.PurchasePrompt
	mapID     func(string) string
	cache     *productCache
	logger    *log.Entry
	metrics   *metrics.PurchaseMetrics
	producer  *kafka.Producer // опциональный Kafka producer для событий покупок
}

// NewOrchestrator создаёт рабочий экземпляр оркестратора.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	o, err := newOrchestrator(cfg)
	if err != nil {
		return nil, err
	}
	o.metrics = metrics.NewPurchaseMetrics()
	return o, nil
}

// NewOrchestratorWithKafka создаёт оркестратор, публикующий события
// жизненного цикла покупки в Kafka.
func NewOrchestratorWithKafka(cfg Config, producer *kafka.Producer) (*Orchestrator, error) {
	o, err := NewOrchestrator(cfg)
	if err != nil {
		return nil, err
	}
	o.producer = producer
	return o, nil
}

// NewOrchestratorWithoutMetrics создаёт оркестратор без метрик (для тестов).
func NewOrchestratorWithoutMetrics(cfg Config) (*Orchestrator, error) {
	return newOrchestrator(cfg)
}

func newOrchestrator(cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid purchase config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.WithField("component", "purchase")
	}
	logger = logger.WithField("product_id", cfg.ProductID)

	mapID := cfg.MapProductID
	if mapID == nil {
		mapID = func(id string) string { return id }
	}

	o := &Orchestrator{
		productID: cfg.ProductID,
		records:   cfg.Records,
		payments:  cfg.Payments,
		auth:      cfg.Auth,
		cloud:     cfg.Cloud,
		prompt:    cfg.Prompt,
		mapID:     mapID,
		logger:    logger,
	}
	o.cache = newProductCache(cfg.Catalog, o.storeProductID(), logger)
	return o, nil
}

// storeProductID возвращает идентификатор продукта в каталоге платформы.
func (o *Orchestrator) storeProductID() string {
	return o.mapID(o.productID)
}

// Prepare прогревает кэш продукта заранее, до первого вызова Purchase.
func (o *Orchestrator) Prepare(ctx context.Context) error {
	_, err := o.cache.Get(ctx)
	return err
}

// GetProduct возвращает метаданные продукта; загрузка выполняется
// не более одного раза независимо от числа конкурентных вызовов.
func (o *Orchestrator) GetProduct(ctx context.Context) (domain.Product, error) {
	return o.cache.Get(ctx)
}

// Purchase выполняет одну попытку покупки.
// Метод последователен: вызывающий обязан дождаться завершения,
// прежде чем запускать следующую попытку для того же продукта.
// Ни одна ошибка коллабораторов не покидает метод — всё сворачивается в Outcome.
func (o *Orchestrator) Purchase(ctx context.Context, submit domain.SubmitFunc) domain.Outcome {
	start := time.Now()
	if o.metrics != nil {
		o.metrics.RecordPurchaseStarted()
	}
	defer func() {
		if o.metrics != nil {
			o.metrics.RecordPurchaseFinished()
			o.metrics.RecordPurchaseDuration(time.Since(start))
		}
	}()

	o.publishEvent(kafka.EventTypePurchaseStarted, nil)

	outcome := o.purchase(ctx, submit)

	if o.metrics != nil {
		o.metrics.RecordOutcome(string(outcome.Code))
	}
	switch {
	case outcome.OK():
		o.publishEvent(kafka.EventTypePurchaseSubmitted, nil)
	case outcome.DidSaveRecord:
		o.publishEvent(kafka.EventTypePurchaseDeferred, map[string]interface{}{"rc": string(outcome.Code)})
	default:
		meta := map[string]interface{}{"rc": string(outcome.Code)}
		if outcome.Err != nil {
			meta["error"] = outcome.Err.Error()
		}
		o.publishEvent(kafka.EventTypePurchaseFailed, meta)
	}

	return outcome
}

func (o *Orchestrator) purchase(ctx context.Context, submit domain.SubmitFunc) domain.Outcome {
	stepStart := time.Now()
	rec, err := o.records.Get(ctx, o.storeProductID())
	o.observeStep(StepCheckRecord, stepStart)

	switch {
	case err == nil:
		if vErr := rec.Validate(); vErr != nil {
			// Повреждённую запись не маскируем свежим платежом.
			o.logger.WithError(vErr).Error("stored pay record is malformed")
			return domain.Outcome{Code: domain.RCBadRecord, Err: vErr}
		}
		return o.submitRestored(ctx, rec, submit)
	case errors.Is(err, domain.ErrRecordMalformed):
		o.logger.WithError(err).Error("stored pay record cannot be read")
		return domain.Outcome{Code: domain.RCBadRecord, Err: err}
	case errors.Is(err, domain.ErrRecordNotFound):
		// Записи нет, обычный путь покупки.
	default:
		// Транзиентная ошибка чтения трактуется как отсутствие записи.
		// Принятый риск: если запись всё же существовала, возможен
		// повторный платёж за тот же продукт.
		o.logger.WithError(err).Warn("record store read failed, treating record as absent")
	}

	return o.newPurchase(ctx, submit)
}

// submitRestored пытается досдать покупку, восстановленную из записи.
func (o *Orchestrator) submitRestored(ctx context.Context, rec domain.PurchaseRecord, submit domain.SubmitFunc) domain.Outcome {
	if !o.auth.IsLoggedIn() {
		// Запись, сделанную без авторизации, досдаём только после входа.
		o.logger.Info("pending pay record found, waiting for login")
		return domain.Outcome{Code: domain.RCDidSaveRecord, DidSaveRecord: true}
	}

	o.publishEvent(kafka.EventTypeRecordRestored, nil)

	stepStart := time.Now()
	outcome, err := submit(ctx, domain.Submission{
		Product:  &rec.Product,
		Receipt:  &rec.Receipt,
		Restored: true,
	})
	o.observeStep(StepSubmit, stepStart)

	if err != nil {
		// Запись сохраняется до следующей попытки.
		o.logger.WithError(err).Warn("submission of restored purchase failed")
		return callbackFailure(outcome, err)
	}
	if !outcome.OK() {
		return outcome
	}

	// Успешный submission — граница durability; неудавшаяся очистка
	// хранилища результат не отменяет.
	stepStart = time.Now()
	if err := o.records.Remove(ctx, rec); err != nil {
		o.logger.WithError(err).Warn("failed to remove submitted pay record")
	} else {
		if o.metrics != nil {
			o.metrics.RecordRecordRemoved()
		}
		o.publishEvent(kafka.EventTypeRecordRemoved, nil)
	}
	o.observeStep(StepRemoveRecord, stepStart)

	return outcome
}

// newPurchase выполняет свежий платёж и submission.
func (o *Orchestrator) newPurchase(ctx context.Context, submit domain.SubmitFunc) domain.Outcome {
	stepStart := time.Now()
	product, err := o.cache.Get(ctx)
	o.observeStep(StepLoadProduct, stepStart)
	if err != nil {
		return domain.Outcome{Code: domain.RCGetProduct, Err: err}
	}
	if product.IsZero() {
		return domain.Outcome{Code: domain.RCGetProduct, Err: domain.ErrProductUnavailable}
	}

	stepStart = time.Now()
	receipt, err := o.pay(ctx, product, true)
	o.observeStep(StepPay, stepStart)
	if err != nil {
		o.logger.WithError(err).Warn("payment failed")
		return domain.Outcome{Code: domain.RCPurchase, Err: err}
	}
	if receipt.IsZero() {
		return domain.Outcome{Code: domain.RCPurchase, Err: domain.ErrEmptyReceipt}
	}

	stepStart = time.Now()
	outcome, submitErr := submit(ctx, domain.Submission{
		Product: &product,
		Receipt: &receipt,
	})
	o.observeStep(StepSubmit, stepStart)

	loggedIn := o.auth.IsLoggedIn()
	if loggedIn && submitErr == nil && outcome.OK() {
		return outcome
	}
	if submitErr != nil {
		outcome = callbackFailure(outcome, submitErr)
	}

	// Платёж прошёл, submission — нет (или сессия без авторизации):
	// сохраняем запись для следующей попытки.
	stepStart = time.Now()
	saveErr := o.records.Save(ctx, product, receipt)
	o.observeStep(StepSaveRecord, stepStart)
	if saveErr != nil {
		// Оплаченная покупка осталась без durable-следа; автоматики
		// восстановления дальше нет, поэтому сигналим максимально громко.
		o.logger.WithError(saveErr).Error("paid purchase left without durable trace: record save failed")
		return domain.Outcome{
			Code:        domain.RCSaveRecord,
			Err:         saveErr,
			Passthrough: outcome.Passthrough,
		}
	}

	if o.metrics != nil {
		o.metrics.RecordRecordSaved()
	}
	o.publishEvent(kafka.EventTypeRecordSaved, map[string]interface{}{"logged_in": loggedIn})

	outcome.DidSaveRecord = true
	if !loggedIn {
		// Без авторизации итог всегда "отложено до входа",
		// какой бы код ни вернул callback.
		outcome.Code = domain.RCDidSaveRecord
	}
	return outcome
}

// pay выполняет платёж, при необходимости спрашивая пользователя,
// как поступить с покупкой без авторизации.
func (o *Orchestrator) pay(ctx context.Context, product domain.Product, promptIfUnauthenticated bool) (domain.Receipt, error) {
	if !o.auth.IsLoggedIn() && promptIfUnauthenticated && o.prompt != nil {
		choice, err := o.prompt.AskUnauthenticatedPurchase(ctx, product)
		if err != nil {
			return domain.Receipt{}, err
		}

		switch choice {
		case domain.PromptLogin:
			// Текущая попытка отменяется, login-flow запускается
			// побочным эффектом; его завершения никто не ждёт.
			o.auth.Login(ctx)
			return domain.Receipt{}, domain.ErrPaymentCancelled
		case domain.PromptContinue:
			available, err := o.cloud.IsStorageAvailable(ctx)
			if err != nil {
				return domain.Receipt{}, err
			}
			if !available {
				return domain.Receipt{}, domain.ErrCloudUnavailable
			}
			// Повторный вызов без диалога, чтобы не спрашивать дважды.
			return o.pay(ctx, product, false)
		default:
			return domain.Receipt{}, domain.ErrPaymentCancelled
		}
	}

	return o.payments.PurchaseProduct(ctx, o.storeProductID())
}

// callbackFailure сворачивает ошибку callback'а в Outcome:
// код из частичного результата сохраняется, иначе ставится RC_IAP_CALLBACK.
func callbackFailure(outcome domain.Outcome, err error) domain.Outcome {
	if outcome.Code == "" {
		outcome.Code = domain.RCCallback
	}
	outcome.Err = err
	return outcome
}

func (o *Orchestrator) observeStep(step string, start time.Time) {
	if o.metrics != nil {
		o.metrics.RecordStepDuration(step, time.Since(start))
	}
}

// publishEvent публикует событие покупки в Kafka (если producer настроен).
func (o *Orchestrator) publishEvent(eventType kafka.EventType, metadata map[string]interface{}) {
	if o.producer == nil {
		return
	}

	event := kafka.NewPurchaseEvent(eventType, o.storeProductID(), metadata)
	if err := o.producer.PublishPurchaseEvent(event); err != nil {
		// Kafka опциональна: ошибку логируем, покупку не прерываем.
		o.logger.WithError(err).WithField("event_type", eventType).Warn("failed to publish purchase event")
	}
}
