package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/iap/internal/domain"
)

const (
	defaultReconcileInterval  = 5 * time.Minute
	defaultReconcileBatchSize = 100
)

var (
	reconcileRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iap_reconcile_runs_total",
		Help: "Total number of reconcile runs grouped by result.",
	}, []string{"result"})
	reconcileSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iap_reconcile_submitted_total",
		Help: "Total number of pending pay records submitted by the reconcile worker.",
	})
	reconcileLastPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iap_reconcile_last_pending",
		Help: "Number of pending pay records observed during the last reconcile run.",
	})
)

// Options задаёт параметры воркера досдачи отложенных покупок.
type Options struct {
	Logger    *log.Entry
	Interval  time.Duration
	BatchSize int
}

// Option настраивает Worker.
type Option func(*Options)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithInterval задаёт интервал между циклами досдачи.
func WithInterval(interval time.Duration) Option {
	return func(opts *Options) {
		opts.Interval = interval
	}
}

// WithBatchSize задаёт максимум записей за один цикл.
func WithBatchSize(batchSize int) Option {
	return func(opts *Options) {
		opts.BatchSize = batchSize
	}
}

// Worker периодически досдаёт отложенные pay-записи.
// Записи, чей submission не подтвердился, остаются в хранилище
// до следующего цикла.
type Worker struct {
	records   domain.RecordStore
	lister    domain.RecordLister
	auth      domain.AuthGate
	submit    domain.SubmitFunc
	logger    *log.Entry
	interval  time.Duration
	batchSize int
}

// NewWorker создаёт воркер досдачи отложенных покупок.
func NewWorker(records domain.RecordStore, lister domain.RecordLister, auth domain.AuthGate, submit domain.SubmitFunc, options ...Option) *Worker {
	opts := Options{
		Interval:  defaultReconcileInterval,
		BatchSize: defaultReconcileBatchSize,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "reconcile-worker")
	}

	if opts.Interval <= 0 {
		opts.Interval = defaultReconcileInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultReconcileBatchSize
	}

	return &Worker{
		records:   records,
		lister:    lister,
		auth:      auth,
		submit:    submit,
		logger:    logger,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
	}
}

// Run запускает периодическую досдачу до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.lister == nil || w.submit == nil {
		w.logger.Warn("reconcile worker is disabled: lister or submit is nil")
		return
	}

	w.reconcile(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.reconcile(ctx)
		}
	}
}

func (w *Worker) reconcile(ctx context.Context) {
	submitted, err := w.ReconcilePending(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		reconcileRunsTotal.WithLabelValues("error").Inc()
		w.logger.WithError(err).Warn("reconcile run failed")
		return
	}

	reconcileRunsTotal.WithLabelValues("ok").Inc()
	if submitted > 0 {
		w.logger.WithField("submitted", submitted).Info("reconcile run completed")
	}
}

// ReconcilePending выполняет один цикл досдачи и возвращает число
// успешно досданных записей. Без авторизации цикл пропускается:
// submission требует активной сессии.
func (w *Worker) ReconcilePending(ctx context.Context) (int, error) {
	if w.auth != nil && !w.auth.IsLoggedIn() {
		reconcileRunsTotal.WithLabelValues("skipped").Inc()
		return 0, nil
	}

	pending, err := w.lister.ListPending(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	reconcileLastPending.Set(float64(len(pending)))

	submitted := 0
	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return submitted, err
		}

		logger := w.logger.WithField("product_id", rec.Product.Identifier)

		if err := rec.Validate(); err != nil {
			// Повреждённая запись остаётся на месте для ручного разбора.
			logger.WithError(err).Warn("skipping malformed pay record")
			continue
		}

		outcome, err := w.submit(ctx, domain.Submission{
			Product:  &rec.Product,
			Receipt:  &rec.Receipt,
			Restored: true,
		})
		if err != nil {
			logger.WithError(err).Warn("reconcile submission failed")
			continue
		}
		if !outcome.OK() {
			logger.WithField("rc", string(outcome.Code)).Warn("reconcile submission rejected")
			continue
		}

		if err := w.records.Remove(ctx, rec); err != nil {
			logger.WithError(err).Warn("failed to remove submitted pay record")
		}

		submitted++
		reconcileSubmittedTotal.Inc()
	}

	return submitted, nil
}
