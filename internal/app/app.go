package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/iap/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/iap/internal/health"
	"github.com/vladislavdragonenkov/iap/internal/service/purchase"
	"github.com/vladislavdragonenkov/iap/internal/service/reconcile"
	"github.com/vladislavdragonenkov/iap/internal/service/submit"
	"github.com/vladislavdragonenkov/iap/internal/version"
)

const prepareTimeout = 10 * time.Second

// Run запускает сервис и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.WithError(err).Warn("failed to close dependencies")
		}
	}()

	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	orchestrator, err := createOrchestrator(cfg, deps, kafkaProducer)
	if err != nil {
		return err
	}

	// Прогрев кэша продукта; неудача не фатальна, загрузка повторится
	// при первой покупке.
	prepareCtx, cancelPrepare := context.WithTimeout(ctx, prepareTimeout)
	if err := orchestrator.Prepare(prepareCtx); err != nil {
		logger.WithError(err).Warn("product warm-up failed")
	}
	cancelPrepare()

	var submitFn domain.SubmitFunc
	if cfg.SubmitURL != "" {
		submitter, err := submit.NewHTTPSubmitter(submit.HTTPConfig{
			URL:    cfg.SubmitURL,
			Logger: logger.WithField("component", "http-submitter"),
		})
		if err != nil {
			return err
		}
		submitFn = submitter.Submit
	}

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", func() error {
		checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := deps.Records.Get(checkCtx, cfg.ProductID)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil
		}
		return err
	}))

	var purchaseHandler http.Handler
	if submitFn != nil {
		purchaseHandler = newPurchaseHandler(orchestrator, submitFn)
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler, purchaseHandler)

	var wg sync.WaitGroup
	if submitFn != nil && deps.Lister != nil {
		worker := reconcile.NewWorker(
			deps.Records,
			deps.Lister,
			deps.Auth,
			submitFn,
			reconcile.WithLogger(logger.WithField("component", "reconcile-worker")),
			reconcile.WithInterval(cfg.ReconcileInterval),
			reconcile.WithBatchSize(cfg.ReconcileBatchSize),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
		logger.WithField("interval", cfg.ReconcileInterval).Info("reconcile worker started")
	} else {
		logger.Info("reconcile worker disabled")
	}

	<-ctx.Done()
	logger.Info("получен сигнал остановки, останавливаем сервис")

	wg.Wait()
	shutdownHTTP(metricsSrv, logger)

	return ctx.Err()
}

// purchaseResponse — тело ответа endpoint'а /purchase.
type purchaseResponse struct {
	RC            string                 `json:"rc"`
	DidSaveRecord bool                   `json:"did_save_record,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Extra         map[string]interface{} `json:"extra,omitempty"`
}

// newPurchaseHandler оборачивает оркестратор в HTTP endpoint.
// Попытки покупки выполняются строго по одной.
func newPurchaseHandler(orchestrator *purchase.Orchestrator, submitFn domain.SubmitFunc) http.Handler {
	var mu sync.Mutex
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		mu.Lock()
		outcome := orchestrator.Purchase(r.Context(), submitFn)
		mu.Unlock()

		resp := purchaseResponse{
			RC:            string(outcome.Code),
			DidSaveRecord: outcome.DidSaveRecord,
			Extra:         outcome.Passthrough,
		}
		if outcome.Err != nil {
			resp.Error = outcome.Err.Error()
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
}

// startMetricsServer запускает HTTP-обработчики метрик, health-проверок
// и, если настроен submitter, endpoint покупки.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler, purchaseHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	if purchaseHandler != nil {
		mux.Handle("/purchase", purchaseHandler)
	}

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
