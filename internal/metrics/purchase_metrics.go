package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PurchaseMetrics содержит метрики операций purchase.
type PurchaseMetrics struct {
	// Счётчики операций
	purchasesStarted prometheus.Counter
	outcomes         *prometheus.CounterVec

	// Гистограммы времени выполнения
	purchaseDuration prometheus.Histogram
	stepDuration     *prometheus.HistogramVec

	// Счётчики записей отложенных покупок
	recordsSaved   prometheus.Counter
	recordsRemoved prometheus.Counter

	// Gauge для покупок в полёте
	activePurchases prometheus.Gauge
}

// NewPurchaseMetrics создаёт новый экземпляр метрик purchase.
func NewPurchaseMetrics() *PurchaseMetrics {
	return newPurchaseMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newPurchaseMetricsWithRegisterer(registerer prometheus.Registerer) *PurchaseMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &PurchaseMetrics{
		purchasesStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "iap_purchases_started_total",
			Help: "Total number of purchase attempts started",
		}),
		outcomes: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "iap_purchase_outcomes_total",
			Help: "Total number of purchase attempts grouped by outcome code",
		}, []string{"code"}),
		purchaseDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "iap_purchase_duration_seconds",
			Help:    "Duration of purchase attempts in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stepDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "iap_purchase_step_duration_seconds",
			Help:    "Duration of individual purchase steps in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"step"}),
		recordsSaved: registerCounter(registerer, prometheus.CounterOpts{
			Name: "iap_pay_records_saved_total",
			Help: "Total number of pending purchase records saved",
		}),
		recordsRemoved: registerCounter(registerer, prometheus.CounterOpts{
			Name: "iap_pay_records_removed_total",
			Help: "Total number of pending purchase records removed after submission",
		}),
		activePurchases: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "iap_active_purchases",
			Help: "Number of currently running purchase attempts",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordPurchaseStarted увеличивает счётчик начатых покупок и gauge в полёте.
func (m *PurchaseMetrics) RecordPurchaseStarted() {
	m.purchasesStarted.Inc()
	m.activePurchases.Inc()
}

// RecordPurchaseFinished уменьшает gauge покупок в полёте.
func (m *PurchaseMetrics) RecordPurchaseFinished() {
	m.activePurchases.Dec()
}

// RecordOutcome увеличивает счётчик результатов по коду.
func (m *PurchaseMetrics) RecordOutcome(code string) {
	m.outcomes.WithLabelValues(code).Inc()
}

// RecordPurchaseDuration записывает длительность попытки purchase.
func (m *PurchaseMetrics) RecordPurchaseDuration(duration time.Duration) {
	m.purchaseDuration.Observe(duration.Seconds())
}

// RecordStepDuration записывает длительность отдельного шага.
func (m *PurchaseMetrics) RecordStepDuration(step string, duration time.Duration) {
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// RecordRecordSaved увеличивает счётчик сохранённых записей.
func (m *PurchaseMetrics) RecordRecordSaved() {
	m.recordsSaved.Inc()
}

// RecordRecordRemoved увеличивает счётчик удалённых записей.
func (m *PurchaseMetrics) RecordRecordRemoved() {
	m.recordsRemoved.Inc()
}
