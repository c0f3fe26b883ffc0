package observability

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so independent services (and tests) do not
// collide on the global one.
type Metrics struct {
	Registry          *prometheus.Registry
	Extractions       *prometheus.CounterVec
	GenerationSeconds prometheus.Histogram
	PredictedPrice    prometheus.Histogram
	StoreErrors       prometheus.Counter
	Repriced          *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weaponforge_extractions_total",
				Help: "Extraction attempts by mode and result",
			},
			[]string{"mode", "result"},
		),
		GenerationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "weaponforge_generation_seconds",
				Help:    "Latency of generation service calls",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			},
		),
		PredictedPrice: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "weaponforge_predicted_price",
				Help:    "Predicted weapon prices",
				Buckets: prometheus.ExponentialBuckets(10, 2, 12),
			},
		),
		StoreErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "weaponforge_store_errors_total",
				Help: "Weapons that could not be persisted",
			},
		),
		Repriced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weaponforge_repriced_total",
				Help: "Stored weapons re-priced, by result",
			},
			[]string{"result"},
		),
	}
	m.Registry.MustRegister(
		m.Extractions,
		m.GenerationSeconds,
		m.PredictedPrice,
		m.StoreErrors,
		m.Repriced,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Start serves /metrics on port in the background.
func Start(port string, m *Metrics, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			logger.Error("metrics.serve", "port", port, "error", err)
		}
	}()
}

// The helpers below are no-ops on a nil *Metrics.

func (m *Metrics) ObserveExtraction(mode, result string) {
	if m != nil {
		m.Extractions.WithLabelValues(mode, result).Inc()
	}
}

func (m *Metrics) ObserveGeneration(seconds float64) {
	if m != nil {
		m.GenerationSeconds.Observe(seconds)
	}
}

func (m *Metrics) ObservePrice(price float64) {
	if m != nil {
		m.PredictedPrice.Observe(price)
	}
}

func (m *Metrics) StoreError() {
	if m != nil {
		m.StoreErrors.Inc()
	}
}

func (m *Metrics) ObserveReprice(result string) {
	if m != nil {
		m.Repriced.WithLabelValues(result).Inc()
	}
}
