package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromSink records engine runs in Prometheus metrics.
type PromSink struct {
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	survival *prometheus.GaugeVec
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resilience_runs_total",
		Help: "Total number of completed engine runs",
	}, []string{"scenario"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "resilience_run_duration_seconds",
		Help:    "Wall-clock duration of engine runs",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
	survival := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "resilience_final_survival_probability",
		Help: "Survival probability at the maximum outage duration from the last run",
	}, []string{"scenario", "stat"})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(survival); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			survival = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{runs: runs, duration: duration, survival: survival}, nil
}

// RecordRun increments the run counter and updates the survival gauges.
func (s *PromSink) RecordRun(ev RunEvent) error {
	s.runs.WithLabelValues(ev.Scenario).Inc()
	s.duration.Observe(ev.Duration.Seconds())
	s.survival.WithLabelValues(ev.Scenario, "mean").Set(ev.MeanFinalSurvival)
	s.survival.WithLabelValues(ev.Scenario, "min").Set(ev.MinFinalSurvival)
	return nil
}

// StartPromServer exposes /metrics until the context is cancelled.
func StartPromServer(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
