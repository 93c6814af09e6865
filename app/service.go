// Package app wires configuration, the reliability engine, metrics sinks and
// result delivery into a single batch run.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/kilianp07/resilience/config"
	"github.com/kilianp07/resilience/core/model"
	"github.com/kilianp07/resilience/core/resilience"
	"github.com/kilianp07/resilience/infra/logger"
	"github.com/kilianp07/resilience/infra/metrics"
	"github.com/kilianp07/resilience/infra/mqtt"
	"github.com/kilianp07/resilience/pkg/export"
)

// Service runs one reliability evaluation end to end.
type Service struct {
	cfg         *config.Config
	log         logger.Logger
	sink        metrics.Sink
	publisher   mqtt.Publisher
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []metrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink metrics.Sink = metrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	svc := &Service{
		cfg:         cfg,
		log:         logg,
		sink:        sink,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}
	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
	}
	return svc, nil
}

// Run executes the engine, records metrics, writes the summary and publishes
// it when a broker is configured.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	inputs, err := s.cfg.Scenario.Inputs()
	if err != nil {
		return err
	}
	engine, err := resilience.New(inputs, logger.New("engine"))
	if err != nil {
		return err
	}

	begin := time.Now()
	summary, err := engine.Run()
	if err != nil {
		return err
	}
	elapsed := time.Since(begin)
	s.log.Infof("run %s finished: %d start times, %d duration steps in %s",
		summary.RunID, len(summary.FinalDurationSurvival), len(summary.MeanSurvivalByDuration), elapsed)

	mean, min := 0.0, 0.0
	if n := len(summary.MeanSurvivalByDuration); n > 0 {
		mean = summary.MeanSurvivalByDuration[n-1]
		min = summary.MinSurvivalByDuration[n-1]
	}
	if err := s.sink.RecordRun(metrics.RunEvent{
		RunID:             summary.RunID,
		StartTimes:        len(summary.FinalDurationSurvival),
		MaxOutageSteps:    len(summary.MeanSurvivalByDuration),
		Scenario:          "combined",
		Duration:          elapsed,
		MeanFinalSurvival: mean,
		MinFinalSurvival:  min,
		Time:              time.Now(),
	}); err != nil {
		s.log.Errorf("record run: %v", err)
	}

	if err := s.write(summary); err != nil {
		return err
	}
	if s.publisher != nil {
		if err := s.publish(summary); err != nil {
			s.log.Errorf("publish results: %v", err)
		}
	}
	return nil
}

func (s *Service) write(summary *model.ResilienceSummary) error {
	out := s.cfg.Output
	w := os.Stdout
	if out.Path != "-" {
		f, err := os.Create(out.Path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if out.Format == "csv" {
		return export.WriteCSV(w, summary)
	}
	return export.WriteJSON(w, summary)
}

func (s *Service) publish(summary *model.ResilienceSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return s.publisher.Publish(payload)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.publisher != nil {
		s.publisher.Close()
	}
	return nil
}
