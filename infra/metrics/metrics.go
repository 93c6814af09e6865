// Package metrics records engine runs for observability. Sinks mirror the
// batch nature of the engine: one RunEvent per completed simulation.
package metrics

import "time"

// RunEvent summarizes one completed engine run.
type RunEvent struct {
	RunID             string
	StartTimes        int
	MaxOutageSteps    int
	Scenario          string
	Duration          time.Duration
	MeanFinalSurvival float64
	MinFinalSurvival  float64
	Time              time.Time
}

// Sink records engine runs for observability purposes.
type Sink interface {
	RecordRun(ev RunEvent) error
}

// NopSink discards all events.
type NopSink struct{}

// RecordRun implements Sink.
func (NopSink) RecordRun(RunEvent) error { return nil }

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRun(ev); err != nil {
			return err
		}
	}
	return nil
}

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`

	InfluxEnabled bool   `json:"influx_enabled"`
	InfluxURL     string `json:"influx_url"`
	InfluxToken   string `json:"influx_token"`
	InfluxOrg     string `json:"influx_org"`
	InfluxBucket  string `json:"influx_bucket"`
}
