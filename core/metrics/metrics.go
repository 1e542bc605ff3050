package metrics

import "time"

// RunSummary captures the outcome of one derivation run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	InputPath  string    `json:"input_path"`
	OutputPath string    `json:"output_path"`

	Records          int `json:"records"`
	RowsLoaded       int `json:"rows_loaded"`
	RowsSkipped      int `json:"rows_skipped"`
	CoercionFailures int `json:"coercion_failures"`
	Matched          int `json:"matched"`
	Proceedings      int `json:"proceedings"`
	NullKeys         int `json:"null_keys"`
	NullDateFirst    int `json:"null_date_first"`

	MeanGroupSize float64 `json:"mean_group_size"`
	MaxGroupSize  float64 `json:"max_group_size"`

	// Error is empty for a successful run.
	Error string `json:"error,omitempty"`
}

// Success reports whether the run wrote its output.
func (s RunSummary) Success() bool { return s.Error == "" }

// Duration returns the wall time of the run.
func (s RunSummary) Duration() time.Duration { return s.End.Sub(s.Start) }

// MetricsSink records run summaries for observability purposes.
type MetricsSink interface {
	RecordRun(s RunSummary) error
}

// Closer is implemented by sinks holding connections.
type Closer interface {
	Close() error
}

// NopSink is a MetricsSink that does nothing.
type NopSink struct{}

func (NopSink) RecordRun(RunSummary) error { return nil }
