package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/kilianp07/casesched/core/metrics"
)

// PromConfig selects where the gauges of a run end up. A batch job has no
// scrape endpoint, so the registry is written to a node-exporter textfile
// and/or pushed to a Pushgateway.
type PromConfig struct {
	Job      string `json:"job"`
	Textfile string `json:"textfile"`
	PushURL  string `json:"push_url"`
}

// PromSink records run summaries as Prometheus gauges.
type PromSink struct {
	cfg      PromConfig
	reg      *prometheus.Registry
	counts   *prometheus.GaugeVec
	groups   *prometheus.GaugeVec
	duration prometheus.Gauge
	lastRun  prometheus.Gauge
	lastOK   prometheus.Gauge
	success  prometheus.Gauge
}

// NewPromSink registers the run gauges on reg. A nil reg gets a private
// registry so repeated sinks never collide.
func NewPromSink(cfg PromConfig, reg *prometheus.Registry) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if cfg.Job == "" {
		cfg.Job = "casesched"
	}
	s := &PromSink{
		cfg: cfg,
		reg: reg,
		counts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "casesched_rows",
			Help: "Row counts of the last run by stage",
		}, []string{"stage"}),
		groups: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "casesched_group_size",
			Help: "Generation-99 rows per proceeding in the last run",
		}, []string{"stat"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "casesched_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "casesched_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		lastOK: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "casesched_last_success_timestamp_seconds",
			Help: "Unix time the last successful run finished",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "casesched_run_success",
			Help: "1 if the last run wrote its output, 0 otherwise",
		}),
	}
	for _, c := range []prometheus.Collector{s.counts, s.groups, s.duration, s.lastRun, s.lastOK, s.success} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				return nil, fmt.Errorf("prometheus sink registered twice on the same registry: %w", err)
			}
			return nil, err
		}
	}
	return s, nil
}

// Registry exposes the gatherer backing the sink.
func (s *PromSink) Registry() *prometheus.Registry { return s.reg }

// RecordRun updates the gauges and flushes them to the configured targets.
func (s *PromSink) RecordRun(r coremetrics.RunSummary) error {
	s.counts.WithLabelValues("records").Set(float64(r.Records))
	s.counts.WithLabelValues("loaded").Set(float64(r.RowsLoaded))
	s.counts.WithLabelValues("skipped").Set(float64(r.RowsSkipped))
	s.counts.WithLabelValues("coercion_failed").Set(float64(r.CoercionFailures))
	s.counts.WithLabelValues("matched").Set(float64(r.Matched))
	s.counts.WithLabelValues("null_key").Set(float64(r.NullKeys))
	s.counts.WithLabelValues("proceedings").Set(float64(r.Proceedings))
	s.counts.WithLabelValues("null_date_first").Set(float64(r.NullDateFirst))
	s.groups.WithLabelValues("mean").Set(r.MeanGroupSize)
	s.groups.WithLabelValues("max").Set(r.MaxGroupSize)
	s.duration.Set(r.Duration().Seconds())
	s.lastRun.Set(float64(r.End.Unix()))
	if r.Success() {
		s.success.Set(1)
		s.lastOK.Set(float64(r.End.Unix()))
	} else {
		s.success.Set(0)
	}

	var errs []error
	if s.cfg.Textfile != "" {
		if err := prometheus.WriteToTextfile(s.cfg.Textfile, s.reg); err != nil {
			errs = append(errs, fmt.Errorf("write textfile: %w", err))
		}
	}
	if s.cfg.PushURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := push.New(s.cfg.PushURL, s.cfg.Job).Gatherer(s.reg).PushContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("push: %w", err))
		}
	}
	return errors.Join(errs...)
}
