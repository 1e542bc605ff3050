package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/casesched/config"
	"github.com/kilianp07/casesched/core/loader"
	coremetrics "github.com/kilianp07/casesched/core/metrics"
	coremon "github.com/kilianp07/casesched/core/monitoring"
	"github.com/kilianp07/casesched/core/schedule"
	"github.com/kilianp07/casesched/infra/logger"
	inframetrics "github.com/kilianp07/casesched/infra/metrics"
	"github.com/kilianp07/casesched/infra/monitoring"
	"github.com/kilianp07/casesched/infra/store"
	"github.com/kilianp07/casesched/pkg/export"
)

// Job derives the first scheduled proceeding file from the schedule extract.
type Job struct {
	cfg     *config.Config
	loader  *loader.Loader
	quoting loader.QuoteMode
	sink    coremetrics.MetricsSink
	store   *store.SQLiteStore
	monitor coremon.Monitor
	log     logger.Logger
	now     func() time.Time
}

// New wires the job from the configuration.
func New(cfg *config.Config) (*Job, error) {
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	quoting, err := loader.ParseQuoteMode(cfg.Loader.Quoting)
	if err != nil {
		return nil, err
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	sink, err := inframetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	j := &Job{
		cfg:     cfg,
		loader:  loader.New(cfg.Loader.BaseDir, logger.New("loader")),
		quoting: quoting,
		sink:    sink,
		monitor: mon,
		log:     logger.New("job"),
		now:     time.Now,
	}
	if cfg.Store.SQLitePath != "" {
		st, err := store.NewSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			_ = j.Close()
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		j.store = st
	}
	return j, nil
}

// Run performs one derivation. The summary is returned and reported to the
// sinks whether or not the run succeeded; sink failures only log.
func (j *Job) Run(ctx context.Context) (coremetrics.RunSummary, error) {
	defer j.monitor.Recover()

	sum := coremetrics.RunSummary{
		RunID:      uuid.NewString(),
		Start:      j.now(),
		InputPath:  j.loader.Path(j.cfg.Loader.File),
		OutputPath: j.cfg.Output.Path,
	}
	err := j.run(ctx, &sum)
	sum.End = j.now()
	if err != nil {
		sum.Error = err.Error()
		j.monitor.CaptureException(err, map[string]string{"run_id": sum.RunID})
		j.log.Errorf("run %s failed: %v", sum.RunID, err)
	} else {
		j.log.Infow("run finished", map[string]any{
			"run_id":       sum.RunID,
			"output":       sum.OutputPath,
			"records":      sum.Records,
			"skipped":      sum.RowsSkipped,
			"matched":      sum.Matched,
			"proceedings":  sum.Proceedings,
			"duration_ms":  sum.Duration().Milliseconds(),
			"mean_per_key": sum.MeanGroupSize,
		})
	}

	if j.store != nil {
		if serr := j.store.RecordRun(ctx, sum); serr != nil {
			j.log.Warnf("record run history: %v", serr)
		}
	}
	if serr := j.sink.RecordRun(sum); serr != nil {
		j.log.Warnf("metrics sink: %v", serr)
	}
	return sum, err
}

func (j *Job) run(ctx context.Context, sum *coremetrics.RunSummary) error {
	opts := schedule.LoadOptions()
	opts.NAValues = j.cfg.Loader.NAValues
	opts.Quoting = j.quoting
	opts.Warnings = j.cfg.Loader.Warnings

	tbl, rep, err := j.loader.Load(ctx, j.cfg.Loader.File, opts)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	sum.Records = rep.Records
	sum.RowsLoaded = rep.Rows
	sum.RowsSkipped = len(rep.Skipped)
	sum.CoercionFailures = rep.CoercionFailures

	out, st, err := schedule.FirstScheduled(tbl)
	if err != nil {
		return fmt.Errorf("derive first scheduled proceedings: %w", err)
	}
	sum.Matched = st.Matched
	sum.Proceedings = st.Proceedings
	sum.NullKeys = st.NullKeys
	sum.NullDateFirst = st.NullDateFirst
	sum.MeanGroupSize = st.MeanGroupSize
	sum.MaxGroupSize = st.MaxGroupSize
	if st.NullDateFirst > 0 {
		j.log.Warnf("%d proceedings have no parseable %s", st.NullDateFirst, schedule.ColAdjDate)
	}

	if err := export.WriteFile(j.cfg.Output.Path, out); err != nil {
		return fmt.Errorf("write %s: %w", j.cfg.Output.Path, err)
	}
	if j.store != nil {
		if err := j.store.SaveTable(ctx, j.cfg.Store.Table, out); err != nil {
			j.log.Warnf("sqlite copy of %s: %v", j.cfg.Store.Table, err)
		}
	}
	return nil
}

// Close releases the store and sinks and flushes pending error reports.
func (j *Job) Close() error {
	var errs []error
	if j.store != nil {
		errs = append(errs, j.store.Close())
	}
	if c, ok := j.sink.(coremetrics.Closer); ok {
		errs = append(errs, c.Close())
	}
	j.monitor.Flush(2 * time.Second)
	return errors.Join(errs...)
}
