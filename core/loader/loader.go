// Package loader reads tab-separated extracts into tables. Malformed lines
// are skipped and reported rather than failing the load.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilianp07/casesched/core/logger"
	"github.com/kilianp07/casesched/core/table"
)

// DefaultNAValues are the raw tokens read as missing values.
var DefaultNAValues = []string{"N/A", "", " "}

// ErrNoHeader is returned when the input has no header record.
var ErrNoHeader = errors.New("input has no header row")

const ctxCheckEvery = 4096

// Options controls how a single file is parsed.
type Options struct {
	// DateColumns are parsed with CleanDate; failures become null.
	DateColumns []string
	// Types forces the kind of the named columns. Unlisted columns are text.
	Types map[string]table.Kind
	// NAValues replaces DefaultNAValues when non-nil.
	NAValues []string
	// Quoting defaults to QuoteStrip.
	Quoting QuoteMode
	// Warnings logs every skipped line and failed coercion for this call.
	Warnings bool
}

// SkippedLine describes an input line that was dropped.
type SkippedLine struct {
	Line   int
	Reason string
}

// Report summarizes what a load kept and dropped.
type Report struct {
	Records          int
	Rows             int
	Skipped          []SkippedLine
	CoercionFailures int
}

// Loader resolves file names under a base directory.
type Loader struct {
	baseDir string
	log     logger.Logger
}

// New returns a Loader rooted at baseDir.
func New(baseDir string, log logger.Logger) *Loader {
	return &Loader{baseDir: baseDir, log: log}
}

// Path returns the location name resolves to.
func (l *Loader) Path(name string) string { return filepath.Join(l.baseDir, name) }

// Load opens name under the base directory and parses it. A missing file
// yields an error matching fs.ErrNotExist.
func (l *Loader) Load(ctx context.Context, name string, opts Options) (*table.Table, Report, error) {
	path := l.Path(name)
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var warn logger.Logger
	if opts.Warnings {
		warn = l.log
	}
	tbl, rep, err := read(ctx, f, opts, warn)
	if err != nil {
		return nil, rep, fmt.Errorf("read %s: %w", path, err)
	}
	if n := len(rep.Skipped); n > 0 {
		l.log.Warnf("%s: skipped %d lines, %d records read", name, n, rep.Records)
	}
	if rep.CoercionFailures > 0 {
		l.log.Warnf("%s: %d values could not be coerced and were set to null", name, rep.CoercionFailures)
	}
	l.log.Debugw("file loaded", map[string]any{
		"file":    path,
		"records": rep.Records,
		"rows":    rep.Rows,
		"columns": len(tbl.Columns),
	})
	return tbl, rep, nil
}

// Read parses tab-separated data from r without logging.
func Read(ctx context.Context, r io.Reader, opts Options) (*table.Table, Report, error) {
	return read(ctx, r, opts, nil)
}

func read(ctx context.Context, r io.Reader, opts Options, warn logger.Logger) (*table.Table, Report, error) {
	var rep Report
	cr := csv.NewReader(sanitize(r, opts.Quoting))
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = opts.Quoting == QuotePreserve

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, rep, ErrNoHeader
	}
	if err != nil {
		return nil, rep, fmt.Errorf("header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	tbl := table.New(header)

	kinds, err := columnKinds(tbl, opts)
	if err != nil {
		return nil, rep, err
	}
	na := opts.NAValues
	if na == nil {
		na = DefaultNAValues
	}
	missing := make(map[string]struct{}, len(na))
	for _, tok := range na {
		missing[tok] = struct{}{}
	}

	for {
		if rep.Records%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, rep, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			rep.Records++
			skip(&rep, warn, perr.StartLine, perr.Err.Error())
			continue
		}
		if err != nil {
			return nil, rep, err
		}
		rep.Records++
		line, _ := cr.FieldPos(0)
		if span := lineBreaks(rec); span > 0 {
			// A quote opened in this record ran into the following lines.
			for l := line; l <= line+span; l++ {
				skip(&rep, warn, l, fmt.Sprintf("quoted field spans lines %d-%d", line, line+span))
			}
			continue
		}
		if len(rec) != len(tbl.Columns) {
			skip(&rep, warn, line, fmt.Sprintf("expected %d fields, saw %d", len(tbl.Columns), len(rec)))
			continue
		}
		row := make(table.Row, len(rec))
		for i, raw := range rec {
			if _, ok := missing[raw]; ok {
				continue
			}
			v, ok := coerce(raw, kinds[i])
			if !ok {
				rep.CoercionFailures++
				if warn != nil {
					warn.Warnf("line %d: column %s: cannot read %q as %s", line, tbl.Columns[i], raw, kinds[i])
				}
			}
			row[i] = v
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	rep.Rows = tbl.Len()
	return tbl, rep, nil
}

// lineBreaks counts the line boundaries a record crossed. A quote left open
// at end of input also swallows the final newline, which is not counted.
func lineBreaks(rec []string) int {
	n := 0
	for i, f := range rec {
		if i == len(rec)-1 {
			f = strings.TrimSuffix(f, "\n")
		}
		n += strings.Count(f, "\n")
	}
	return n
}

func skip(rep *Report, warn logger.Logger, line int, reason string) {
	rep.Skipped = append(rep.Skipped, SkippedLine{Line: line, Reason: reason})
	if warn != nil {
		warn.Warnf("line %d skipped: %s", line, reason)
	}
}

func columnKinds(tbl *table.Table, opts Options) ([]table.Kind, error) {
	kinds := make([]table.Kind, len(tbl.Columns))
	for name, k := range opts.Types {
		if i, ok := tbl.Index(name); ok {
			kinds[i] = k
		}
	}
	for _, name := range opts.DateColumns {
		i, ok := tbl.Index(name)
		if !ok {
			return nil, fmt.Errorf("date column %q not in header", name)
		}
		kinds[i] = table.KindDate
	}
	return kinds, nil
}

// coerce converts raw to kind. On failure it returns a null value and false.
func coerce(raw string, kind table.Kind) (table.Value, bool) {
	switch kind {
	case table.KindInt:
		i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return table.Null(), false
		}
		return table.Int(i), true
	case table.KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return table.Null(), false
		}
		return table.Float(f), true
	case table.KindDate:
		t, ok := CleanDate(raw)
		if !ok {
			return table.Null(), false
		}
		return table.Date(t), true
	default:
		return table.Text(raw), true
	}
}
