// Package schedule derives the first scheduled hearing of every proceeding
// from the case schedule extract.
package schedule

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/casesched/core/loader"
	"github.com/kilianp07/casesched/core/table"
)

const (
	ScheduleFile = "tbl_schedule.csv"
	OutputFile   = "first_scheduled_proceeding.csv"

	ColCase       = "IDNCASE"
	ColProceeding = "IDNPROCEEDING"
	ColGeneration = "GENERATION"
	ColAdjDate    = "ADJ_DATE"

	// HearingGeneration tags the scheduled-hearing records.
	HearingGeneration = "99"
)

// ErrMissingColumn is returned when the input lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Stats describes one derivation.
type Stats struct {
	Matched       int
	Proceedings   int
	NullKeys      int
	NullDateFirst int
	MeanGroupSize float64
	MaxGroupSize  float64
}

// LoadOptions are the loader options for the schedule extract: identifiers
// and generation stay text so leading zeros survive, ADJ_DATE is a date.
func LoadOptions() loader.Options {
	return loader.Options{
		DateColumns: []string{ColAdjDate},
		Types: map[string]table.Kind{
			ColCase:       table.KindText,
			ColProceeding: table.KindText,
			ColGeneration: table.KindText,
		},
	}
}

type key struct{ caseID, proceedingID string }

func compareKeys(a, b key) int {
	if c := cmp.Compare(a.caseID, b.caseID); c != 0 {
		return c
	}
	return cmp.Compare(a.proceedingID, b.proceedingID)
}

// FirstScheduled keeps the generation-99 rows of t and returns, for each
// (IDNCASE, IDNPROCEEDING) pair, the row with the earliest ADJ_DATE. Null
// dates sort last and ties keep input order. Rows with a null key are
// dropped. The result starts with the two key columns and is ordered by key.
func FirstScheduled(t *table.Table) (*table.Table, Stats, error) {
	var st Stats
	idx := make(map[string]int, 4)
	for _, name := range []string{ColCase, ColProceeding, ColGeneration, ColAdjDate} {
		i, ok := t.Index(name)
		if !ok {
			return nil, st, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		idx[name] = i
	}
	ci, pi, gi, di := idx[ColCase], idx[ColProceeding], idx[ColGeneration], idx[ColAdjDate]

	hearings := t.Filter(func(r table.Row) bool {
		g, ok := r[gi].Str()
		return ok && g == HearingGeneration
	})
	st.Matched = hearings.Len()
	hearings.SortStable(func(a, b table.Row) int { return table.CompareDates(a[di], b[di]) })

	first := make(map[key]table.Row)
	sizes := make(map[key]int)
	var keys []key
	for _, r := range hearings.Rows {
		c, cok := r[ci].Str()
		p, pok := r[pi].Str()
		if !cok || !pok {
			st.NullKeys++
			continue
		}
		k := key{c, p}
		if _, seen := first[k]; !seen {
			first[k] = r
			keys = append(keys, k)
		}
		sizes[k]++
	}
	slices.SortFunc(keys, compareKeys)

	grouped := &table.Table{Columns: t.Columns, Rows: make([]table.Row, 0, len(keys))}
	groupSizes := make([]float64, 0, len(keys))
	for _, k := range keys {
		r := first[k]
		if r[di].IsNull() {
			st.NullDateFirst++
		}
		grouped.Rows = append(grouped.Rows, r)
		groupSizes = append(groupSizes, float64(sizes[k]))
	}
	st.Proceedings = len(keys)
	if len(groupSizes) > 0 {
		st.MeanGroupSize = stat.Mean(groupSizes, nil)
		st.MaxGroupSize = floats.Max(groupSizes)
	}

	out, err := grouped.Reorder(ColCase, ColProceeding)
	if err != nil {
		return nil, st, err
	}
	return out, st, nil
}
