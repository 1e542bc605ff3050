package schedule

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/casesched/core/loader"
	"github.com/kilianp07/casesched/core/table"
)

func load(t *testing.T, data string) *table.Table {
	t.Helper()
	tbl, _, err := loader.Read(context.Background(), strings.NewReader(data), LoadOptions())
	require.NoError(t, err)
	return tbl
}

func column(t *testing.T, tbl *table.Table, name string) []string {
	t.Helper()
	var out []string
	for _, r := range tbl.Rows {
		out = append(out, tbl.Get(r, name).String())
	}
	return out
}

func TestFirstScheduled_EarliestGeneration99(t *testing.T) {
	data := "IDNCASE\tIDNPROCEEDING\tGENERATION\tADJ_DATE\n" +
		"1\t1\t99\t2020-05-01\n" +
		"1\t1\t99\t2020-03-01\n" +
		"1\t1\t1\t2020-01-01\n"
	out, st, err := FirstScheduled(load(t, data))
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, []string{"2020-03-01 00:00:00"}, column(t, out, ColAdjDate))
	assert.Equal(t, 2, st.Matched)
	assert.Equal(t, 1, st.Proceedings)
	assert.InDelta(t, 2.0, st.MeanGroupSize, 1e-9)
	assert.InDelta(t, 2.0, st.MaxGroupSize, 1e-9)
}

func TestFirstScheduled_GroupsAndOrdering(t *testing.T) {
	data := "HEARING_LOC\tGENERATION\tIDNPROCEEDING\tADJ_DATE\tIDNCASE\n" +
		"B\t99\t2\t2021-01-10\t010\n" +
		"A\t99\t1\t2021-02-01\t010\n" +
		"C\t99\t1\t2020-12-01\t002\n" +
		"D\t99\t1\t\t002\n" +
		"E\t99\t1\t2021-01-01\t010\n" +
		"F\t98\t1\t2019-01-01\t010\n"
	out, st, err := FirstScheduled(load(t, data))
	require.NoError(t, err)

	assert.Equal(t, []string{"IDNCASE", "IDNPROCEEDING", "HEARING_LOC", "GENERATION", "ADJ_DATE"}, out.Columns)
	assert.Equal(t, []string{"002", "010", "010"}, column(t, out, ColCase))
	assert.Equal(t, []string{"1", "1", "2"}, column(t, out, ColProceeding))
	assert.Equal(t, []string{"C", "E", "B"}, column(t, out, "HEARING_LOC"))
	for _, g := range column(t, out, ColGeneration) {
		assert.Equal(t, HearingGeneration, g)
	}
	assert.Equal(t, 5, st.Matched)
	assert.Equal(t, 3, st.Proceedings)
	assert.Equal(t, 0, st.NullDateFirst)
}

func TestFirstScheduled_NullDatesSortLast(t *testing.T) {
	data := "IDNCASE\tIDNPROCEEDING\tGENERATION\tADJ_DATE\tNOTE\n" +
		"1\t1\t99\tN/A\tnull-first-in-input\n" +
		"1\t1\t99\t2020-06-01\tdated\n" +
		"2\t1\t99\tgarbage\tonly-null-a\n" +
		"2\t1\t99\t\tonly-null-b\n"
	out, st, err := FirstScheduled(load(t, data))
	require.NoError(t, err)
	assert.Equal(t, []string{"dated", "only-null-a"}, column(t, out, "NOTE"))
	assert.True(t, out.Get(out.Rows[1], ColAdjDate).IsNull())
	assert.Equal(t, 1, st.NullDateFirst)
}

func TestFirstScheduled_NullKeysDropped(t *testing.T) {
	data := "IDNCASE\tIDNPROCEEDING\tGENERATION\tADJ_DATE\n" +
		"N/A\t1\t99\t2020-01-01\n" +
		"1\t \t99\t2020-01-01\n" +
		"1\t1\t99\t2020-01-02\n" +
		"1\t1\tN/A\t2019-01-01\n"
	out, st, err := FirstScheduled(load(t, data))
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())
	assert.Equal(t, 2, st.NullKeys)
	assert.Equal(t, 3, st.Matched)
}

func TestFirstScheduled_GenerationIsText(t *testing.T) {
	data := "IDNCASE\tIDNPROCEEDING\tGENERATION\tADJ_DATE\n" +
		"1\t1\t99.0\t2020-01-01\n" +
		"1\t1\t099\t2020-01-01\n"
	out, _, err := FirstScheduled(load(t, data))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestFirstScheduled_MissingColumn(t *testing.T) {
	tbl := table.New([]string{ColCase, ColProceeding, ColAdjDate})
	_, _, err := FirstScheduled(tbl)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestFirstScheduled_Empty(t *testing.T) {
	out, st, err := FirstScheduled(load(t, "IDNCASE\tIDNPROCEEDING\tGENERATION\tADJ_DATE\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, []string{ColCase, ColProceeding, ColGeneration, ColAdjDate}, out.Columns)
	assert.Zero(t, st.MeanGroupSize)
}
