package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/casesched/core/metrics"
	"github.com/kilianp07/casesched/core/table"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "casesched.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_SaveTable(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	tbl := table.New([]string{"IDNCASE", "IDNPROCEEDING", `odd "name"`, "ADJ_DATE"})
	require.NoError(t, tbl.Append(table.Row{
		table.Text("007"), table.Text("1"), table.Null(), table.Date(time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)),
	}))
	require.NoError(t, s.SaveTable(ctx, "first_scheduled_proceeding", tbl))
	// saving again replaces the previous content
	require.NoError(t, s.SaveTable(ctx, "first_scheduled_proceeding", tbl))

	var n int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM first_scheduled_proceeding`).Scan(&n))
	assert.Equal(t, 1, n)

	var caseID, date string
	var odd sql.NullString
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT IDNCASE, "odd ""name""", ADJ_DATE FROM first_scheduled_proceeding`).Scan(&caseID, &odd, &date))
	assert.Equal(t, "007", caseID)
	assert.False(t, odd.Valid)
	assert.Equal(t, "2020-03-01", date, "matches the CSV export")
}

func TestSQLiteStore_SaveTableKeepsClock(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	tbl := table.New([]string{"IDNCASE", "ADJ_DATE"})
	require.NoError(t, tbl.Append(table.Row{table.Text("1"), table.Date(time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC))}))
	require.NoError(t, tbl.Append(table.Row{table.Text("2"), table.Date(time.Date(2020, 3, 2, 8, 30, 0, 0, time.UTC))}))
	require.NoError(t, s.SaveTable(ctx, "first_scheduled_proceeding", tbl))

	var date string
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT ADJ_DATE FROM first_scheduled_proceeding WHERE IDNCASE = '1'`).Scan(&date))
	assert.Equal(t, "2020-03-01 00:00:00", date)
}

func TestSQLiteStore_Runs(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	_, ok, err := s.LastSuccess(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.RecordRun(ctx, metrics.RunSummary{RunID: "a", Start: base, End: base.Add(time.Second), Proceedings: 3}))
	require.NoError(t, s.RecordRun(ctx, metrics.RunSummary{RunID: "b", Start: base.Add(time.Hour), End: base.Add(time.Hour + time.Second), Error: "boom"}))

	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].RunID)
	assert.Equal(t, 3, runs[1].Proceedings)

	last, ok, err := s.LastSuccess(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, last.Equal(base.Add(time.Second)))

	assert.Error(t, s.RecordRun(ctx, metrics.RunSummary{RunID: "a"}), "run ids are unique")
}
