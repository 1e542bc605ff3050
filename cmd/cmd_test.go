package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		cfgPath = ""
		runsLimit = 10
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestParseDate(t *testing.T) {
	out, err := execute(t, "parse-date", "2020-03-01", "03/15/2020 10:30", "garbage")
	require.NoError(t, err)
	assert.Contains(t, out, "\"2020-03-01\"\t2020-03-01 00:00:00\n")
	assert.Contains(t, out, "\"03/15/2020 10:30\"\t2020-03-15 10:30:00\n")
	assert.Contains(t, out, "\"garbage\"\tnull\n")
}

func TestParseDate_RequiresArgument(t *testing.T) {
	_, err := execute(t, "parse-date")
	assert.Error(t, err)
}

func TestRoot_RejectsArguments(t *testing.T) {
	_, err := execute(t, "extra")
	assert.Error(t, err)
}

func TestRoot_RunsJob(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tbl_schedule.csv"),
		[]byte("IDNCASE\tIDNPROCEEDING\tGENERATION\tADJ_DATE\n1\t1\t99\t2020-05-01\n1\t1\t99\t2020-03-01\n"), 0o644))
	out := filepath.Join(dir, "first.csv")
	cfgFile := filepath.Join(dir, "casesched.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(
		"loader:\n  base_dir: "+dir+"\noutput:\n  path: "+out+"\n"), 0o644))

	_, err := execute(t, "--config", cfgFile)
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "IDNCASE,IDNPROCEEDING,GENERATION,ADJ_DATE\n1,1,99,2020-03-01\n", string(data))
}

func TestRuns_ListsHistory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tbl_schedule.csv"),
		[]byte("IDNCASE\tIDNPROCEEDING\tGENERATION\tADJ_DATE\n1\t1\t99\t2020-03-01\n2\t1\t99\t2020-04-01\n"), 0o644))
	cfgFile := filepath.Join(dir, "casesched.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(
		"loader:\n  base_dir: "+dir+"\noutput:\n  path: "+filepath.Join(dir, "first.csv")+
			"\nstore:\n  sqlite_path: "+filepath.Join(dir, "casesched.db")+"\n"), 0o644))

	out, err := execute(t, "runs", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "last success: never")

	_, err = execute(t, "--config", cfgFile)
	require.NoError(t, err)

	out, err = execute(t, "runs", "--config", cfgFile, "-n", "5")
	require.NoError(t, err)
	assert.NotContains(t, out, "never")
	assert.Contains(t, out, "\t2 proceedings\t")
	assert.Contains(t, out, "\tok\n")
}

func TestRuns_RequiresStore(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "casesched.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("log:\n  level: error\n"), 0o644))
	_, err := execute(t, "runs", "--config", cfgFile)
	assert.Error(t, err)
}
