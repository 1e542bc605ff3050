package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/casesched/config"
	"github.com/kilianp07/casesched/infra/store"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs from the SQLite history",
	Args:  cobra.NoArgs,
	RunE:  listRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Store.SQLitePath == "" {
		return fmt.Errorf("run history needs store.sqlite_path")
	}
	st, err := store.NewSQLiteStore(cfg.Store.SQLitePath)
	if err != nil {
		return fmt.Errorf("sqlite store: %w", err)
	}
	defer func() { _ = st.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	out := cmd.OutOrStdout()
	last, ok, err := st.LastSuccess(ctx)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(out, "last success: %s\n", last.UTC().Format(time.RFC3339))
	} else {
		fmt.Fprintln(out, "last success: never")
	}
	runs, err := st.Runs(ctx, runsLimit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		status := "ok"
		if !r.Success() {
			status = "failed: " + r.Error
		}
		fmt.Fprintf(out, "%s\t%s\t%d proceedings\t%s\t%s\n",
			r.RunID, r.End.UTC().Format(time.RFC3339), r.Proceedings, r.Duration().Round(time.Millisecond), status)
	}
	return nil
}
