package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/casesched/app"
	"github.com/kilianp07/casesched/config"
	"github.com/kilianp07/casesched/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "casesched",
	Short:         "Derive the first scheduled hearing of every proceeding",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI. Errors are logged before being returned.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logger.New("main").Errorf("%v", err)
		return err
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	job, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := job.Close(); err != nil {
			logger.New("main").Errorf("job close: %v", err)
		}
	}()
	_, err = job.Run(ctx)
	return err
}
