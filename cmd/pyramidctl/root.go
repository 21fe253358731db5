package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/pyramid-league/internal/app"
	"github.com/riskibarqy/pyramid-league/internal/config"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "pyramidctl",
	Short:        "Operate pyramid league seasons from the shell",
	Long:         `pyramidctl runs the same engines as the admin API against the configured storage. Results are printed as JSON.`,
	SilenceUsage: true,
}

// withContainer loads config from the environment, builds the app container
// and tears it down once fn returns.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container) (any, error)) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.NewConsole(cfg.LogLevel).Named("pyramidctl")
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = container.Close() }()

	out, err := fn(ctx, container)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func printJSON(w io.Writer, v any) error {
	enc := sonic.ConfigStd.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
