package main

import (
	"context"
	"errors"

	"github.com/riskibarqy/pyramid-league/internal/app"
	"github.com/spf13/cobra"
)

func init() {
	for _, cmd := range []*cobra.Command{recalculateCmd, closeSeasonCmd, redistributeCmd, statsCmd} {
		cmd.Flags().Int64P("season", "s", 0, "Season id")
		_ = cmd.MarkFlagRequired("season")
		rootCmd.AddCommand(cmd)
	}
	fraudScanCmd.Flags().Bool("report", false, "Write one audit entry per alert instead of only listing them")
	rootCmd.AddCommand(fraudScanCmd)
}

var recalculateCmd = &cobra.Command{
	Use:   "recalculate",
	Short: "Recompute daily and season aggregates, then ranks",
	RunE: seasonCommand(func(ctx context.Context, c *app.Container, seasonID int64) (any, error) {
		return c.Services.Aggregation.RecalculateAggregates(ctx, seasonID)
	}),
}

var closeSeasonCmd = &cobra.Command{
	Use:   "close-season",
	Short: "Apply season-end role transitions and close the season",
	RunE: seasonCommand(func(ctx context.Context, c *app.Container, seasonID int64) (any, error) {
		return c.Services.Seasons.Close(ctx, seasonID)
	}),
}

var redistributeCmd = &cobra.Command{
	Use:   "redistribute",
	Short: "Shuffle members evenly across subcaptains",
	RunE: seasonCommand(func(ctx context.Context, c *app.Container, seasonID int64) (any, error) {
		return c.Services.Redistribution.RedistributeGroups(ctx, seasonID)
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show tier occupancy against pyramid capacity",
	RunE: seasonCommand(func(ctx context.Context, c *app.Container, seasonID int64) (any, error) {
		return c.Services.Hierarchy.Stats(ctx, seasonID)
	}),
}

var fraudScanCmd = &cobra.Command{
	Use:   "fraud-scan",
	Short: "Run fraud heuristics over the active season",
	RunE: func(cmd *cobra.Command, _ []string) error {
		report, _ := cmd.Flags().GetBool("report")
		return withContainer(cmd, func(ctx context.Context, c *app.Container) (any, error) {
			if report {
				n, err := c.Services.Fraud.ReportAlerts(ctx)
				return map[string]int{"reported": n}, err
			}
			return c.Services.Fraud.ActiveAlerts(ctx)
		})
	},
}

func seasonCommand(fn func(ctx context.Context, c *app.Container, seasonID int64) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		seasonID, _ := cmd.Flags().GetInt64("season")
		if seasonID <= 0 {
			return errors.New("--season must be a positive id")
		}
		return withContainer(cmd, func(ctx context.Context, c *app.Container) (any, error) {
			return fn(ctx, c, seasonID)
		})
	}
}
