package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/noumi/internal/cli"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show a user's spending dashboard",
		Long: `Show the current week's anomaly-free days, streaks, spending totals,
goal progress and trends for a user.`,
		RunE: runReport,
	}
	cmd.Flags().String("user", "", "user ID (required)")
	cmd.Flags().Bool("categories", false, "include monthly category breakdown")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	withCategories, _ := cmd.Flags().GetBool("categories")
	ctx := cmd.Context()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	d := cli.Dashboard{Name: user.Name}
	if d.Name == "" {
		d.Name = user.Email
	}

	if d.Week, err = a.analytics.WeeklyStreak(ctx, userID, now); err != nil {
		return err
	}
	if d.Longest, err = a.analytics.LongestStreak(ctx, userID, now); err != nil {
		return err
	}
	if d.Anomalies, err = a.analytics.YearlyAnomalies(ctx, userID, now); err != nil {
		return err
	}
	if d.Total, err = a.analytics.TotalSpentYTD(ctx, userID, now); err != nil {
		return err
	}
	if d.Status, err = a.analytics.SpendingStatus(ctx, userID, now); err != nil {
		return err
	}
	if d.Goal, err = a.analytics.ComputedGoal(ctx, userID, now); err != nil {
		return err
	}
	if d.Trends, err = a.analytics.SpendingTrends(ctx, userID, now); err != nil {
		return err
	}
	if withCategories {
		if d.Categories, err = a.analytics.SpendingCategories(ctx, userID, now); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderDashboard(d))
	return nil
}
