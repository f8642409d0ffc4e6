package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/noumi/internal/cli"
	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/spf13/cobra"
)

func anomaliesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anomalies",
		Short: "List stored anomaly verdicts",
		Long: `List the verdicts saved by earlier reports and API calls, without
re-running detection. Defaults to the year so far.`,
		RunE: runAnomalies,
	}
	cmd.Flags().String("user", "", "user ID (required)")
	cmd.Flags().String("from", "", "first date, YYYY-MM-DD (default: January 1st)")
	cmd.Flags().String("to", "", "last date, YYYY-MM-DD (default: today)")
	cmd.Flags().Bool("all", false, "include transactions that were not flagged")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runAnomalies(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	all, _ := cmd.Flags().GetBool("all")

	start, end, err := anomalyWindow(from, to, time.Now().UTC())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.store.GetAnomalies(ctx, userID, start, end)
	if err != nil {
		return fmt.Errorf("failed to load anomalies: %w", err)
	}

	rows := anomalyRows(records, all)
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("No stored anomalies between %s and %s. Run `noumi report` to classify.",
			start.Format(model.DateLayout), end.Format(model.DateLayout))))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.Table([]string{"Date", "Transaction", "Method", "Score", "Anomaly"}, rows))
	return nil
}

// anomalyWindow resolves the --from and --to flags against now.
func anomalyWindow(from, to string, now time.Time) (time.Time, time.Time, error) {
	start, end := model.YearStart(now), model.DateOf(now)
	var err error
	if from != "" {
		if start, err = model.ParseDate(from); err != nil {
			return time.Time{}, time.Time{}, common.NewUserError("--from must be a date like 2024-03-01", err)
		}
	}
	if to != "" {
		if end, err = model.ParseDate(to); err != nil {
			return time.Time{}, time.Time{}, common.NewUserError("--to must be a date like 2024-03-31", err)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, common.NewUserError(
			fmt.Sprintf("--to (%s) is before --from (%s)", end.Format(model.DateLayout), start.Format(model.DateLayout)),
			common.ErrInvalidInput)
	}
	return start, end, nil
}

func anomalyRows(records []model.AnomalyRecord, all bool) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		if !r.IsAnomaly && !all {
			continue
		}
		score := "-"
		if r.Score != nil {
			score = r.Score.StringFixed(2)
		}
		flag := "no"
		if r.IsAnomaly {
			flag = "yes"
		}
		rows = append(rows, []string{r.Date.Format(model.DateLayout), r.TransactionID, string(r.Method), score, flag})
	}
	return rows
}
