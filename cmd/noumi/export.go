package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/noumi/internal/anomaly"
	"github.com/Veraticus/noumi/internal/cli"
	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/config"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/Veraticus/noumi/internal/sheets"
	"github.com/Veraticus/noumi/internal/streak"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export reports",
	}
	cmd.AddCommand(exportSheetsCmd(), exportSheetsAuthCmd())
	return cmd
}

func exportSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Export a yearly spending report to Google Sheets",
		Long: `Export a user's transactions, anomaly verdicts, category totals and
monthly summary for one year to a Google Sheets spreadsheet.

Authenticate with a service account (sheets.service_account_path) or an
OAuth refresh token obtained with 'noumi export sheets-auth'.`,
		RunE: runExportSheets,
	}
	cmd.Flags().String("user", "", "user ID (required)")
	cmd.Flags().Int("year", time.Now().Year(), "calendar year to export")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runExportSheets(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	year, _ := cmd.Flags().GetInt("year")
	ctx := cmd.Context()

	sheetsCfg, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		return common.NewUserError("Google Sheets is not configured. Run 'noumi export sheets-auth' or set sheets.service_account_path.", err)
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	start, end := exportWindow(user, year, time.Now().UTC())
	if start.After(end) {
		return fmt.Errorf("%w: %s has no days in %d", common.ErrNoData, user.Email, year)
	}

	txns, err := a.store.GetTransactions(ctx, userID, start, end)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	verdicts, err := a.detector.Detect(txns)
	if err != nil {
		return fmt.Errorf("failed to classify transactions: %w", err)
	}

	writer, err := sheets.NewWriter(ctx, *sheetsCfg, common.ComponentLogger("sheets"))
	if err != nil {
		return err
	}

	report := sheets.BuildReport(*user, txns, verdicts, start, end)
	url, err := writer.Export(ctx, report)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(exportSummary(len(report.Transactions), verdicts, year)))
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(url))
	return nil
}

func exportSummary(transactions int, verdicts anomaly.Result, year int) string {
	return fmt.Sprintf("Exported %d transactions (%d anomalous) for %d", transactions, verdicts.Count(), year)
}

// exportWindow is the part of year the user was signed up for, ending today
// for the current year.
func exportWindow(user *model.User, year int, now time.Time) (time.Time, time.Time) {
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	if today := model.DateOf(now); today.Before(end) {
		end = today
	}
	return streak.StartDate(user.SignupDate(), yearStart), end
}

func exportSheetsAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets-auth",
		Short: "Obtain a Google Sheets OAuth refresh token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokenFile, _ := cmd.Flags().GetString("token-file")
			listen, _ := cmd.Flags().GetString("listen")

			clientID := viper.GetString("sheets.client_id")
			clientSecret := viper.GetString("sheets.client_secret")
			if clientID == "" || clientSecret == "" {
				return fmt.Errorf("%w: sheets.client_id and sheets.client_secret are required", common.ErrMissingConfig)
			}

			out := cmd.OutOrStdout()
			token, err := sheets.Authenticate(cmd.Context(), sheets.OAuth2Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenFile:    config.ExpandPath(tokenFile),
				ListenAddr:   listen,
			}, func(url string) {
				fmt.Fprintln(out, cli.FormatInfo("Open this URL in your browser to authorize Noumi:"))
				fmt.Fprintln(out, url)
			})
			if err != nil {
				return err
			}

			slog.Debug("Received OAuth token", "expiry", token.Expiry)
			fmt.Fprintln(out, cli.FormatSuccess("Authorized. Add this to your config under sheets.refresh_token:"))
			fmt.Fprintln(out, token.RefreshToken)
			return nil
		},
	}
	cmd.Flags().String("token-file", config.DefaultDir+"/sheets-token.json", "where to cache the token")
	cmd.Flags().String("listen", "localhost:8080", "address for the OAuth callback listener")
	return cmd
}
