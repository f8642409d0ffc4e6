package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/noumi/internal/cli"
	"github.com/Veraticus/noumi/internal/ingest"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions",
		Long:  `Import transactions from OFX/QFX bank statements or from a linked Plaid item.`,
	}
	cmd.PersistentFlags().String("user", "", "user ID to import for (required)")
	_ = cmd.MarkPersistentFlagRequired("user")

	cmd.AddCommand(importOFXCmd(), importPlaidCmd())
	return cmd
}

func importOFXCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ofx <file-or-glob>...",
		Short: "Import OFX/QFX statement files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImportOFX,
	}
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	ctx := cmd.Context()

	files, err := expandFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %v", args)
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing statements...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)

	var total ingest.Result
	for _, path := range files {
		res, err := importFile(ctx, a.ingest, userID, path)
		if err != nil {
			_ = bar.Exit()
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		total.Fetched += res.Fetched
		total.Inserted += res.Inserted
		_ = bar.Add(1)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d new transactions from %d files (%d duplicates skipped)",
		total.Inserted, len(files), total.Duplicates())))
	return nil
}

func importFile(ctx context.Context, svc *ingest.Service, userID, path string) (*ingest.Result, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied statement path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	res, err := svc.ImportOFX(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	slog.Debug("Imported statement", "file", path, "fetched", res.Fetched, "inserted", res.Inserted)
	return res, nil
}

// expandFiles resolves glob patterns, keeping literal paths that match nothing
// so the open error names them.
func expandFiles(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

func importPlaidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plaid",
		Short: "Sync transactions from the user's linked Plaid item",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, _ := cmd.Flags().GetString("user")
			days, _ := cmd.Flags().GetInt("days")
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			ctx := cmd.Context()

			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			end := model.DateOf(time.Now())
			start := end.AddDate(0, 0, -days)
			res, err := a.ingest.SyncPlaid(ctx, userID, start, end)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Synced %d transactions, %d new", res.Fetched, res.Inserted)))
			return nil
		},
	}
	cmd.Flags().Int("days", ingest.DefaultSyncDays, "how many days back to sync")
	return cmd
}
