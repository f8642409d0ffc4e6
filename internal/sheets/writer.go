package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/noumi/internal/common"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer exports reports to a Google spreadsheet.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a Writer authenticated from config.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return NewWriterWithService(config, service, logger), nil
}

// NewWriterWithService creates a Writer on an existing Sheets client.
func NewWriterWithService(config Config, service *sheets.Service, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = common.ComponentLogger("sheets")
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Writer{service: service, logger: logger, config: config}
}

// Export writes every tab of report and returns the spreadsheet id.
func (w *Writer) Export(ctx context.Context, report Report) (string, error) {
	w.logger.Info("Starting report export",
		"transactions", len(report.Transactions),
		"start", report.Start.Format("2006-01-02"),
		"end", report.End.Format("2006-01-02"))

	tabs := report.tabs()
	retry := w.config.retryOptions()

	var (
		spreadsheetID string
		sheetIDs      map[string]int64
	)
	err := common.WithRetry(ctx, func() error {
		var err error
		spreadsheetID, sheetIDs, err = w.getOrCreateSpreadsheet(ctx, tabs)
		return err
	}, retry)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	for _, t := range tabs {
		err := common.WithRetry(ctx, func() error {
			if err := w.clearTab(ctx, spreadsheetID, t.name); err != nil {
				return err
			}
			return w.writeTab(ctx, spreadsheetID, t)
		}, retry)
		if err != nil {
			return "", fmt.Errorf("failed to write %s tab: %w", t.name, err)
		}
	}

	if w.config.EnableFormatting {
		err := common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, tabs, sheetIDs)
		}, retry)
		if err != nil {
			// Formatting is cosmetic.
			w.logger.Warn("Failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("Report export completed", "spreadsheet_id", spreadsheetID, "tabs", len(tabs))
	return spreadsheetID, nil
}

func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		tokenSource = oauthConfig(config.ClientID, config.ClientSecret, "").TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

// getOrCreateSpreadsheet returns the configured spreadsheet, adding any
// missing tabs, or creates a new one. The map holds each tab's sheet id.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context, tabs []tab) (string, map[string]int64, error) {
	if w.config.SpreadsheetID == "" {
		return w.createSpreadsheet(ctx, tabs)
	}

	existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}
	ids := sheetIDs(existing.Sheets)

	var add []*sheets.Request
	for _, t := range tabs {
		if _, ok := ids[t.name]; !ok {
			add = append(add, &sheets.Request{AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: t.name},
			}})
		}
	}
	if len(add) == 0 {
		return existing.SpreadsheetId, ids, nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(existing.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: add,
	}).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to add tabs: %w", err)
	}
	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			ids[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
		}
	}
	return existing.SpreadsheetId, ids, nil
}

func (w *Writer) createSpreadsheet(ctx context.Context, tabs []tab) (string, map[string]int64, error) {
	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
	}
	for _, t := range tabs {
		spreadsheet.Sheets = append(spreadsheet.Sheets, &sheets.Sheet{
			Properties: &sheets.SheetProperties{Title: t.name},
		})
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("Created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)
	return created.SpreadsheetId, sheetIDs(created.Sheets), nil
}

func sheetIDs(list []*sheets.Sheet) map[string]int64 {
	ids := make(map[string]int64, len(list))
	for _, s := range list {
		if s.Properties != nil {
			ids[s.Properties.Title] = s.Properties.SheetId
		}
	}
	return ids
}

func tabRange(name, cells string) string {
	return fmt.Sprintf("'%s'!%s", name, cells)
}

func (w *Writer) clearTab(ctx context.Context, spreadsheetID, name string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, tabRange(name, "A:Z"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// writeTab writes t in batches to stay under API request limits.
func (w *Writer) writeTab(ctx context.Context, spreadsheetID string, t tab) error {
	for i := 0; i < len(t.values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(t.values))
		batch := t.values[i:end]

		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, tabRange(t.name, fmt.Sprintf("A%d", i+1)), &sheets.ValueRange{
			Values: batch,
		}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("Wrote batch", "tab", t.name, "start_row", i+1, "rows", len(batch))
	}
	return nil
}

func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, tabs []tab, ids map[string]int64) error {
	var requests []*sheets.Request
	for _, t := range tabs {
		sheetID, ok := ids[t.name]
		if !ok {
			continue
		}
		rows := int64(len(t.values))

		requests = append(requests,
			&sheets.Request{RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{SheetId: sheetID, StartRowIndex: 0, EndRowIndex: 1},
				Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
					TextFormat: &sheets.TextFormat{Bold: true},
				}},
				Fields: "userEnteredFormat.textFormat",
			}},
			&sheets.Request{UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			}},
		)
		for _, col := range t.currencyColumns {
			requests = append(requests, &sheets.Request{RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					EndRowIndex:      rows,
					StartColumnIndex: col,
					EndColumnIndex:   col + 1,
				},
				Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
					NumberFormat: &sheets.NumberFormat{Type: "CURRENCY", Pattern: "$#,##0.00"},
				}},
				Fields: "userEnteredFormat.numberFormat",
			}})
		}
		requests = append(requests, &sheets.Request{AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: 0,
				EndIndex:   int64(len(t.values[0])),
			},
		}})
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}
