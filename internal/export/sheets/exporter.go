package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/linkedin-postgen/internal/config"
	apperrors "github.com/linkedin-postgen/internal/errors"
	"github.com/linkedin-postgen/internal/models"
	"github.com/linkedin-postgen/pkg/logger"
)

// Columns defines the header row of the export sheet
var Columns = []string{
	"Run ID",
	"Exported At",
	"Topic",
	"Tone",
	"Audience",
	"Requested",
	"Post #",
	"Post",
}

// Exporter appends generated posts to a Google Sheet
type Exporter struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	log           *logger.Logger
}

// New creates an Exporter from service account credentials.
// Extra options are passed to the Sheets client.
func New(ctx context.Context, cfg config.SheetsConfig, log *logger.Logger, opts ...option.ClientOption) (*Exporter, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet_id is required")
	}

	credentials := []byte(cfg.ServiceAccountJSON)
	if len(credentials) == 0 {
		if cfg.CredentialsFile == "" {
			return nil, fmt.Errorf("no Google credentials provided: set credentials_file or service_account_json")
		}
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		credentials = data
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentials, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}

	opts = append([]option.ClientOption{option.WithTokenSource(jwtConfig.TokenSource(ctx))}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewWithService(srv, cfg.SpreadsheetID, cfg.SheetName, log), nil
}

// NewWithService wraps an existing Sheets client
func NewWithService(srv *sheets.Service, spreadsheetID, sheetName string, log *logger.Logger) *Exporter {
	if sheetName == "" {
		sheetName = "Posts"
	}
	return &Exporter{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		log:           log.WithComponent("sheets-export"),
	}
}

// Export appends one row per post and returns the number of rows written
func (e *Exporter) Export(ctx context.Context, runID string, req models.GenerationRequest, collection models.PostCollection) (int, error) {
	if collection.Count() == 0 {
		return 0, nil
	}
	if err := e.initializeSheet(ctx); err != nil {
		return 0, apperrors.NewExportError("failed to prepare sheet", err)
	}

	exportedAt := time.Now().UTC().Format(time.RFC3339)
	rows := make([][]interface{}, 0, collection.Count())
	for _, p := range collection.Posts {
		rows = append(rows, []interface{}{
			runID,
			exportedAt,
			req.Topic,
			string(req.Tone),
			req.Audience,
			collection.Requested,
			p.Index,
			p.Text,
		})
	}

	appendRange := sheetRange(e.sheetName, "A:H")
	_, err := e.service.Spreadsheets.Values.Append(e.spreadsheetID, appendRange, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, apperrors.NewExportError("failed to append rows", err)
	}

	e.log.Info().
		Str("run_id", runID).
		Int("rows", len(rows)).
		Msg("Exported posts to sheet")

	return len(rows), nil
}

// initializeSheet creates the sheet and headers if they don't exist
func (e *Exporter) initializeSheet(ctx context.Context) error {
	if err := e.ensureSheetExists(ctx); err != nil {
		return err
	}

	readRange := sheetRange(e.sheetName, "A1:H1")
	resp, err := e.service.Spreadsheets.Values.Get(e.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(resp.Values) > 0 {
		return nil
	}

	headerRow := make([]interface{}, len(Columns))
	for i, col := range Columns {
		headerRow[i] = col
	}

	_, err = e.service.Spreadsheets.Values.Update(e.spreadsheetID, sheetRange(e.sheetName, "A1"), &sheets.ValueRange{
		Values: [][]interface{}{headerRow},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	e.log.Info().Str("sheet", e.sheetName).Msg("Sheet headers initialized")
	return nil
}

// ensureSheetExists adds the tab when the spreadsheet lacks it
func (e *Exporter) ensureSheetExists(ctx context.Context) error {
	spreadsheet, err := e.service.Spreadsheets.Get(e.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == e.sheetName {
			return nil
		}
	}

	e.log.Info().Str("sheet", e.sheetName).Msg("Creating new sheet")
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: e.sheetName},
				},
			},
		},
	}
	if _, err := e.service.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	return nil
}

// sheetRange builds an A1 range, quoting the tab name so spaces and
// apostrophes survive
func sheetRange(sheetName, cells string) string {
	return "'" + strings.ReplaceAll(sheetName, "'", "''") + "'!" + cells
}
