package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/linkedin-postgen/internal/models"
	"github.com/linkedin-postgen/internal/storage"
	"github.com/linkedin-postgen/pkg/logger"
)

// DefaultSheetName is the tab that holds the idea inbox
const DefaultSheetName = "Ideas"

// Config holds configuration for Sheets repository
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	CredentialsFile    string
}

// Repository implements storage.Repository on a Google Sheets tab.
// Suits small shared inboxes where people triage ideas in the sheet itself.
type Repository struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	log           *logger.Logger
	mu            sync.Mutex
	nextID        uint
}

// New creates a new Sheets repository
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Repository, error) {
	var srv *sheets.Service
	var err error

	if cfg.ServiceAccountJSON != "" {
		srv, err = sheets.NewService(ctx, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	} else if cfg.CredentialsFile != "" {
		srv, err = sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	} else {
		return nil, fmt.Errorf("no Google credentials provided")
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewWithService(srv, cfg.SpreadsheetID, cfg.SheetName, log), nil
}

// NewWithService wraps an existing Sheets service
func NewWithService(srv *sheets.Service, spreadsheetID, sheetName string, log *logger.Logger) *Repository {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &Repository{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		log:           log.WithComponent("sheets-repo"),
		nextID:        1,
	}
}

// Migrate creates the tab and header row if they don't exist
func (r *Repository) Migrate() error {
	ctx := context.Background()

	if err := r.ensureSheetExists(ctx); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", r.sheetName, err)
	}

	if err := r.initNextID(ctx); err != nil {
		r.log.Warn().Err(err).Msg("Failed to initialize IDs from existing data")
	}

	r.log.Info().Str("sheet", r.sheetName).Msg("Sheets repository migrated successfully")
	return nil
}

// Close is a no-op for Sheets
func (r *Repository) Close() error {
	return nil
}

// CreateIdea appends an idea row. External IDs are unique, like the sqlite index.
func (r *Repository) CreateIdea(ctx context.Context, idea *models.Idea) error {
	if _, err := r.GetIdeaByExternalID(ctx, idea.ExternalID); err == nil {
		return fmt.Errorf("idea with external ID %s already exists", idea.ExternalID)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	r.mu.Lock()
	idea.ID = r.nextID
	r.nextID++
	r.mu.Unlock()

	now := time.Now()
	if idea.DiscoveredAt.IsZero() {
		idea.DiscoveredAt = now
	}
	if idea.Status == "" {
		idea.Status = models.IdeaStatusNew
	}
	idea.UpdatedAt = now

	return r.appendRow(ctx, ideaToRow(idea))
}

// GetIdeaByID retrieves an idea by its ID
func (r *Repository) GetIdeaByID(ctx context.Context, id uint) (*models.Idea, error) {
	ideas, err := r.readAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, idea := range ideas {
		if idea.ID == id {
			return idea, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetIdeaByExternalID retrieves an idea by external ID
func (r *Repository) GetIdeaByExternalID(ctx context.Context, externalID string) (*models.Idea, error) {
	ideas, err := r.readAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, idea := range ideas {
		if idea.ExternalID == externalID {
			return idea, nil
		}
	}
	return nil, storage.ErrNotFound
}

// ListIdeas lists ideas with optional filtering
func (r *Repository) ListIdeas(ctx context.Context, filter storage.IdeaFilter) ([]*models.Idea, error) {
	ideas, err := r.readAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Idea, 0, len(ideas))
	for _, idea := range ideas {
		if filter.Status != nil && idea.Status != *filter.Status {
			continue
		}
		if filter.SourceType != nil && idea.SourceType != *filter.SourceType {
			continue
		}
		filtered = append(filtered, idea)
	}

	sortIdeas(filtered, filter.OrderBy, filter.OrderDesc)

	if filter.Offset > 0 {
		if filter.Offset >= len(filtered) {
			return []*models.Idea{}, nil
		}
		filtered = filtered[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(filtered) {
		filtered = filtered[:filter.Limit]
	}

	return filtered, nil
}

// UpdateIdeaStatus rewrites the status column of one row
func (r *Repository) UpdateIdeaStatus(ctx context.Context, id uint, status models.IdeaStatus) error {
	idea, err := r.GetIdeaByID(ctx, id)
	if err != nil {
		return err
	}

	rowNum, err := r.findRowByID(ctx, id)
	if err != nil {
		return err
	}

	idea.Status = status
	idea.UpdatedAt = time.Now()
	return r.updateRow(ctx, rowNum, ideaToRow(idea))
}

// DeleteIdeasBefore removes new ideas discovered before the cutoff.
// Used and dismissed rows stay so refreshes keep skipping them.
func (r *Repository) DeleteIdeasBefore(ctx context.Context, before time.Time) (int64, error) {
	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, r.a1("A2:Z")).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to read ideas: %w", err)
	}

	// Row numbers are 1-based and the header is row 1
	var stale []int
	for i, row := range resp.Values {
		idea := rowToIdea(row)
		if idea != nil && idea.Status == models.IdeaStatusNew && idea.DiscoveredAt.Before(before) {
			stale = append(stale, i+2)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	sheetID, err := r.sheetID(ctx)
	if err != nil {
		return 0, err
	}

	// Delete bottom-up so earlier deletions don't shift later indexes
	requests := make([]*sheets.Request, 0, len(stale))
	for i := len(stale) - 1; i >= 0; i-- {
		requests = append(requests, &sheets.Request{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(stale[i] - 1),
					EndIndex:   int64(stale[i]),
				},
			},
		})
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := r.service.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("failed to delete rows: %w", err)
	}

	return int64(len(stale)), nil
}

// ============ HELPER METHODS ============

func (r *Repository) ensureSheetExists(ctx context.Context) error {
	spreadsheet, err := r.service.Spreadsheets.Get(r.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	sheetExists := false
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == r.sheetName {
			sheetExists = true
			break
		}
	}

	if !sheetExists {
		r.log.Info().Str("sheet", r.sheetName).Msg("Creating new sheet")
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{
					AddSheet: &sheets.AddSheetRequest{
						Properties: &sheets.SheetProperties{
							Title: r.sheetName,
						},
					},
				},
			},
		}
		_, err = r.service.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
	}

	headers := ideaHeaders()
	readRange := r.a1("A1:" + columnLetter(len(headers)) + "1")
	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet: %w", err)
	}

	if len(resp.Values) == 0 {
		headerRow := make([]interface{}, 0, len(headers))
		for _, h := range headers {
			headerRow = append(headerRow, h)
		}

		valueRange := &sheets.ValueRange{
			Values: [][]interface{}{headerRow},
		}
		_, err = r.service.Spreadsheets.Values.Update(r.spreadsheetID, r.a1("A1"), valueRange).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
		r.log.Info().Str("sheet", r.sheetName).Msg("Headers initialized")
	}

	return nil
}

func (r *Repository) initNextID(ctx context.Context) error {
	ideas, err := r.readAll(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, idea := range ideas {
		if idea.ID >= r.nextID {
			r.nextID = idea.ID + 1
		}
	}

	r.log.Debug().Uint("next_id", r.nextID).Msg("IDs initialized")
	return nil
}

func (r *Repository) sheetID(ctx context.Context) (int64, error) {
	spreadsheet, err := r.service.Spreadsheets.Get(r.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get spreadsheet: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == r.sheetName {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %s not found", r.sheetName)
}

func (r *Repository) appendRow(ctx context.Context, row []interface{}) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{row},
	}

	_, err := r.service.Spreadsheets.Values.Append(r.spreadsheetID, r.a1("A:Z"), valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	return nil
}

func (r *Repository) updateRow(ctx context.Context, rowNum int, row []interface{}) error {
	updateRange := r.a1(fmt.Sprintf("A%d:%s%d", rowNum, columnLetter(len(row)), rowNum))
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{row},
	}

	_, err := r.service.Spreadsheets.Values.Update(r.spreadsheetID, updateRange, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update row: %w", err)
	}

	return nil
}

func (r *Repository) findRowByID(ctx context.Context, id uint) (int, error) {
	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, r.a1("A:A")).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to read IDs: %w", err)
	}

	idStr := strconv.FormatUint(uint64(id), 10)
	for i, row := range resp.Values {
		if i == 0 {
			continue // Skip header
		}
		if len(row) > 0 && fmt.Sprintf("%v", row[0]) == idStr {
			return i + 1, nil
		}
	}

	return 0, storage.ErrNotFound
}

func (r *Repository) readAll(ctx context.Context) ([]*models.Idea, error) {
	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, r.a1("A2:Z")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read ideas: %w", err)
	}

	ideas := make([]*models.Idea, 0, len(resp.Values))
	for _, row := range resp.Values {
		if idea := rowToIdea(row); idea != nil {
			ideas = append(ideas, idea)
		}
	}

	return ideas, nil
}

// columnLetter converts a 1-based column index to Excel-style letter (1=A, 26=Z, 27=AA)
func columnLetter(n int) string {
	result := ""
	for n > 0 {
		n--
		result = string(rune('A'+n%26)) + result
		n /= 26
	}
	return result
}

func sortIdeas(ideas []*models.Idea, orderBy string, desc bool) {
	sort.SliceStable(ideas, func(i, j int) bool {
		a, b := ideas[i], ideas[j]
		if desc {
			a, b = b, a
		}
		at, bt := sortKey(a, orderBy), sortKey(b, orderBy)
		if !at.Equal(bt) {
			return at.Before(bt)
		}
		return a.ID < b.ID
	})
}

func sortKey(idea *models.Idea, orderBy string) time.Time {
	if orderBy == "published_at" {
		if idea.PublishedAt == nil {
			return time.Time{}
		}
		return *idea.PublishedAt
	}
	return idea.DiscoveredAt
}

// ============ SERIALIZATION ============

func ideaHeaders() []string {
	return []string{
		"ID", "ExternalID", "Title", "Description", "URL",
		"SourceType", "SourceName", "Keywords", "RawData",
		"Status", "PublishedAt", "DiscoveredAt", "UpdatedAt",
	}
}

func ideaToRow(idea *models.Idea) []interface{} {
	rawData := ""
	if idea.RawData != nil {
		if b, err := json.Marshal(idea.RawData); err == nil {
			rawData = string(b)
		}
	}

	publishedAt := ""
	if idea.PublishedAt != nil {
		publishedAt = idea.PublishedAt.Format(time.RFC3339)
	}

	return []interface{}{
		idea.ID,
		idea.ExternalID,
		idea.Title,
		idea.Description,
		idea.URL,
		idea.SourceType,
		idea.SourceName,
		strings.Join(idea.Keywords, ","),
		rawData,
		string(idea.Status),
		publishedAt,
		idea.DiscoveredAt.Format(time.RFC3339),
		idea.UpdatedAt.Format(time.RFC3339),
	}
}

func rowToIdea(row []interface{}) *models.Idea {
	if len(row) < 10 {
		return nil
	}

	idea := &models.Idea{}

	idea.ID = parseUint(row, 0)
	idea.ExternalID = parseString(row, 1)
	idea.Title = parseString(row, 2)
	idea.Description = parseString(row, 3)
	idea.URL = parseString(row, 4)
	idea.SourceType = parseString(row, 5)
	idea.SourceName = parseString(row, 6)

	// Keywords (comma-separated)
	if kw := parseString(row, 7); kw != "" {
		idea.Keywords = strings.Split(kw, ",")
	}

	// RawData (JSON)
	if rd := parseString(row, 8); rd != "" {
		var rawData models.JSON
		if err := json.Unmarshal([]byte(rd), &rawData); err == nil {
			idea.RawData = rawData
		}
	}

	idea.Status = models.IdeaStatus(parseString(row, 9))
	if t := parseTime(row, 10); !t.IsZero() {
		idea.PublishedAt = &t
	}
	idea.DiscoveredAt = parseTime(row, 11)
	idea.UpdatedAt = parseTime(row, 12)

	return idea
}

// ============ PARSING HELPERS ============

func parseString(row []interface{}, idx int) string {
	if idx < len(row) {
		return fmt.Sprintf("%v", row[idx])
	}
	return ""
}

func parseUint(row []interface{}, idx int) uint {
	val, _ := strconv.ParseUint(parseString(row, idx), 10, 64)
	return uint(val)
}

func parseTime(row []interface{}, idx int) time.Time {
	t, _ := time.Parse(time.RFC3339, parseString(row, idx))
	return t
}

var _ storage.Repository = (*Repository)(nil)

// a1 builds a range on the ideas tab. The tab name is quoted so
// spaces and apostrophes are accepted.
func (r *Repository) a1(cells string) string {
	return "'" + strings.ReplaceAll(r.sheetName, "'", "''") + "'!" + cells
}
