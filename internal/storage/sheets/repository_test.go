package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/linkedin-postgen/internal/models"
	"github.com/linkedin-postgen/internal/storage"
	"github.com/linkedin-postgen/pkg/logger"
)

// fakeSpreadsheet keeps one tab of rows in memory. Row 0 is the header.
type fakeSpreadsheet struct {
	mu     sync.Mutex
	tab    string
	rows   [][]interface{}
	ranges []string
}

func (f *fakeSpreadsheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, ":batchUpdate"):
		var req sheets.BatchUpdateSpreadsheetRequest
		json.NewDecoder(r.Body).Decode(&req)
		for _, q := range req.Requests {
			if q.AddSheet != nil {
				f.tab = q.AddSheet.Properties.Title
			}
			if d := q.DeleteDimension; d != nil {
				f.rows = append(f.rows[:d.Range.StartIndex], f.rows[d.Range.EndIndex:]...)
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"spreadsheetId": "sheet-1"})

	case strings.HasSuffix(path, ":append"):
		f.ranges = append(f.ranges, strings.TrimSuffix(path[strings.Index(path, "/values/")+len("/values/"):], ":append"))
		var body sheets.ValueRange
		json.NewDecoder(r.Body).Decode(&body)
		f.rows = append(f.rows, body.Values...)
		json.NewEncoder(w).Encode(map[string]interface{}{"spreadsheetId": "sheet-1"})

	case strings.Contains(path, "/values/") && r.Method == http.MethodPut:
		f.ranges = append(f.ranges, path[strings.Index(path, "/values/")+len("/values/"):])
		var body sheets.ValueRange
		json.NewDecoder(r.Body).Decode(&body)
		rowNum := rowNumber(path)
		for len(f.rows) < rowNum {
			f.rows = append(f.rows, nil)
		}
		f.rows[rowNum-1] = body.Values[0]
		json.NewEncoder(w).Encode(map[string]interface{}{"spreadsheetId": "sheet-1"})

	case strings.Contains(path, "/values/"):
		rng := path[strings.Index(path, "/values/")+len("/values/"):]
		f.ranges = append(f.ranges, rng)
		var values [][]interface{}
		switch {
		case strings.HasSuffix(rng, "!A:A"):
			for _, row := range f.rows {
				values = append(values, row[:1])
			}
		case strings.Contains(rng, "!A1:"):
			values = f.rows[:min(1, len(f.rows))]
		default:
			if len(f.rows) > 1 {
				values = f.rows[1:]
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"values": values})

	default:
		var tabs []map[string]interface{}
		if f.tab != "" {
			tabs = append(tabs, map[string]interface{}{"properties": map[string]interface{}{"title": f.tab, "sheetId": 7}})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"spreadsheetId": "sheet-1", "sheets": tabs})
	}
}

// rowNumber extracts N from a range like "Ideas!A5:M5"
func rowNumber(path string) int {
	rng := path[strings.Index(path, "!A")+2:]
	if i := strings.IndexByte(rng, ':'); i >= 0 {
		rng = rng[:i]
	}
	n, _ := strconv.Atoi(rng)
	return n
}

func newTestRepo(t *testing.T, fake *fakeSpreadsheet) *Repository {
	t.Helper()
	return newNamedTestRepo(t, fake, "")
}

func newNamedTestRepo(t *testing.T, fake *fakeSpreadsheet, sheetName string) *Repository {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	srv, err := sheets.NewService(context.Background(),
		option.WithoutAuthentication(),
		option.WithEndpoint(server.URL+"/"),
	)
	if err != nil {
		t.Fatalf("sheets.NewService() error = %v", err)
	}

	repo := NewWithService(srv, "sheet-1", sheetName, logger.Nop())
	if err := repo.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return repo
}

func TestRepository_Migrate(t *testing.T) {
	fake := &fakeSpreadsheet{}
	newTestRepo(t, fake)

	if fake.tab != DefaultSheetName {
		t.Errorf("Migrate() created tab %q, want %q", fake.tab, DefaultSheetName)
	}
	if len(fake.rows) != 1 || fake.rows[0][0] != "ID" {
		t.Errorf("header row = %v", fake.rows)
	}
}

func TestRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSpreadsheet{}
	repo := newTestRepo(t, fake)

	published := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	first := &models.Idea{
		ExternalID:   "ext-1",
		Title:        "AI in Healthcare",
		URL:          "https://example.com/ai",
		SourceType:   "rss",
		SourceName:   "hn",
		Keywords:     models.StringSlice{"ai", "health"},
		PublishedAt:  &published,
		DiscoveredAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	second := &models.Idea{
		ExternalID:   "ext-2",
		Title:        "Remote work",
		SourceType:   "custom",
		SourceName:   "custom",
		DiscoveredAt: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
	}

	for _, idea := range []*models.Idea{first, second} {
		if err := repo.CreateIdea(ctx, idea); err != nil {
			t.Fatalf("CreateIdea(%s) error = %v", idea.ExternalID, err)
		}
	}
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("IDs = %d,%d, want 1,2", first.ID, second.ID)
	}

	if err := repo.CreateIdea(ctx, &models.Idea{ExternalID: "ext-1", Title: "dup"}); err == nil {
		t.Error("CreateIdea() should reject a duplicate external ID")
	}

	got, err := repo.GetIdeaByExternalID(ctx, "ext-1")
	if err != nil {
		t.Fatalf("GetIdeaByExternalID() error = %v", err)
	}
	if got.Title != "AI in Healthcare" || got.Status != models.IdeaStatusNew {
		t.Errorf("idea = %+v", got)
	}
	if len(got.Keywords) != 2 || got.PublishedAt == nil || !got.PublishedAt.Equal(published) {
		t.Errorf("keywords/published = %v / %v", got.Keywords, got.PublishedAt)
	}

	if _, err := repo.GetIdeaByID(ctx, 99); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetIdeaByID(99) error = %v, want ErrNotFound", err)
	}

	ideas, err := repo.ListIdeas(ctx, storage.DefaultIdeaFilter())
	if err != nil {
		t.Fatalf("ListIdeas() error = %v", err)
	}
	if len(ideas) != 2 || ideas[0].ID != 2 {
		t.Errorf("ListIdeas() newest first = %v", ideas)
	}

	if err := repo.UpdateIdeaStatus(ctx, 1, models.IdeaStatusUsed); err != nil {
		t.Fatalf("UpdateIdeaStatus() error = %v", err)
	}
	if err := repo.UpdateIdeaStatus(ctx, 42, models.IdeaStatusUsed); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateIdeaStatus(42) error = %v, want ErrNotFound", err)
	}

	status := models.IdeaStatusNew
	filter := storage.DefaultIdeaFilter()
	filter.Status = &status
	fresh, err := repo.ListIdeas(ctx, filter)
	if err != nil {
		t.Fatalf("ListIdeas(new) error = %v", err)
	}
	if len(fresh) != 1 || fresh[0].ExternalID != "ext-2" {
		t.Errorf("ListIdeas(new) = %v", fresh)
	}
}

func TestRepository_DeleteIdeasBefore(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSpreadsheet{}
	repo := newTestRepo(t, fake)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, day := range []int{1, 10, 2, 20} {
		idea := &models.Idea{
			ExternalID:   "ext-" + strconv.Itoa(i),
			Title:        "idea",
			SourceType:   "custom",
			DiscoveredAt: base.AddDate(0, 0, day),
		}
		if err := repo.CreateIdea(ctx, idea); err != nil {
			t.Fatalf("CreateIdea() error = %v", err)
		}
	}

	deleted, err := repo.DeleteIdeasBefore(ctx, base.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("DeleteIdeasBefore() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	left, err := repo.ListIdeas(ctx, storage.IdeaFilter{})
	if err != nil {
		t.Fatalf("ListIdeas() error = %v", err)
	}
	if len(left) != 2 {
		t.Fatalf("ListIdeas() = %d ideas, want 2", len(left))
	}
	for _, idea := range left {
		if idea.DiscoveredAt.Before(base.AddDate(0, 0, 5)) {
			t.Errorf("stale idea %s survived", idea.ExternalID)
		}
	}

	if n, err := repo.DeleteIdeasBefore(ctx, base); err != nil || n != 0 {
		t.Errorf("DeleteIdeasBefore(nothing stale) = %d, %v", n, err)
	}

	// dismissed rows are kept whatever their age
	if err := repo.UpdateIdeaStatus(ctx, left[0].ID, models.IdeaStatusDismissed); err != nil {
		t.Fatalf("UpdateIdeaStatus() error = %v", err)
	}
	deleted, err = repo.DeleteIdeasBefore(ctx, base.AddDate(1, 0, 0))
	if err != nil || deleted != 1 {
		t.Fatalf("DeleteIdeasBefore(all stale) = %d, %v; want 1", deleted, err)
	}
	if _, err := repo.GetIdeaByID(ctx, left[0].ID); err != nil {
		t.Errorf("dismissed idea %d was pruned: %v", left[0].ID, err)
	}
}

func TestRepository_QuotesSheetName(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSpreadsheet{}
	repo := newNamedTestRepo(t, fake, "Bob's Ideas")

	if err := repo.CreateIdea(ctx, &models.Idea{ExternalID: "q", Title: "quoted", SourceType: "custom"}); err != nil {
		t.Fatalf("CreateIdea() error = %v", err)
	}
	if err := repo.UpdateIdeaStatus(ctx, 1, models.IdeaStatusUsed); err != nil {
		t.Fatalf("UpdateIdeaStatus() error = %v", err)
	}

	if len(fake.ranges) == 0 {
		t.Fatal("no ranges requested")
	}
	for _, rng := range fake.ranges {
		if !strings.HasPrefix(rng, "'Bob''s Ideas'!") {
			t.Errorf("range %q is not quoted", rng)
		}
	}
}

func TestColumnLetter(t *testing.T) {
	tests := map[int]string{1: "A", 13: "M", 26: "Z", 27: "AA", 52: "AZ"}
	for in, want := range tests {
		if got := columnLetter(in); got != want {
			t.Errorf("columnLetter(%d) = %q, want %q", in, got, want)
		}
	}
}
