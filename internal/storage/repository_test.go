package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"timelog/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "timelog.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustAddEntry(t *testing.T, repo *SQLiteRepository, e core.Entry) int64 {
	t.Helper()
	id, err := repo.AddEntry(context.Background(), e)
	if err != nil {
		t.Fatalf("AddEntry(%+v): %v", e, err)
	}
	return id
}

func TestAddEntryThenRangeQuery(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := core.Entry{Date: "2025-03-14", Category: "Work", Hours: 1, Minutes: 30}
	id := mustAddEntry(t, repo, e)
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	got, err := repo.GetEntriesInDateRange(ctx, "2025-03-14", "2025-03-14")
	if err != nil {
		t.Fatalf("GetEntriesInDateRange: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	e.ID = id
	if got[0] != e {
		t.Fatalf("got %+v, want %+v", got[0], e)
	}
}

func TestUncategorizedRoundTripsAsEmpty(t *testing.T) {
	repo := newTestRepo(t)
	id := mustAddEntry(t, repo, core.Entry{Date: "2025-03-14", Hours: 2})

	got, err := repo.GetEntry(context.Background(), id)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if !got.Uncategorized() {
		t.Fatalf("expected uncategorized entry, got %q", got.Category)
	}

	n, err := repo.GetEntriesByCategory(context.Background(), "")
	if err != nil {
		t.Fatalf("GetEntriesByCategory: %v", err)
	}
	if len(n) != 0 {
		t.Fatalf("NULL category must not match the empty name, got %d", len(n))
	}
}

func TestRangeQueryBoundsAndOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ids := map[string]int64{}
	for _, d := range []string{"2025-04-01", "2025-02-28", "2025-03-31", "2025-03-01", "2025-03-15"} {
		ids[d] = mustAddEntry(t, repo, core.Entry{Date: d, Hours: 1})
	}
	tie := mustAddEntry(t, repo, core.Entry{Date: "2025-03-15", Minutes: 5})

	got, err := repo.GetEntriesInDateRange(ctx, "2025-03-01", "2025-03-31")
	if err != nil {
		t.Fatalf("GetEntriesInDateRange: %v", err)
	}
	wantIDs := []int64{ids["2025-03-01"], ids["2025-03-15"], tie, ids["2025-03-31"]}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d entries, got %d: %+v", len(wantIDs), len(got), got)
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Fatalf("position %d: got id %d, want %d (%+v)", i, got[i].ID, id, got)
		}
	}
}

func TestUpdateEntry(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id := mustAddEntry(t, repo, core.Entry{Date: "2025-03-14", Category: "Work", Hours: 1, Minutes: 30})

	minutes := 45
	cleared := ""
	got, err := repo.UpdateEntry(ctx, id, core.EntryChanges{Minutes: &minutes, Category: &cleared})
	if err != nil || got != id {
		t.Fatalf("UpdateEntry = %d, %v", got, err)
	}

	e, err := repo.GetEntry(ctx, id)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	want := core.Entry{ID: id, Date: "2025-03-14", Hours: 1, Minutes: 45}
	if e != want {
		t.Fatalf("after update got %+v, want %+v", e, want)
	}
}

func TestUpdateEntryNotFound(t *testing.T) {
	repo := newTestRepo(t)
	hours := 2
	_, err := repo.UpdateEntry(context.Background(), 404, core.EntryChanges{Hours: &hours})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var se *StorageError
	if errors.As(err, &se) {
		t.Fatalf("not-found must not be reported as a storage error: %v", err)
	}
}

func TestDeleteEntryIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id := mustAddEntry(t, repo, core.Entry{Date: "2025-03-14", Hours: 1})

	if err := repo.DeleteEntry(ctx, id); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := repo.DeleteEntry(ctx, id); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := repo.GetEntry(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestIDsAreNotReused(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	first := mustAddEntry(t, repo, core.Entry{Date: "2025-03-14", Hours: 1})
	if err := repo.DeleteEntry(ctx, first); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	second := mustAddEntry(t, repo, core.Entry{Date: "2025-03-14", Hours: 1})
	if second == first {
		t.Fatalf("id %d was reused", first)
	}
}

func TestAddCategoryDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.AddCategory(ctx, "Work"); err != nil {
		t.Fatalf("first AddCategory: %v", err)
	}
	_, err := repo.AddCategory(ctx, "Work")
	if !errors.Is(err, core.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	cats, err := repo.GetCategories(ctx)
	if err != nil {
		t.Fatalf("GetCategories: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "Work" {
		t.Fatalf("expected exactly one Work category, got %+v", cats)
	}
}

func TestDeleteCategoryCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	catID, err := repo.AddCategory(ctx, "Meetings")
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if _, err := repo.AddCategory(ctx, "Travel"); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}

	var meetingIDs []int64
	for _, d := range []string{"2025-03-01", "2025-03-02", "2025-03-03"} {
		meetingIDs = append(meetingIDs, mustAddEntry(t, repo, core.Entry{Date: d, Category: "Meetings", Hours: 1}))
	}
	travelID := mustAddEntry(t, repo, core.Entry{Date: "2025-03-04", Category: "Travel", Hours: 1})

	cleared, err := repo.DeleteCategoryCascade(ctx, catID)
	if err != nil {
		t.Fatalf("DeleteCategoryCascade: %v", err)
	}
	if cleared != 3 {
		t.Fatalf("expected 3 entries cleared, got %d", cleared)
	}

	for _, id := range meetingIDs {
		e, err := repo.GetEntry(ctx, id)
		if err != nil {
			t.Fatalf("GetEntry(%d): %v", id, err)
		}
		if !e.Uncategorized() {
			t.Fatalf("entry %d still has category %q", id, e.Category)
		}
	}
	travel, _ := repo.GetEntry(ctx, travelID)
	if travel.Category != "Travel" {
		t.Fatalf("unrelated entry lost its category: %+v", travel)
	}

	cats, _ := repo.GetCategories(ctx)
	for _, c := range cats {
		if c.Name == "Meetings" {
			t.Fatalf("Meetings still listed: %+v", cats)
		}
	}

	if _, err := repo.AddCategory(ctx, "Meetings"); err != nil {
		t.Fatalf("re-adding Meetings after delete: %v", err)
	}
}

func TestDeleteCategoryMissingIsNoop(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustAddEntry(t, repo, core.Entry{Date: "2025-03-01", Category: "Orphan", Hours: 1})

	if err := repo.DeleteCategory(ctx, 999); err != nil {
		t.Fatalf("DeleteCategory on missing id: %v", err)
	}
	got, _ := repo.GetEntriesByCategory(ctx, "Orphan")
	if len(got) != 1 {
		t.Fatalf("no-op delete touched entries: %+v", got)
	}
}

func TestDataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timelog.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	id, err := repo.AddEntry(ctx, core.Entry{Date: "2025-03-01", Hours: 1})
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if _, err := repo.AddCategory(ctx, "Work"); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()

	if _, err := repo.GetEntry(ctx, id); err != nil {
		t.Fatalf("entry lost across reopen: %v", err)
	}
	cats, _ := repo.GetCategories(ctx)
	if len(cats) != 1 {
		t.Fatalf("categories lost across reopen: %+v", cats)
	}
	if n, _ := repo.CountEntries(ctx); n != 1 {
		t.Fatalf("CountEntries = %d, want 1", n)
	}
}

func TestSchemaVersion(t *testing.T) {
	repo := newTestRepo(t)
	v, err := repo.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != SchemaVersion {
		t.Fatalf("SchemaVersion = %d, want %d", v, SchemaVersion)
	}
}

func TestStorageErrorAfterClose(t *testing.T) {
	repo := newTestRepo(t)
	repo.Close()

	_, err := repo.AddEntry(context.Background(), core.Entry{Date: "2025-03-01", Hours: 1})
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if se.Op != "add entry" {
		t.Fatalf("unexpected op %q", se.Op)
	}
}

func TestClassify(t *testing.T) {
	if classify("op", nil) != nil {
		t.Fatal("nil must stay nil")
	}
	inner := &StorageError{Op: "inner", Err: errors.New("boom")}
	if got := classify("outer", inner); got != inner {
		t.Fatalf("StorageError must pass through unchanged, got %v", got)
	}
	if !errors.Is(classify("op", core.ErrDuplicate), core.ErrDuplicate) {
		t.Fatal("duplicate lost")
	}
	var se *StorageError
	if !errors.As(classify("op", errors.New("disk full")), &se) {
		t.Fatal("unknown errors must become StorageError")
	}
}

func TestDSNEscapesPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/var/lib/timelog.db", "file:/var/lib/timelog.db?"},
		{"/tmp/a?b/timelog.db", "file:/tmp/a%3Fb/timelog.db?"},
		{"/tmp/c#d/100%/timelog.db", "file:/tmp/c%23d/100%25/timelog.db?"},
		{"data/my logs/timelog.db", "file:data/my%20logs/timelog.db?"},
	}
	for _, tt := range tests {
		got := DSN(tt.path)
		if len(got) < len(tt.want) || got[:len(tt.want)] != tt.want {
			t.Errorf("DSN(%q) = %q, want prefix %q", tt.path, got, tt.want)
		}
	}
}

func TestOpenPathWithURISpecialCharacters(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "odd?dir#1")
	path := filepath.Join(dir, "timelog.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database not created at %s: %v", path, err)
	}

	var mode string
	if err := repo.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal (pragmas lost)", mode)
	}
	if v, err := repo.SchemaVersion(ctx); err != nil || v != SchemaVersion {
		t.Fatalf("SchemaVersion = %d, %v", v, err)
	}
}
