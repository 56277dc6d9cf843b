package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"timelog/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// StorageError is a persistence failure from the underlying database. It is
// never retried; callers surface it as-is.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// DSN builds the modernc connection string used by both the main pool and
// the migration connection. Path segments are percent-encoded so '?', '#'
// and '%' in a directory name cannot leak into the URI query.
func DSN(dbPath string) string {
	segments := strings.Split(filepath.ToSlash(dbPath), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "file:" + strings.Join(segments, "/") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// One connection serializes every statement and transaction, which is
	// what keeps the category cascade atomic relative to other callers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// AddEntry persists e and returns its new id. The caller validates.
func (r *SQLiteRepository) AddEntry(ctx context.Context, e core.Entry) (int64, error) {
	id, err := r.queries.CreateEntry(ctx, CreateEntryParams{
		Date:     e.Date,
		Category: nullString(e.Category),
		Hours:    int64(e.Hours),
		Minutes:  int64(e.Minutes),
	})
	if err != nil {
		return 0, classify("add entry", err)
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		"id", id,
		"date", e.Date,
		"category", e.Category,
		"hours", e.Hours,
		"minutes", e.Minutes)

	return id, nil
}

// GetEntry returns core.ErrNotFound when id does not exist.
func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (core.Entry, error) {
	row, err := r.queries.GetEntry(ctx, id)
	if err != nil {
		return core.Entry{}, classify(fmt.Sprintf("get entry %d", id), err)
	}
	return toCoreEntry(row), nil
}

// UpdateEntry merges changes into the stored record in one transaction.
func (r *SQLiteRepository) UpdateEntry(ctx context.Context, id int64, changes core.EntryChanges) (int64, error) {
	op := fmt.Sprintf("update entry %d", id)
	err := r.withTx(ctx, op, func(q *Queries) error {
		row, err := q.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		merged := changes.Apply(toCoreEntry(row))
		n, err := q.UpdateEntry(ctx, UpdateEntryParams{
			ID:       id,
			Date:     merged.Date,
			Category: nullString(merged.Category),
			Hours:    int64(merged.Hours),
			Minutes:  int64(merged.Minutes),
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Entry updated", "id", id)
	return id, nil
}

// DeleteEntry removes id. Missing ids are not an error.
func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id int64) error {
	if err := r.queries.DeleteEntry(ctx, id); err != nil {
		return classify(fmt.Sprintf("delete entry %d", id), err)
	}

	slog.InfoContext(ctx, "Entry deleted", "id", id)
	return nil
}

// GetEntriesInDateRange returns entries with start <= date <= end, ordered by
// date then id.
func (r *SQLiteRepository) GetEntriesInDateRange(ctx context.Context, start, end string) ([]core.Entry, error) {
	rows, err := r.queries.ListEntriesByDateRange(ctx, start, end)
	if err != nil {
		return nil, classify("list entries by date", err)
	}

	slog.DebugContext(ctx, "Listed entries by date range",
		"start", start,
		"end", end,
		"count", len(rows))

	return toCoreEntries(rows), nil
}

// GetEntriesByCategory returns entries labelled with name, ordered by date.
func (r *SQLiteRepository) GetEntriesByCategory(ctx context.Context, name string) ([]core.Entry, error) {
	rows, err := r.queries.ListEntriesByCategory(ctx, name)
	if err != nil {
		return nil, classify("list entries by category", err)
	}
	return toCoreEntries(rows), nil
}

// CountEntries returns the total number of stored entries.
func (r *SQLiteRepository) CountEntries(ctx context.Context) (int64, error) {
	n, err := r.queries.CountEntries(ctx)
	if err != nil {
		return 0, classify("count entries", err)
	}
	return n, nil
}

// AddCategory returns core.ErrDuplicate if name is taken.
func (r *SQLiteRepository) AddCategory(ctx context.Context, name string) (int64, error) {
	var id int64
	op := fmt.Sprintf("add category %q", name)
	err := r.withTx(ctx, op, func(q *Queries) error {
		if _, err := q.GetCategoryByName(ctx, name); err == nil {
			return core.ErrDuplicate
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		var err error
		id, err = q.CreateCategory(ctx, name)
		return err
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Category saved to SQLite", "id", id, "name", name)
	return id, nil
}

// GetCategories returns every category in creation order.
func (r *SQLiteRepository) GetCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, classify("list categories", err)
	}

	categories := make([]core.Category, len(rows))
	for i, c := range rows {
		categories[i] = core.Category{ID: c.ID, Name: c.Name}
	}
	return categories, nil
}

// DeleteCategory removes the category and un-labels its entries.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	_, err := r.DeleteCategoryCascade(ctx, id)
	return err
}

// DeleteCategoryCascade looks up the category name, nulls the category of
// every entry carrying it and deletes the category, all in one transaction.
// It returns how many entries were rewritten. A missing id is a no-op.
func (r *SQLiteRepository) DeleteCategoryCascade(ctx context.Context, id int64) (int64, error) {
	var (
		name    string
		cleared int64
	)
	op := fmt.Sprintf("delete category %d", id)
	err := r.withTx(ctx, op, func(q *Queries) error {
		cat, err := q.GetCategory(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		name = cat.Name

		cleared, err = q.ClearEntryCategory(ctx, cat.Name)
		if err != nil {
			return err
		}
		return q.DeleteCategory(ctx, id)
	})
	if err != nil {
		return 0, err
	}

	if name != "" {
		slog.InfoContext(ctx, "Category deleted",
			"id", id,
			"name", name,
			"entries_cleared", cleared)
	}
	return cleared, nil
}

// SchemaVersion reports the applied migration version.
func (r *SQLiteRepository) SchemaVersion(ctx context.Context) (uint, error) {
	version, dirty, err := r.queries.GetSchemaVersion(ctx)
	if err != nil {
		return 0, classify("read schema version", err)
	}
	if dirty {
		return version, &StorageError{Op: "read schema version", Err: fmt.Errorf("schema version %d is dirty", version)}
	}
	return version, nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, op string, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	defer tx.Rollback()

	if err := fn(r.queries.WithTx(tx)); err != nil {
		return classify(op, err)
	}
	if err := tx.Commit(); err != nil {
		return classify(op, err)
	}
	return nil
}

// classify maps driver errors onto the core taxonomy. Anything that is not a
// missing row or a name collision becomes a StorageError.
func classify(op string, err error) error {
	var se *StorageError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &se):
		return err
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, core.ErrNotFound):
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	case errors.Is(err, core.ErrDuplicate), isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, core.ErrDuplicate)
	default:
		return &StorageError{Op: op, Err: err}
	}
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toCoreEntry(row Entry) core.Entry {
	return core.Entry{
		ID:       row.ID,
		Date:     row.Date,
		Category: row.Category.String,
		Hours:    int(row.Hours),
		Minutes:  int(row.Minutes),
	}
}

func toCoreEntries(rows []Entry) []core.Entry {
	entries := make([]core.Entry, len(rows))
	for i, row := range rows {
		entries[i] = toCoreEntry(row)
	}
	return entries
}
