package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Entry is a row of the entries table.
type Entry struct {
	ID       int64
	Date     string
	Category sql.NullString
	Hours    int64
	Minutes  int64
}

// Category is a row of the categories table.
type Category struct {
	ID   int64
	Name string
}

const createEntry = `INSERT INTO entries (date, category, hours, minutes) VALUES (?, ?, ?, ?)`

type CreateEntryParams struct {
	Date     string
	Category sql.NullString
	Hours    int64
	Minutes  int64
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createEntry, arg.Date, arg.Category, arg.Hours, arg.Minutes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getEntry = `SELECT id, date, category, hours, minutes FROM entries WHERE id = ?`

func (q *Queries) GetEntry(ctx context.Context, id int64) (Entry, error) {
	row := q.db.QueryRowContext(ctx, getEntry, id)
	var i Entry
	err := row.Scan(&i.ID, &i.Date, &i.Category, &i.Hours, &i.Minutes)
	return i, err
}

const updateEntry = `UPDATE entries SET date = ?, category = ?, hours = ?, minutes = ? WHERE id = ?`

type UpdateEntryParams struct {
	ID       int64
	Date     string
	Category sql.NullString
	Hours    int64
	Minutes  int64
}

func (q *Queries) UpdateEntry(ctx context.Context, arg UpdateEntryParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateEntry, arg.Date, arg.Category, arg.Hours, arg.Minutes, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteEntry = `DELETE FROM entries WHERE id = ?`

func (q *Queries) DeleteEntry(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteEntry, id)
	return err
}

// Served by idx_entries_date; rowid breaks ties so the order is stable.
const listEntriesByDateRange = `SELECT id, date, category, hours, minutes
FROM entries
WHERE date BETWEEN ? AND ?
ORDER BY date, id`

func (q *Queries) ListEntriesByDateRange(ctx context.Context, start, end string) ([]Entry, error) {
	return q.listEntries(ctx, listEntriesByDateRange, start, end)
}

const listEntriesByCategory = `SELECT id, date, category, hours, minutes
FROM entries
WHERE category = ?
ORDER BY date, id`

func (q *Queries) ListEntriesByCategory(ctx context.Context, category string) ([]Entry, error) {
	return q.listEntries(ctx, listEntriesByCategory, category)
}

const countEntries = `SELECT COUNT(*) FROM entries`

func (q *Queries) CountEntries(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countEntries).Scan(&n)
	return n, err
}

const clearEntryCategory = `UPDATE entries SET category = NULL WHERE category = ?`

func (q *Queries) ClearEntryCategory(ctx context.Context, category string) (int64, error) {
	res, err := q.db.ExecContext(ctx, clearEntryCategory, category)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) listEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Entry
	for rows.Next() {
		var i Entry
		if err := rows.Scan(&i.ID, &i.Date, &i.Category, &i.Hours, &i.Minutes); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createCategory = `INSERT INTO categories (name) VALUES (?)`

func (q *Queries) CreateCategory(ctx context.Context, name string) (int64, error) {
	res, err := q.db.ExecContext(ctx, createCategory, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getCategory = `SELECT id, name FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategory, id)
	var i Category
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}

const getCategoryByName = `SELECT id, name FROM categories WHERE name = ?`

func (q *Queries) GetCategoryByName(ctx context.Context, name string) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategoryByName, name)
	var i Category
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}

const listCategories = `SELECT id, name FROM categories ORDER BY id`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteCategory, id)
	return err
}

const getSchemaVersion = `SELECT version, dirty FROM schema_migrations LIMIT 1`

func (q *Queries) GetSchemaVersion(ctx context.Context) (uint, bool, error) {
	var (
		version int64
		dirty   bool
	)
	err := q.db.QueryRowContext(ctx, getSchemaVersion).Scan(&version, &dirty)
	return uint(version), dirty, err
}
