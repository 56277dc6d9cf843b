package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"timelog/internal/amqp"
	"timelog/internal/cache"
	"timelog/internal/core"
	applog "timelog/internal/log"
)

// Store is the persistence surface the service needs. It is satisfied by
// *storage.SQLiteRepository.
type Store interface {
	AddEntry(ctx context.Context, e core.Entry) (int64, error)
	GetEntry(ctx context.Context, id int64) (core.Entry, error)
	UpdateEntry(ctx context.Context, id int64, changes core.EntryChanges) (int64, error)
	DeleteEntry(ctx context.Context, id int64) error
	GetEntriesInDateRange(ctx context.Context, start, end string) ([]core.Entry, error)
	GetEntriesByCategory(ctx context.Context, name string) ([]core.Entry, error)
	AddCategory(ctx context.Context, name string) (int64, error)
	GetCategories(ctx context.Context) ([]core.Category, error)
	DeleteCategoryCascade(ctx context.Context, id int64) (int64, error)
}

// ChangePublisher announces committed mutations. It is satisfied by *amqp.Client.
type ChangePublisher interface {
	PublishChange(ctx context.Context, kind amqp.ChangeKind, id int64) error
}

// EntryService orchestrates entry and category operations across the store,
// the summary cache and the optional change publisher.
type EntryService struct {
	store     Store
	publisher ChangePublisher
	summaries cache.Cache[core.Window, core.Summary]

	// mu serializes mutations so category checks and writes do not interleave.
	mu sync.Mutex
}

// NewEntryService wires a service. publisher and summaries may be nil.
func NewEntryService(store Store, publisher ChangePublisher, summaries cache.Cache[core.Window, core.Summary]) *EntryService {
	if summaries == nil {
		summaries = cache.Nop[core.Window, core.Summary]{}
	}
	return &EntryService{
		store:     store,
		publisher: publisher,
		summaries: summaries,
	}
}

// AddEntry validates e and stores it. Any ID on e is ignored and the category
// is trimmed of surrounding whitespace.
func (s *EntryService) AddEntry(ctx context.Context, e core.Entry) (int64, error) {
	e.ID = 0
	e.Category = strings.TrimSpace(e.Category)
	if err := e.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCategory(ctx, e.Category); err != nil {
		return 0, err
	}

	id, err := s.store.AddEntry(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("add entry: %w", err)
	}

	applog.NewStructuredLogger(s.logger(ctx)).LogEntryCreated(ctx, id, e.Date, e.Category, e.Hours, e.Minutes)
	s.changed(ctx, amqp.EntryCreated, id)
	return id, nil
}

// GetEntriesByMonth returns the entries of the given calendar month ordered
// by date ascending.
func (s *EntryService) GetEntriesByMonth(ctx context.Context, year, month int) ([]core.Entry, error) {
	start, end, err := core.MonthWindow(year, month)
	if err != nil {
		return nil, err
	}
	return s.store.GetEntriesInDateRange(ctx, start, end)
}

// GetEntriesByServiceYear returns the entries of the service year containing ref.
func (s *EntryService) GetEntriesByServiceYear(ctx context.Context, ref time.Time) ([]core.Entry, error) {
	start, end := core.ServiceYearWindow(ref)
	return s.store.GetEntriesInDateRange(ctx, start, end)
}

// GetEntriesByCategory returns every entry labelled name.
func (s *EntryService) GetEntriesByCategory(ctx context.Context, name string) ([]core.Entry, error) {
	return s.store.GetEntriesByCategory(ctx, name)
}

// GetEntry returns a single entry or core.ErrNotFound.
func (s *EntryService) GetEntry(ctx context.Context, id int64) (core.Entry, error) {
	return s.store.GetEntry(ctx, id)
}

// UpdateEntry applies changes to the entry with id. The merged record must
// pass the same validation as a new entry.
func (s *EntryService) UpdateEntry(ctx context.Context, id int64, changes core.EntryChanges) (int64, error) {
	if changes.Category != nil {
		trimmed := strings.TrimSpace(*changes.Category)
		changes.Category = &trimmed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return 0, err
	}
	merged := changes.Apply(existing)
	if err := merged.Validate(); err != nil {
		return 0, err
	}
	if changes.Category != nil {
		if err := s.checkCategory(ctx, merged.Category); err != nil {
			return 0, err
		}
	}
	if changes.IsEmpty() {
		return id, nil
	}

	if _, err := s.store.UpdateEntry(ctx, id, changes); err != nil {
		return 0, fmt.Errorf("update entry: %w", err)
	}

	fields := applog.NewFields().
		WithEntry(id, merged.Date, merged.Category, merged.Hours, merged.Minutes).
		WithOperation(applog.OpUpdate)
	s.logger(ctx).InfoContext(ctx, "Entry updated", fields.ToSlice()...)
	s.changed(ctx, amqp.EntryUpdated, id)
	return id, nil
}

// DeleteEntry removes id. Deleting a missing entry is not an error.
func (s *EntryService) DeleteEntry(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	s.changed(ctx, amqp.EntryDeleted, id)
	return nil
}

// AddCategory stores a new category. Surrounding whitespace is trimmed.
func (s *EntryService) AddCategory(ctx context.Context, name string) (int64, error) {
	name, err := core.NormalizeCategoryName(name)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.AddCategory(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("add category %q: %w", name, err)
	}

	s.changed(ctx, amqp.CategoryCreated, id)
	return id, nil
}

func (s *EntryService) GetCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.GetCategories(ctx)
}

// DeleteCategory removes the category and uncategorizes every entry that
// carried its name.
func (s *EntryService) DeleteCategory(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared, err := s.store.DeleteCategoryCascade(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	applog.NewStructuredLogger(s.logger(ctx)).LogCategoryDeleted(ctx, id, cleared)
	s.changed(ctx, amqp.CategoryDeleted, id)
	return nil
}

// MonthSummary returns entries and totals for a calendar month. Results are
// cached until the next mutation; callers must treat them as read-only.
func (s *EntryService) MonthSummary(ctx context.Context, year, month int) (core.Summary, error) {
	start, end, err := core.MonthWindow(year, month)
	if err != nil {
		return core.Summary{}, err
	}
	label := fmt.Sprintf("%04d-%02d", year, month)
	return s.summary(ctx, label, core.Window{Start: start, End: end})
}

// ServiceYearSummary returns entries and totals for the service year
// containing ref.
func (s *EntryService) ServiceYearSummary(ctx context.Context, ref time.Time) (core.Summary, error) {
	start, end := core.ServiceYearWindow(ref)
	label := core.ServiceYearLabel(ref)
	return s.summary(ctx, label, core.Window{Start: start, End: end})
}

func (s *EntryService) summary(ctx context.Context, label string, w core.Window) (core.Summary, error) {
	logger := s.logger(ctx)

	if sum, ok := s.summaries.Get(w); ok {
		fields := applog.NewFields().WithOperation(applog.OpSummary).WithWindow(w.Start, w.End)
		fields[applog.FieldCacheHit] = true
		logger.DebugContext(ctx, "Summary served from cache", fields.ToSlice()...)
		return sum, nil
	}

	var (
		entries    []core.Entry
		categories []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.store.GetEntriesInDateRange(gctx, w.Start, w.End)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.store.GetCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Summary{}, fmt.Errorf("summary %s: %w", label, err)
	}

	sum := core.NewSummary(label, w, entries, categories)
	s.summaries.Put(w, sum)

	fields := applog.NewFields().WithOperation(applog.OpSummary).WithWindow(w.Start, w.End)
	fields[applog.FieldCacheHit] = false
	fields[applog.FieldCount] = len(entries)
	logger.DebugContext(ctx, "Summary computed", fields.ToSlice()...)
	return sum, nil
}

// checkCategory rejects labels that name no stored category. Empty means
// uncategorized and is always accepted.
func (s *EntryService) checkCategory(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	categories, err := s.store.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	for _, c := range categories {
		if c.Name == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", core.ErrUnknownCategory, name)
}

// changed runs after every committed mutation.
func (s *EntryService) changed(ctx context.Context, kind amqp.ChangeKind, id int64) {
	s.summaries.Purge()

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, kind, id); err != nil {
		// The mutation is already committed locally.
		fields := applog.NewFields()
		fields[applog.FieldEventKind] = string(kind)
		applog.NewStructuredLogger(s.logger(ctx)).LogError(ctx, "Failed to publish change message", err, applog.OpPublish, fields)
	}
}

func (s *EntryService) logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentService)
}

// Close closes the store and the publisher when they hold resources.
func (s *EntryService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close entry service: %w", errors.Join(errs...))
	}

	return nil
}
