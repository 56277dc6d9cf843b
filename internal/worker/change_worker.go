package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"timelog/internal/amqp"
	"timelog/internal/core"
)

// RecordReader is the read side of the store a ChangeWorker needs.
type RecordReader interface {
	GetEntry(ctx context.Context, id int64) (core.Entry, error)
	GetCategories(ctx context.Context) ([]core.Category, error)
}

// ChangeWorker turns change notifications into one human-readable line each,
// reading the current record back from the store.
type ChangeWorker struct {
	store RecordReader
	out   io.Writer

	mu sync.Mutex // guards out
}

func NewChangeWorker(store RecordReader, out io.Writer) *ChangeWorker {
	return &ChangeWorker{store: store, out: out}
}

// HandleChange is an amqp consumer handler. A returned error retries the
// message once, so only write and store failures are reported.
func (w *ChangeWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.DebugContext(ctx, "Processing change message",
		"kind", msg.Kind,
		"id", msg.ID)

	detail, err := w.describe(ctx, msg)
	if err != nil {
		return fmt.Errorf("resolve %s %d: %w", msg.Kind, msg.ID, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = fmt.Fprintf(w.out, "%s\t%s\t%d\t%s\n",
		msg.Timestamp.Local().Format(time.DateTime), msg.Kind, msg.ID, detail)
	return err
}

func (w *ChangeWorker) describe(ctx context.Context, msg *amqp.ChangeMessage) (string, error) {
	switch msg.Kind {
	case amqp.EntryCreated, amqp.EntryUpdated:
		e, err := w.store.GetEntry(ctx, msg.ID)
		if errors.Is(err, core.ErrNotFound) {
			// Deleted before we got to it.
			return "(gone)", nil
		}
		if err != nil {
			return "", err
		}
		return describeEntry(e), nil

	case amqp.CategoryCreated:
		cats, err := w.store.GetCategories(ctx)
		if err != nil {
			return "", err
		}
		for _, c := range cats {
			if c.ID == msg.ID {
				return c.Name, nil
			}
		}
		return "(gone)", nil

	default:
		return "", nil
	}
}

func describeEntry(e core.Entry) string {
	s := fmt.Sprintf("%s %s", e.Date, core.FormatDuration(e.DurationMinutes()))
	if !e.Uncategorized() {
		s += fmt.Sprintf(" [%s]", e.Category)
	}
	return s
}
