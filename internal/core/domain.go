package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the on-disk and wire representation of an entry date.
const DateLayout = "2006-01-02"

const (
	MaxHours   = 99
	MaxMinutes = 59
)

type (
	// Entry is a single logged duration on a calendar day.
	Entry struct {
		ID       int64
		Date     string // YYYY-MM-DD
		Category string // empty means uncategorized
		Hours    int
		Minutes  int
	}

	// EntryChanges carries a partial update. Nil fields are left untouched;
	// a Category pointing at "" clears the category.
	EntryChanges struct {
		Date     *string
		Category *string
		Hours    *int
		Minutes  *int
	}

	Category struct {
		ID   int64
		Name string
	}
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("already exists")

	ErrZeroDuration      = fmt.Errorf("%w: duration cannot be 0h 0m", ErrValidation)
	ErrInvalidHours      = fmt.Errorf("%w: hours must be between 0 and %d", ErrValidation, MaxHours)
	ErrInvalidMinutes    = fmt.Errorf("%w: minutes must be between 0 and %d", ErrValidation, MaxMinutes)
	ErrInvalidDate       = fmt.Errorf("%w: date must be a valid YYYY-MM-DD day", ErrValidation)
	ErrInvalidMonth      = fmt.Errorf("%w: month must be between 1 and 12", ErrValidation)
	ErrEmptyCategoryName = fmt.Errorf("%w: category name cannot be empty", ErrValidation)
	ErrUnknownCategory   = fmt.Errorf("%w: category does not exist", ErrValidation)
)

// ParseDate parses an ISO day. The result is midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DurationMinutes is hours*60 + minutes.
func (e Entry) DurationMinutes() int {
	return e.Hours*60 + e.Minutes
}

// Uncategorized reports whether the entry carries no category label.
func (e Entry) Uncategorized() bool {
	return e.Category == ""
}

func (e Entry) Validate() error {
	if _, err := ParseDate(e.Date); err != nil {
		return err
	}
	if e.Hours < 0 || e.Hours > MaxHours {
		return ErrInvalidHours
	}
	if e.Minutes < 0 || e.Minutes > MaxMinutes {
		return ErrInvalidMinutes
	}
	if e.Hours == 0 && e.Minutes == 0 {
		return ErrZeroDuration
	}
	return nil
}

// Apply returns a copy of e with the non-nil changes merged in.
func (c EntryChanges) Apply(e Entry) Entry {
	if c.Date != nil {
		e.Date = *c.Date
	}
	if c.Category != nil {
		e.Category = *c.Category
	}
	if c.Hours != nil {
		e.Hours = *c.Hours
	}
	if c.Minutes != nil {
		e.Minutes = *c.Minutes
	}
	return e
}

// IsEmpty reports whether no field is set.
func (c EntryChanges) IsEmpty() bool {
	return c.Date == nil && c.Category == nil && c.Hours == nil && c.Minutes == nil
}

// NormalizeCategoryName trims surrounding whitespace and rejects empty names.
func NormalizeCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyCategoryName
	}
	return name, nil
}
