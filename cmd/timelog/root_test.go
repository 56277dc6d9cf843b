package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"timelog/internal/core"
)

// harness runs commands against one temporary database with a fixed clock.
type harness struct {
	t   *testing.T
	now time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("TIMELOG_DB_PATH", filepath.Join(t.TempDir(), "timelog.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	return &harness{t: t, now: time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	a := &app{now: func() time.Time { return h.now }, stdout: &out, stderr: &errOut}
	err := run(context.Background(), args, a)
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("timelog %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestAddAndMonth(t *testing.T) {
	h := newHarness(t)

	h.mustRun("category", "add", "Study")
	out := h.mustRun("add", "--hours", "1", "--minutes", "30", "--category", "Study")
	if !strings.Contains(out, "2025-03-15 1h 30m [Study]") {
		t.Fatalf("add output = %q", out)
	}
	h.mustRun("add", "--date", "2025-03-01", "-d", "45m", "-c", "Study")
	h.mustRun("add", "--date", "2025-02-28", "-d", "2h")

	out = h.mustRun("month")
	for _, want := range []string{"2025-03 (2025-03-01 to 2025-03-31)", "Study", "2h 15m", "Total"} {
		if !strings.Contains(out, want) {
			t.Errorf("month output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "2025-02-28") {
		t.Errorf("month output includes February entry:\n%s", out)
	}
	if strings.Index(out, "2025-03-01") > strings.Index(out, "2025-03-15") {
		t.Errorf("entries not ascending:\n%s", out)
	}

	out = h.mustRun("month", "--offset", "-1", "--totals")
	if !strings.Contains(out, "2025-02") || !strings.Contains(out, "Total  2h 0m") {
		t.Errorf("previous month output:\n%s", out)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"zero duration", []string{"add"}, core.ErrZeroDuration},
		{"hours out of range", []string{"add", "--hours", "100"}, core.ErrInvalidHours},
		{"bad date", []string{"add", "--date", "2025-13-01", "--hours", "1"}, core.ErrInvalidDate},
		{"unknown category", []string{"add", "--hours", "1", "-c", "Nope"}, core.ErrUnknownCategory},
		{"bad duration", []string{"add", "-d", "soon"}, core.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if exitCode(err) != 1 {
				t.Fatalf("exitCode = %d, want 1", exitCode(err))
			}
		})
	}
}

func TestEditAndRm(t *testing.T) {
	h := newHarness(t)
	h.mustRun("category", "add", "Work")
	h.mustRun("add", "--hours", "1")

	out := h.mustRun("edit", "1", "--minutes", "15", "--category", "Work")
	if !strings.Contains(out, "entry 1: 2025-03-15 1h 15m [Work]") {
		t.Fatalf("edit output = %q", out)
	}

	out = h.mustRun("edit", "1", "--clear-category")
	if strings.Contains(out, "[Work]") {
		t.Fatalf("category not cleared: %q", out)
	}

	if _, err := h.run("edit", "1"); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("edit without flags error = %v", err)
	}
	if _, err := h.run("edit", "99", "--hours", "2"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("edit missing error = %v", err)
	}

	h.mustRun("rm", "1")
	h.mustRun("rm", "1")
	out = h.mustRun("month")
	if !strings.Contains(out, "No entries.") {
		t.Fatalf("entry not deleted:\n%s", out)
	}
}

func TestCategoryRmUncategorizesEntries(t *testing.T) {
	h := newHarness(t)
	h.mustRun("category", "add", "Meetings")
	for _, d := range []string{"2025-03-01", "2025-03-02", "2025-03-03"} {
		h.mustRun("add", "--date", d, "--hours", "1", "-c", "Meetings")
	}

	h.mustRun("category", "rm", "Meetings")

	out := h.mustRun("month")
	if strings.Contains(out, "Meetings") {
		t.Fatalf("Meetings still reported:\n%s", out)
	}
	if !strings.Contains(out, "Total  3h 0m") {
		t.Fatalf("entries lost in cascade:\n%s", out)
	}

	out = h.mustRun("category", "ls")
	if !strings.Contains(out, "No categories.") {
		t.Fatalf("category ls = %q", out)
	}
	h.mustRun("category", "add", "Meetings")
}

func TestCategoryDuplicate(t *testing.T) {
	h := newHarness(t)
	h.mustRun("category", "add", "Work")
	_, err := h.run("category", "add", " Work ")
	if !errors.Is(err, core.ErrDuplicate) {
		t.Fatalf("error = %v, want ErrDuplicate", err)
	}
}

func TestCategoryListSortedByName(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		h.mustRun("category", "add", name)
	}
	out := h.mustRun("category", "ls")
	if !(strings.Index(out, "Alpha") < strings.Index(out, "Mid") && strings.Index(out, "Mid") < strings.Index(out, "Zeta")) {
		t.Fatalf("categories not sorted:\n%s", out)
	}
}

func TestYear(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "--date", "2024-09-01", "--hours", "1")
	h.mustRun("add", "--date", "2025-08-31", "--minutes", "30")
	h.mustRun("add", "--date", "2025-09-01", "--hours", "4")

	out := h.mustRun("year", "2025-08-15", "--totals")
	if !strings.Contains(out, "2024/2025 (2024-09-01 to 2025-08-31)") || !strings.Contains(out, "Total  1h 30m") {
		t.Fatalf("year output:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("version")
	if !strings.Contains(out, fmt.Sprintf("timelog %s (schema 2/2", Version)) {
		t.Fatalf("version output = %q", out)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrZeroDuration, 1},
		{fmt.Errorf("wrapped: %w", core.ErrNotFound), 1},
		{core.ErrDuplicate, 1},
		{errors.New("disk on fire"), 2},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestDescribeEntry(t *testing.T) {
	tests := []struct {
		e    core.Entry
		want string
	}{
		{core.Entry{ID: 3, Date: "2025-03-10", Hours: 1, Minutes: 30, Category: "Study"}, "entry 3: 2025-03-10 1h 30m [Study]"},
		{core.Entry{ID: 4, Date: "2025-03-11", Minutes: 5}, "entry 4: 2025-03-11 0h 5m"},
	}
	for _, tt := range tests {
		if got := describeEntry(tt.e); got != tt.want {
			t.Errorf("describeEntry(%+v) = %q, want %q", tt.e, got, tt.want)
		}
	}
}

func TestAddTrimsCategory(t *testing.T) {
	h := newHarness(t)
	h.mustRun("category", "add", "Work")

	out := h.mustRun("add", "--hours", "1", "-c", " Work ")
	if !strings.Contains(out, "[Work]") {
		t.Fatalf("add output = %q", out)
	}
}
