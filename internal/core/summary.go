package core

import (
	"fmt"
	"sort"
)

// CategoryTotal is the minutes accumulated under one category name.
type CategoryTotal struct {
	Name    string
	Minutes int
}

// Summary is the aggregated view of one time window.
type Summary struct {
	Label        string
	Window       Window
	Entries      []Entry
	Categories   []Category
	TotalMinutes int
	ByCategory   []CategoryTotal
}

// TotalMinutes sums hours*60+minutes over entries.
func TotalMinutes(entries []Entry) int {
	total := 0
	for _, e := range entries {
		total += e.DurationMinutes()
	}
	return total
}

// CategoryTotals groups entries by category name. Uncategorized entries are
// left out entirely.
func CategoryTotals(entries []Entry) map[string]int {
	totals := make(map[string]int)
	for _, e := range entries {
		if e.Uncategorized() {
			continue
		}
		totals[e.Category] += e.DurationMinutes()
	}
	return totals
}

// SortedCategoryTotals is CategoryTotals ordered by category name.
func SortedCategoryTotals(entries []Entry) []CategoryTotal {
	totals := CategoryTotals(entries)
	out := make([]CategoryTotal, 0, len(totals))
	for name, minutes := range totals {
		out = append(out, CategoryTotal{Name: name, Minutes: minutes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FormatDuration renders minutes as "2h 5m".
func FormatDuration(totalMinutes int) string {
	return fmt.Sprintf("%dh %dm", totalMinutes/60, totalMinutes%60)
}

// SortEntries orders entries by date, then id. The slice is sorted in place.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].ID < entries[j].ID
	})
}

// NewSummary folds entries into a Summary for the given window.
func NewSummary(label string, w Window, entries []Entry, categories []Category) Summary {
	return Summary{
		Label:        label,
		Window:       w,
		Entries:      entries,
		Categories:   categories,
		TotalMinutes: TotalMinutes(entries),
		ByCategory:   SortedCategoryTotals(entries),
	}
}
