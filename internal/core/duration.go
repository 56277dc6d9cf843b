// Package core holds the timelog domain model: entries and categories,
// date windows and duration totals.
//
// This file turns user-supplied strings such as "1:30", "1h30m", "2h" or
// "45m" into the hours/minutes pair stored on an Entry.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseHoursMinutes converts a duration string to hours and minutes.
//
// Accepted forms:
//
//	"1:30"   -> 1, 30
//	"1h30m"  -> 1, 30
//	"1h 30m" -> 1, 30
//	"2h"     -> 2, 0
//	"45m"    -> 0, 45
//	"90m"    -> 1, 30 (minutes carry into hours)
//
// The result must pass the same range and zero-duration checks as Entry.
func ParseHoursMinutes(s string) (int, int, error) {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if s == "" {
		return 0, 0, ErrZeroDuration
	}

	var hours, minutes int
	if h, m, ok := strings.Cut(s, ":"); ok {
		hv, err := parseDigits(h)
		if err != nil {
			return 0, 0, ErrInvalidHours
		}
		mv, err := parseDigits(m)
		if err != nil || mv > MaxMinutes {
			return 0, 0, ErrInvalidMinutes
		}
		hours, minutes = hv, mv
	} else {
		rest := s
		if h, after, ok := strings.Cut(rest, "h"); ok {
			hv, err := parseDigits(h)
			if err != nil {
				return 0, 0, ErrInvalidHours
			}
			hours = hv
			rest = after
		}
		if rest != "" {
			m, ok := strings.CutSuffix(rest, "m")
			if !ok {
				return 0, 0, ErrInvalidMinutes
			}
			mv, err := parseDigits(m)
			if err != nil {
				return 0, 0, ErrInvalidMinutes
			}
			hours += mv / 60
			minutes = mv % 60
		}
	}

	if hours > MaxHours {
		return 0, 0, ErrInvalidHours
	}
	if hours == 0 && minutes == 0 {
		return 0, 0, ErrZeroDuration
	}
	return hours, minutes, nil
}

func parseDigits(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}
