// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dates converts free-form upstream date strings into absolute
// timestamps. Both collectors feed their raw date candidates through Parse.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timeNow is the clock used to resolve relative phrases. Declared as a var
// so tests can inject a fixed instant.
var timeNow = time.Now

// Fixed unit sizes for relative phrases. Deliberately approximate: a month
// is 30 days and a year 365, not calendar-aware.
var relativeUnits = map[string]time.Duration{
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
	"month":  30 * 24 * time.Hour,
	"year":   365 * 24 * time.Hour,
}

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var (
	relativePattern     = regexp.MustCompile(`(?i)^(?:about\s+)?(\d+)\s+(minute|hour|day|week|month|year)s?\s+ago$`)
	dayMonthYearPattern = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]+)\.?\s+(\d{4})$`)
	monthYearPattern    = regexp.MustCompile(`^([A-Za-z]+)\.?\s+(\d{4})$`)
	monthDayYearPattern = regexp.MustCompile(`^([A-Za-z]+)\.?\s+(\d{1,2}),?\s+(\d{4})$`)
	bareYearPattern     = regexp.MustCompile(`^(19|20)\d{2}$`)
)

// fallbackLayouts are tried, in order, when no heuristic matches.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
	time.RFC1123,
}

// heuristics are tried in priority order; the first match wins.
var heuristics = []func(string) (time.Time, bool){
	parseRelative,
	parseDayMonthYear,
	parseMonthYear,
	parseMonthDayYear,
	parseBareYear,
	parseFallback,
}

// Parse resolves a raw date string to an absolute instant. It returns
// ok=false for unparseable input, never an error. Absolute dates without an
// explicit time resolve to midnight UTC.
func Parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, h := range heuristics {
		if t, ok := h(raw); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseRelative handles "N unit(s) ago" phrases (optionally "about "
// prefixed), "today", and "yesterday", resolved against the current instant.
func parseRelative(raw string) (time.Time, bool) {
	switch strings.ToLower(raw) {
	case "today":
		return timeNow().UTC(), true
	case "yesterday":
		return timeNow().UTC().Add(-24 * time.Hour), true
	}

	m := relativePattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	unit := relativeUnits[strings.ToLower(m[2])]
	return timeNow().UTC().Add(-time.Duration(n) * unit), true
}

// parseDayMonthYear handles "15 March 2023".
func parseDayMonthYear(raw string) (time.Time, bool) {
	m := dayMonthYearPattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := months[strings.ToLower(m[2])]
	if !ok {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])
	return makeDate(year, month, day)
}

// parseMonthYear handles "March 2023", resolving to the 1st of the month.
func parseMonthYear(raw string) (time.Time, bool) {
	m := monthYearPattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := months[strings.ToLower(m[1])]
	if !ok {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[2])
	return makeDate(year, month, 1)
}

// parseMonthDayYear handles "March 15, 2023".
func parseMonthDayYear(raw string) (time.Time, bool) {
	m := monthDayYearPattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := months[strings.ToLower(m[1])]
	if !ok {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	return makeDate(year, month, day)
}

// parseBareYear handles a lone 4-digit year in 1900-2099, resolving to
// January 1 UTC of that year.
func parseBareYear(raw string) (time.Time, bool) {
	if !bareYearPattern.MatchString(raw) {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(raw)
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
}

// parseFallback tries a list of common layouts before declaring failure.
func parseFallback(raw string) (time.Time, bool) {
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}
