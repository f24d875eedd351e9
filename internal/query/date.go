package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// DateRange is a closed interval over recording dates. IsRange marks
// multi-day spans; single days still carry a full-day interval.
type DateRange struct {
	Start   time.Time
	End     time.Time
	IsRange bool
}

var dayLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
}

var monthYearLayouts = []string{
	"January 2006",
	"Jan 2006",
}

var monthLayouts = []string{
	"January",
	"Jan",
}

// ParseNaturalDate resolves a natural-language date expression into a range.
// Supported forms mirror what people actually say about their recordings:
// today, yesterday, last week/month/year, explicit dates in common layouts,
// month plus year, a bare month (current year), and a bare year.
func ParseNaturalDate(input string, now time.Time) (DateRange, bool) {
	normalized := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(input))), " ")
	if normalized == "" {
		return DateRange{}, false
	}

	switch normalized {
	case "today":
		return dayRange(now), true
	case "yesterday":
		return dayRange(now.AddDate(0, 0, -1)), true
	case "last week":
		return spanRange(now.AddDate(0, 0, -7), now), true
	case "last month":
		return spanRange(now.AddDate(0, 0, -30), now), true
	case "last year":
		return spanRange(now.AddDate(0, 0, -365), now), true
	}

	titled := titleWords(normalized)
	for _, layout := range dayLayouts {
		if t, err := time.ParseInLocation(layout, titled, now.Location()); err == nil {
			return dayRange(t), true
		}
	}
	for _, layout := range monthYearLayouts {
		if t, err := time.ParseInLocation(layout, titled, now.Location()); err == nil {
			return monthRange(t), true
		}
	}
	for _, layout := range monthLayouts {
		if t, err := time.ParseInLocation(layout+" 2006", fmt.Sprintf("%s %d", titled, now.Year()), now.Location()); err == nil {
			return monthRange(t), true
		}
	}
	if year, err := strconv.Atoi(normalized); err == nil && year >= 1900 && year <= 2200 {
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, now.Location())
		r := spanRange(start, start.AddDate(1, 0, 0).Add(-time.Nanosecond))
		return r, true
	}
	if rest, ok := strings.CutPrefix(normalized, "in "); ok {
		return ParseNaturalDate(rest, now)
	}
	return DateRange{}, false
}

// ResolveFilters parses every date filter plus the time range expression,
// dropping duplicates and anything unparseable.
func ResolveFilters(filters []string, timeRange string, now time.Time) []DateRange {
	seen := make(map[string]bool)
	var ranges []DateRange
	add := func(input string) {
		r, ok := ParseNaturalDate(input, now)
		if !ok {
			return
		}
		key := r.Start.Format(time.RFC3339) + "/" + r.End.Format(time.RFC3339)
		if seen[key] {
			return
		}
		seen[key] = true
		ranges = append(ranges, r)
	}
	for _, filter := range filters {
		add(filter)
	}
	if timeRange != "" {
		add(timeRange)
	}
	return ranges
}

// Describe renders a range the way a person would say it.
func Describe(r DateRange) string {
	sameDay := r.Start.Year() == r.End.Year() && r.Start.YearDay() == r.End.YearDay()
	if sameDay {
		return r.Start.Format("January 2, 2006")
	}
	if r.Start.Year() == r.End.Year() && r.Start.Month() == r.End.Month() {
		return fmt.Sprintf("%s - %s", r.Start.Format("January 2"), r.End.Format("2, 2006"))
	}
	if r.Start.Year() == r.End.Year() {
		return fmt.Sprintf("%s - %s", r.Start.Format("January 2"), r.End.Format("January 2, 2006"))
	}
	return fmt.Sprintf("%s - %s", r.Start.Format("January 2, 2006"), r.End.Format("January 2, 2006"))
}

func DescribeAll(ranges []DateRange) string {
	if len(ranges) == 0 {
		return "all time"
	}
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		parts = append(parts, Describe(r))
	}
	return strings.Join(parts, ", ")
}

func dayRange(t time.Time) DateRange {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return DateRange{Start: start, End: start.AddDate(0, 0, 1).Add(-time.Nanosecond)}
}

func spanRange(start, end time.Time) DateRange {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location()).AddDate(0, 0, 1).Add(-time.Nanosecond)
	return DateRange{Start: s, End: e, IsRange: true}
}

func monthRange(t time.Time) DateRange {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return DateRange{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond), IsRange: true}
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
