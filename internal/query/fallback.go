package query

import (
	"regexp"
	"strings"

	"github.com/dianehq/diane/internal/model"
)

var (
	monthPattern = `(?:january|february|march|april|may|june|july|august|september|october|november|december)`

	isoDateRe    = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	slashDateRe  = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	fullDateRe   = regexp.MustCompile(`(?i)\b` + monthPattern + `\s+\d{1,2},?\s+\d{4}\b`)
	monthYearRe  = regexp.MustCompile(`(?i)\b` + monthPattern + `\s+\d{4}\b`)
	relativeRe   = regexp.MustCompile(`(?i)\blast\s+(?:week|month|year)\b`)
	todayRe      = regexp.MustCompile(`(?i)\b(?:today|yesterday)\b`)
	inYearRe     = regexp.MustCompile(`(?i)\bin\s+(\d{4})\b`)
	// "may" is skipped as a bare month, it is almost always the verb.
	bareMonthRe = regexp.MustCompile(`(?i)\b(?:january|february|march|april|june|july|august|september|october|november|december)\b`)
)

var countWords = []string{"how many", "how often", "count", "frequency", "number of times"}

var insightWords = []string{"pattern", "patterns", "trend", "trends", "insight", "insights", "analyze", "analysis", "summarize", "summary", "theme", "themes"}

var stopwords = map[string]bool{
	"the": true, "and": true, "that": true, "this": true, "with": true,
	"from": true, "have": true, "what": true, "when": true, "where": true,
	"which": true, "about": true, "did": true, "does": true, "was": true,
	"were": true, "will": true, "would": true, "could": true, "should": true,
	"tell": true, "times": true, "time": true, "many": true, "much": true,
	"last": true, "week": true, "month": true, "year": true, "today": true,
	"yesterday": true, "mention": true, "mentioned": true, "talk": true,
	"talked": true, "say": true, "said": true, "recording": true,
	"recordings": true, "memory": true, "memories": true, "remember": true,
}

// ScanDates pulls every date expression out of free text, most specific
// forms first so "June 5, 2023" is not also reported as "June".
func ScanDates(text string) []string {
	type span struct{ start, end int }
	var spans []span
	var found []string
	overlaps := func(start, end int) bool {
		for _, s := range spans {
			if start < s.end && end > s.start {
				return true
			}
		}
		return false
	}
	collect := func(re *regexp.Regexp) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if overlaps(loc[0], loc[1]) {
				continue
			}
			spans = append(spans, span{loc[0], loc[1]})
			found = append(found, strings.TrimSpace(text[loc[0]:loc[1]]))
		}
	}
	collect(isoDateRe)
	collect(slashDateRe)
	collect(fullDateRe)
	collect(monthYearRe)
	collect(relativeRe)
	collect(todayRe)
	for _, loc := range inYearRe.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(loc[0], loc[1]) {
			continue
		}
		spans = append(spans, span{loc[0], loc[1]})
		found = append(found, text[loc[2]:loc[3]])
	}
	collect(bareMonthRe)
	return found
}

// HeuristicParse is the regex fallback when the model cannot produce
// structured parameters. Count and insight markers win over bare dates.
func HeuristicParse(queryText string) *model.QueryParams {
	lower := strings.ToLower(queryText)
	params := &model.QueryParams{Intent: model.IntentGeneral}

	params.DateFilters = ScanDates(queryText)
	if m := relativeRe.FindString(queryText); m != "" {
		params.TimeRange = strings.ToLower(m)
	} else if m := monthYearRe.FindString(queryText); m != "" {
		params.TimeRange = strings.ToLower(m)
	}

	for _, w := range countWords {
		if strings.Contains(lower, w) {
			params.CountRequest = true
			break
		}
	}

	params.Keywords = extractTokens(lower)

	switch {
	case params.CountRequest:
		params.Intent = model.IntentCount
	case containsAny(lower, insightWords):
		params.Intent = model.IntentInsight
	case len(params.DateFilters) > 0 || params.TimeRange != "":
		params.Intent = model.IntentRecall
	}
	return params
}

func extractTokens(lower string) []string {
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	seen := make(map[string]bool)
	var keywords []string
	for _, token := range tokens {
		if len(token) <= 3 || stopwords[token] || seen[token] {
			continue
		}
		seen[token] = true
		keywords = append(keywords, token)
	}
	return keywords
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
