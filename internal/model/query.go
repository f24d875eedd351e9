package model

import "time"

type QueryIntent string

const (
	IntentRecall  QueryIntent = "recall"
	IntentCount   QueryIntent = "count"
	IntentInsight QueryIntent = "insight"
	IntentGeneral QueryIntent = "general"
)

// QueryParams is derived per query and never persisted.
type QueryParams struct {
	Intent       QueryIntent `json:"query_type"`
	DateFilters  []string    `json:"date_filters"`
	Keywords     []string    `json:"keywords"`
	TimeRange    string      `json:"time_range"`
	CountRequest bool        `json:"count_request"`
}

// DateWindow is a resolved recording-date interval handed to the repos.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

type MemoryExcerpt struct {
	TranscriptID  string  `json:"transcript_id"`
	RecordingDate string  `json:"recording_date"`
	Snippet       string  `json:"snippet"`
	Score         float32 `json:"score"`
}

type CountResult struct {
	Counts        map[string]int `json:"counts"`
	TotalMentions int            `json:"total_mentions"`
	MatchingDates []string       `json:"matching_dates"`
	DateRange     string         `json:"date_range"`
}

type QueryResponse struct {
	Intent  QueryIntent     `json:"intent"`
	Answer  string          `json:"answer,omitempty"`
	Sources []MemoryExcerpt `json:"sources,omitempty"`
	Count   *CountResult    `json:"count,omitempty"`
}
