package model

import "time"

type Transcript struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	RecordingDate   time.Time `json:"recording_date"`
	Content         string    `json:"content"`
	WordCount       int       `json:"word_count"`
	DurationSeconds float64   `json:"duration_seconds"`
	AudioKey        string    `json:"audio_key"`
	TranscriptKey   string    `json:"transcript_key"`
	Ctime           int64     `json:"ctime"`
	Mtime           int64     `json:"mtime"`
}

type TranscriptKeyword struct {
	TranscriptID string `json:"transcript_id"`
	Keyword      string `json:"keyword"`
	Frequency    int    `json:"frequency"`
}
