package model

import "time"

// TranscriptChunk is the unit of embedding. A nil Embedding marks the chunk
// as pending; the backfill job picks it up later.
type TranscriptChunk struct {
	TranscriptID string    `json:"transcript_id"`
	ChunkIndex   int       `json:"chunk_index"`
	Content      string    `json:"content"`
	TokenCount   int       `json:"token_count"`
	Embedding    []float32 `json:"embedding,omitempty"`
	EmbedModel   string    `json:"embed_model"`
	Mtime        int64     `json:"mtime"`
}

// ChunkMatch is a similarity search hit joined with its parent transcript.
type ChunkMatch struct {
	TranscriptID  string    `json:"transcript_id"`
	ChunkIndex    int       `json:"chunk_index"`
	Content       string    `json:"content"`
	Filename      string    `json:"filename"`
	RecordingDate time.Time `json:"recording_date"`
	Score         float32   `json:"score"`
}
