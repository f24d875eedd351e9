package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRecordingDate(t *testing.T) {
	now := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

	got := extractRecordingDate("2023-10-05_morning.mp3", now)
	assert.Equal(t, time.Date(2023, time.October, 5, 0, 0, 0, 0, time.UTC), got)

	got = extractRecordingDate("231005-evening.wav", now)
	assert.Equal(t, time.Date(2023, time.October, 5, 0, 0, 0, 0, time.UTC), got)

	got = extractRecordingDate("231005.m4a", now)
	assert.Equal(t, time.Date(2023, time.October, 5, 0, 0, 0, 0, time.UTC), got)

	// no recognizable prefix falls back to the ingest day
	got = extractRecordingDate("random-memo.mp3", now)
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), got)

	// seven leading digits is not a compact date
	got = extractRecordingDate("1234567.mp3", now)
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestKeywordFrequencies(t *testing.T) {
	content := "Pizza for lunch. The pizza was great, best PIZZA ever."
	items := keywordFrequencies("t1", content, []string{"pizza", "sushi"})
	require.Len(t, items, 2)
	assert.Equal(t, "pizza", items[0].Keyword)
	assert.Equal(t, 3, items[0].Frequency)
	// extracted but absent keywords still count once
	assert.Equal(t, 1, items[1].Frequency)
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "a-b_c.mp3", sanitizeKey("a b_c.mp3"))
	assert.Equal(t, "..-etc-passwd", sanitizeKey("../etc/passwd"))
}
