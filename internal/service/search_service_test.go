package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dianehq/diane/internal/model"
	appErr "github.com/dianehq/diane/internal/pkg/errors"
)

type fakeTranscriptStore struct {
	items []*model.Transcript
	seen  []model.DateWindow
}

func (f *fakeTranscriptStore) ListByDateRanges(ctx context.Context, ranges []model.DateWindow) ([]*model.Transcript, error) {
	f.seen = ranges
	if len(ranges) == 0 {
		return f.items, nil
	}
	var out []*model.Transcript
	for _, item := range f.items {
		for _, r := range ranges {
			if !item.RecordingDate.Before(r.Start) && !item.RecordingDate.After(r.End) {
				out = append(out, item)
				break
			}
		}
	}
	return out, nil
}

type fakeKeywordStore struct {
	top    map[string]int
	called bool
}

func (f *fakeKeywordStore) TopKeywords(ctx context.Context, limit int) (map[string]int, error) {
	f.called = true
	return f.top, nil
}

type fakeChunkStore struct {
	matches []*model.ChunkMatch
}

func (f *fakeChunkStore) Search(ctx context.Context, embedding []float32, ranges []model.DateWindow, limit int) ([]*model.ChunkMatch, error) {
	if limit < len(f.matches) {
		return f.matches[:limit], nil
	}
	return f.matches, nil
}

type fakeQueryAI struct {
	params      *model.QueryParams
	answer      string
	answers     int
	lastContext string
}

func (f *fakeQueryAI) ParseQuery(ctx context.Context, q string) (*model.QueryParams, error) {
	return f.params, nil
}

func (f *fakeQueryAI) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeQueryAI) Answer(ctx context.Context, question string, context string) (string, error) {
	f.answers++
	f.lastContext = context
	return f.answer, nil
}

func (f *fakeQueryAI) MaxInputChars() int { return 0 }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestQueryCountsKeywordOccurrences(t *testing.T) {
	store := &fakeTranscriptStore{items: []*model.Transcript{
		{ID: "a", RecordingDate: day(2023, time.June, 5), Content: "Had pizza for lunch. The pizza was great."},
		{ID: "b", RecordingDate: day(2023, time.June, 6), Content: "Went for a run today."},
		{ID: "c", RecordingDate: day(2023, time.June, 7), Content: "Pizza again, I should stop."},
	}}
	aiStub := &fakeQueryAI{params: &model.QueryParams{
		Intent:       model.IntentCount,
		Keywords:     []string{"pizza"},
		CountRequest: true,
	}}
	svc := NewSearchService(store, &fakeKeywordStore{}, &fakeChunkStore{}, aiStub, SearchConfig{})

	resp, err := svc.Query(context.Background(), "how many times did I mention pizza?")
	require.NoError(t, err)
	require.NotNil(t, resp.Count)
	assert.Equal(t, model.IntentCount, resp.Intent)
	assert.Equal(t, 3, resp.Count.TotalMentions)
	assert.Equal(t, 3, resp.Count.Counts["pizza"])
	assert.Equal(t, []string{"2023-06-05", "2023-06-07"}, resp.Count.MatchingDates)
	assert.Contains(t, resp.Answer, "pizza")
}

func TestQueryCountHonorsDateFilter(t *testing.T) {
	store := &fakeTranscriptStore{items: []*model.Transcript{
		{ID: "a", RecordingDate: day(2023, time.June, 5), Content: "pizza pizza"},
		{ID: "b", RecordingDate: day(2023, time.July, 1), Content: "pizza"},
	}}
	aiStub := &fakeQueryAI{params: &model.QueryParams{
		Intent:      model.IntentCount,
		Keywords:    []string{"pizza"},
		DateFilters: []string{"June 2023"},
	}}
	svc := NewSearchService(store, &fakeKeywordStore{}, &fakeChunkStore{}, aiStub, SearchConfig{})

	resp, err := svc.Query(context.Background(), "how many times pizza in June 2023?")
	require.NoError(t, err)
	require.Len(t, store.seen, 1)
	assert.Equal(t, 2, resp.Count.TotalMentions)
	assert.Equal(t, []string{"2023-06-05"}, resp.Count.MatchingDates)
}

func TestQueryCountWithoutKeywords(t *testing.T) {
	aiStub := &fakeQueryAI{params: &model.QueryParams{Intent: model.IntentCount}}
	svc := NewSearchService(&fakeTranscriptStore{}, &fakeKeywordStore{}, &fakeChunkStore{}, aiStub, SearchConfig{})

	_, err := svc.Query(context.Background(), "how many times?")
	assert.ErrorIs(t, err, appErr.ErrNoKeywords)
}

func TestQueryRecallSynthesizesAnswer(t *testing.T) {
	chunks := &fakeChunkStore{matches: []*model.ChunkMatch{
		{TranscriptID: "a", ChunkIndex: 0, Content: "The doctor said to rest more.", RecordingDate: day(2023, time.October, 5), Score: 0.91},
		{TranscriptID: "b", ChunkIndex: 1, Content: "Scheduled a follow up visit.", RecordingDate: day(2023, time.October, 6), Score: 0.85},
	}}
	aiStub := &fakeQueryAI{
		params: &model.QueryParams{Intent: model.IntentRecall, Keywords: []string{"doctor"}},
		answer: "The doctor told you to rest more.",
	}
	svc := NewSearchService(&fakeTranscriptStore{}, &fakeKeywordStore{}, chunks, aiStub, SearchConfig{})

	resp, err := svc.Query(context.Background(), "what did the doctor say?")
	require.NoError(t, err)
	assert.Equal(t, "The doctor told you to rest more.", resp.Answer)
	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "October 5, 2023", resp.Sources[0].RecordingDate)
	assert.Equal(t, "a", resp.Sources[0].TranscriptID)

	// same question again comes from the answer cache
	_, err = svc.Query(context.Background(), "what did the doctor say?")
	require.NoError(t, err)
	assert.Equal(t, 1, aiStub.answers)
}

func TestQueryRecallNoMatches(t *testing.T) {
	aiStub := &fakeQueryAI{params: &model.QueryParams{Intent: model.IntentRecall}}
	svc := NewSearchService(&fakeTranscriptStore{}, &fakeKeywordStore{}, &fakeChunkStore{}, aiStub, SearchConfig{})

	resp, err := svc.Query(context.Background(), "what about unicorns?")
	require.NoError(t, err)
	assert.Equal(t, noMemoriesAnswer, resp.Answer)
	assert.Empty(t, resp.Sources)
	assert.Zero(t, aiStub.answers)
}

func TestQueryInsightUsesKeywordProfile(t *testing.T) {
	chunks := &fakeChunkStore{matches: []*model.ChunkMatch{
		{TranscriptID: "a", ChunkIndex: 0, Content: "Long day at the gym.", RecordingDate: day(2023, time.June, 1), Score: 0.8},
	}}
	keywords := &fakeKeywordStore{top: map[string]int{"gym": 12, "pizza": 8}}
	aiStub := &fakeQueryAI{
		params: &model.QueryParams{Intent: model.IntentInsight},
		answer: "You spend a lot of time at the gym.",
	}
	svc := NewSearchService(&fakeTranscriptStore{}, keywords, chunks, aiStub, SearchConfig{})

	resp, err := svc.Query(context.Background(), "what patterns do you see in my days?")
	require.NoError(t, err)
	assert.True(t, keywords.called)
	assert.Contains(t, aiStub.lastContext, "gym (12)")
	assert.Contains(t, aiStub.lastContext, "pizza (8)")
	assert.Equal(t, "You spend a lot of time at the gym.", resp.Answer)
}

func TestQueryInsightWithKeywordsSkipsProfile(t *testing.T) {
	chunks := &fakeChunkStore{matches: []*model.ChunkMatch{
		{TranscriptID: "a", ChunkIndex: 0, Content: "Gym session notes.", RecordingDate: day(2023, time.June, 1), Score: 0.8},
	}}
	keywords := &fakeKeywordStore{top: map[string]int{"gym": 12}}
	aiStub := &fakeQueryAI{
		params: &model.QueryParams{Intent: model.IntentInsight, Keywords: []string{"gym"}},
		answer: "ok",
	}
	svc := NewSearchService(&fakeTranscriptStore{}, keywords, chunks, aiStub, SearchConfig{})

	_, err := svc.Query(context.Background(), "how is my gym habit going?")
	require.NoError(t, err)
	assert.False(t, keywords.called)
	assert.NotContains(t, aiStub.lastContext, "Frequent topics")
}

func TestTopicProfileOrdersByFrequency(t *testing.T) {
	line := topicProfile(map[string]int{"pizza": 8, "gym": 12, "dentist": 8})
	assert.Equal(t, "Frequent topics across all memories: gym (12), dentist (8), pizza (8)", line)
}

func TestQueryEmptyInput(t *testing.T) {
	svc := NewSearchService(&fakeTranscriptStore{}, &fakeKeywordStore{}, &fakeChunkStore{}, &fakeQueryAI{}, SearchConfig{})
	_, err := svc.Query(context.Background(), "   ")
	assert.ErrorIs(t, err, appErr.ErrEmptyQuery)
}

func TestBuildContextTruncates(t *testing.T) {
	matches := []*model.ChunkMatch{
		{Content: "first memory body", RecordingDate: day(2023, time.June, 1)},
		{Content: "second memory body", RecordingDate: day(2023, time.June, 2)},
	}
	full := buildContext(matches, 10000)
	assert.Contains(t, full, "On June 1, 2023: first memory body")
	assert.Contains(t, full, "On June 2, 2023: second memory body")

	short := buildContext(matches, 40)
	assert.Contains(t, short, "first memory body")
	assert.NotContains(t, short, "second memory body")
}
