package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dianehq/diane/internal/model"
	appErr "github.com/dianehq/diane/internal/pkg/errors"
	"github.com/dianehq/diane/internal/query"
)

const (
	defaultTopK            = 5
	defaultMaxContextChars = 8000
	topicProfileLimit      = 10
	noMemoriesAnswer       = "No memories found matching your query."
)

// The stores and the model sit behind narrow interfaces so the query
// pipeline can be exercised without a live database.
type TranscriptStore interface {
	ListByDateRanges(ctx context.Context, ranges []model.DateWindow) ([]*model.Transcript, error)
}

type KeywordStore interface {
	TopKeywords(ctx context.Context, limit int) (map[string]int, error)
}

type ChunkStore interface {
	Search(ctx context.Context, embedding []float32, ranges []model.DateWindow, limit int) ([]*model.ChunkMatch, error)
}

type QueryAI interface {
	ParseQuery(ctx context.Context, q string) (*model.QueryParams, error)
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	Answer(ctx context.Context, question string, context string) (string, error)
	MaxInputChars() int
}

type SearchConfig struct {
	TopK            int
	MaxContextChars int
}

type SearchService struct {
	transcripts TranscriptStore
	keywords    KeywordStore
	chunks      ChunkStore
	ai          QueryAI
	cache       *expirable.LRU[string, string]
	cfg         SearchConfig
	now         func() time.Time
}

func NewSearchService(transcripts TranscriptStore, keywords KeywordStore, chunks ChunkStore, aiClient QueryAI, cfg SearchConfig) *SearchService {
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = defaultMaxContextChars
	}
	return &SearchService{
		transcripts: transcripts,
		keywords:    keywords,
		chunks:      chunks,
		ai:          aiClient,
		cache:       expirable.NewLRU[string, string](1000, nil, time.Hour),
		cfg:         cfg,
		now:         time.Now,
	}
}

// ParseQuery resolves structured parameters for a question, falling back
// to the regex parser when the model fails. Dates found by regex are
// merged in either way, the model tends to miss compact forms.
func (s *SearchService) ParseQuery(ctx context.Context, q string) (*model.QueryParams, error) {
	q, err := s.cleanQuery(q)
	if err != nil {
		return nil, err
	}
	params, err := s.ai.ParseQuery(ctx, q)
	if err != nil {
		logutil.GetLogger(ctx).Warn("model query parsing failed, using fallback", zap.Error(err))
		params = query.HeuristicParse(q)
	}
	params.DateFilters = mergeDateFilters(params.DateFilters, query.ScanDates(q))
	return params, nil
}

func (s *SearchService) Query(ctx context.Context, q string) (*model.QueryResponse, error) {
	q, err := s.cleanQuery(q)
	if err != nil {
		return nil, err
	}
	params, err := s.ParseQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	now := s.now()
	ranges := query.ResolveFilters(params.DateFilters, params.TimeRange, now)
	windows := toWindows(ranges)

	logutil.GetLogger(ctx).Info("query parsed",
		zap.String("intent", string(params.Intent)),
		zap.Strings("keywords", params.Keywords),
		zap.Int("date_ranges", len(windows)),
	)

	switch params.Intent {
	case model.IntentCount:
		return s.count(ctx, params, windows, ranges)
	case model.IntentInsight:
		return s.insight(ctx, q, params, windows)
	default:
		return s.answer(ctx, q, params.Intent, windows, s.cfg.TopK, "")
	}
}

// insight reads wider than recall and, when the question names no topics
// of its own, grounds the synthesis on the aggregated keyword profile.
func (s *SearchService) insight(ctx context.Context, q string, params *model.QueryParams, windows []model.DateWindow) (*model.QueryResponse, error) {
	hint := ""
	if len(params.Keywords) == 0 && s.keywords != nil {
		top, err := s.keywords.TopKeywords(ctx, topicProfileLimit)
		if err != nil {
			logutil.GetLogger(ctx).Warn("failed to load keyword profile", zap.Error(err))
		} else if len(top) > 0 {
			hint = topicProfile(top)
		}
	}
	return s.answer(ctx, q, model.IntentInsight, windows, s.cfg.TopK*2, hint)
}

func (s *SearchService) count(ctx context.Context, params *model.QueryParams, windows []model.DateWindow, ranges []query.DateRange) (*model.QueryResponse, error) {
	if len(params.Keywords) == 0 {
		return nil, appErr.ErrNoKeywords
	}
	transcripts, err := s.transcripts.ListByDateRanges(ctx, windows)
	if err != nil {
		return nil, err
	}
	result := &model.CountResult{
		Counts:    make(map[string]int, len(params.Keywords)),
		DateRange: query.DescribeAll(ranges),
	}
	dateSeen := make(map[string]bool)
	for _, item := range transcripts {
		lower := strings.ToLower(item.Content)
		matched := false
		for _, kw := range params.Keywords {
			n := strings.Count(lower, strings.ToLower(kw))
			if n == 0 {
				continue
			}
			result.Counts[kw] += n
			result.TotalMentions += n
			matched = true
		}
		if matched {
			day := item.RecordingDate.Format("2006-01-02")
			if !dateSeen[day] {
				dateSeen[day] = true
				result.MatchingDates = append(result.MatchingDates, day)
			}
		}
	}
	sort.Strings(result.MatchingDates)
	return &model.QueryResponse{
		Intent: model.IntentCount,
		Answer: formatCountAnswer(params.Keywords, result),
		Count:  result,
	}, nil
}

func (s *SearchService) answer(ctx context.Context, q string, intent model.QueryIntent, windows []model.DateWindow, topK int, hint string) (*model.QueryResponse, error) {
	emb, err := s.ai.Embed(ctx, q, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	matches, err := s.chunks.Search(ctx, emb, windows, topK)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return &model.QueryResponse{Intent: intent, Answer: noMemoriesAnswer}, nil
	}

	contextText := buildContext(matches, s.cfg.MaxContextChars)
	if hint != "" {
		contextText = hint + "\n\n" + contextText
	}
	cacheKey := s.cacheKey(q, contextText)
	answer, ok := s.cache.Get(cacheKey)
	if !ok {
		answer, err = s.ai.Answer(ctx, q, contextText)
		if err != nil {
			return nil, err
		}
		s.cache.Add(cacheKey, answer)
	}
	return &model.QueryResponse{
		Intent:  intent,
		Answer:  answer,
		Sources: buildSources(matches, 3),
	}, nil
}

func (s *SearchService) cleanQuery(q string) (string, error) {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return "", appErr.ErrEmptyQuery
	}
	max := s.ai.MaxInputChars()
	if max > 0 && len(trimmed) > max {
		return "", appErr.ErrInvalid
	}
	return trimmed, nil
}

func (s *SearchService) cacheKey(q, contextText string) string {
	hash := sha256.Sum256([]byte(q + "\x00" + contextText))
	return "answer:" + hex.EncodeToString(hash[:])
}

func toWindows(ranges []query.DateRange) []model.DateWindow {
	windows := make([]model.DateWindow, 0, len(ranges))
	for _, r := range ranges {
		windows = append(windows, model.DateWindow{Start: r.Start, End: r.End})
	}
	return windows
}

func mergeDateFilters(existing, scanned []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, d := range existing {
		seen[strings.ToLower(d)] = true
	}
	for _, d := range scanned {
		if seen[strings.ToLower(d)] {
			continue
		}
		seen[strings.ToLower(d)] = true
		existing = append(existing, d)
	}
	return existing
}

// topicProfile renders the aggregated keyword counts as a single context
// line, most frequent first.
func topicProfile(top map[string]int) string {
	type topic struct {
		keyword string
		total   int
	}
	topics := make([]topic, 0, len(top))
	for kw, n := range top {
		topics = append(topics, topic{keyword: kw, total: n})
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].total != topics[j].total {
			return topics[i].total > topics[j].total
		}
		return topics[i].keyword < topics[j].keyword
	})
	parts := make([]string, 0, len(topics))
	for _, item := range topics {
		parts = append(parts, fmt.Sprintf("%s (%d)", item.keyword, item.total))
	}
	return "Frequent topics across all memories: " + strings.Join(parts, ", ")
}

// buildContext feeds each match to the model prefixed by its recording
// date, truncated to keep the prompt bounded.
func buildContext(matches []*model.ChunkMatch, maxChars int) string {
	var sb strings.Builder
	for _, match := range matches {
		entry := fmt.Sprintf("On %s: %s\n\n", match.RecordingDate.Format("January 2, 2006"), match.Content)
		if sb.Len()+len(entry) > maxChars {
			break
		}
		sb.WriteString(entry)
	}
	return strings.TrimSpace(sb.String())
}

func buildSources(matches []*model.ChunkMatch, max int) []model.MemoryExcerpt {
	if len(matches) > max {
		matches = matches[:max]
	}
	sources := make([]model.MemoryExcerpt, 0, len(matches))
	for _, match := range matches {
		sources = append(sources, model.MemoryExcerpt{
			TranscriptID:  match.TranscriptID,
			RecordingDate: match.RecordingDate.Format("January 2, 2006"),
			Snippet:       snippet(match.Content, 150),
			Score:         match.Score,
		})
	}
	return sources
}

func snippet(content string, max int) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + "..."
}

func formatCountAnswer(keywords []string, result *model.CountResult) string {
	if result.TotalMentions == 0 {
		return fmt.Sprintf("I found no mentions of %s in your memories (%s).", strings.Join(keywords, ", "), result.DateRange)
	}
	parts := make([]string, 0, len(result.Counts))
	for _, kw := range keywords {
		if n, ok := result.Counts[kw]; ok {
			parts = append(parts, fmt.Sprintf("%q %d time(s)", kw, n))
		}
	}
	return fmt.Sprintf("You mentioned %s across %d day(s) (%s).",
		strings.Join(parts, ", "), len(result.MatchingDates), result.DateRange)
}
