package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dianehq/diane/internal/model"
)

type ManagerConfig struct {
	Timeout       int
	MaxInputChars int
}

type Manager struct {
	gen         IGenerator
	embedder    IEmbedder
	transcriber ITranscriber
	speaker     ISpeaker
	cfg         ManagerConfig
}

func NewManager(gen IGenerator, embedder IEmbedder, transcriber ITranscriber, speaker ISpeaker, cfg ManagerConfig) *Manager {
	return &Manager{
		gen:         gen,
		embedder:    embedder,
		transcriber: transcriber,
		speaker:     speaker,
		cfg:         cfg,
	}
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	return m.embedder.Embed(ctx, text, taskType)
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}

func (m *Manager) Transcribe(ctx context.Context, filename string, audio io.Reader) (*TranscribeResult, error) {
	if m.transcriber == nil {
		return nil, fmt.Errorf("transcriber not configured")
	}
	return m.transcriber.Transcribe(ctx, filename, audio)
}

func (m *Manager) Speak(ctx context.Context, text string) ([]byte, error) {
	if m.speaker == nil {
		return nil, fmt.Errorf("speaker not configured")
	}
	return m.speaker.Speak(ctx, text)
}

func (m *Manager) CanSpeak() bool {
	return m.speaker != nil
}

// ParseQuery turns a natural-language question into structured parameters.
// The model's JSON output is normalized by ParseQueryParams.
func (m *Manager) ParseQuery(ctx context.Context, query string) (*model.QueryParams, error) {
	if m.gen == nil {
		return nil, fmt.Errorf("generator not configured")
	}
	prompt := fmt.Sprintf(`You are an AI specialized in parsing natural language queries about personal memories.
Extract key information from the user's query.

User query: %s

Extract and categorize the following information:
1. date_filters: any specific dates mentioned (e.g., "October 5, 2023")
2. keywords: important topic words (e.g., "vacation", "meeting", "John")
3. time_range: any time period mentioned (e.g., "last week", "June 2023"), or null
4. count_request: is the user asking for a count or frequency? (true/false)
5. query_type: "recall" (asking about a specific memory), "count" (asking how many times something happened), "insight" (asking for patterns or analysis), or "general"

Respond with a single JSON object with exactly those keys. No extra text.`, query)
	result, err := m.generateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseQueryParams(result)
}

// Answer synthesizes the final response from retrieved context.
func (m *Manager) Answer(ctx context.Context, question string, context_ string) (string, error) {
	if m.gen == nil {
		return "", fmt.Errorf("generator not configured")
	}
	prompt := fmt.Sprintf(`You are Diane, a personal memory assistant that helps users recall information
from their daily audio recordings.

Use the following pieces of retrieved context to answer the user's question.
Each memory is prefixed with its recording date. If you don't know the answer
based on the provided context, say you don't know and suggest the user try a
different query.

Retrieved context:
%s

User question: %s`, context_, question)
	return m.generateText(ctx, prompt)
}

func (m *Manager) ExtractKeywords(ctx context.Context, text string, maxKeywords int) ([]string, error) {
	if m.gen == nil {
		return nil, fmt.Errorf("generator not configured")
	}
	if maxKeywords <= 0 {
		maxKeywords = 15
	}
	if maxKeywords > 50 {
		maxKeywords = 50
	}
	prompt := fmt.Sprintf(`You are a keyword extraction assistant.
From the transcript below, extract up to %d keywords: important nouns, names of
people, places, organizations, and notable activities.
- Keywords should be single words or short phrases, lowercased.
- Skip filler and stop words.
- Return a JSON array of strings only. No extra text.

TRANSCRIPT:
%s`, maxKeywords, text)
	result, err := m.generateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseStringList(result, maxKeywords)
}

func (m *Manager) generateText(ctx context.Context, prompt string) (string, error) {
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := m.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

func (m *Manager) MaxInputChars() int {
	return m.cfg.MaxInputChars
}

// ParseQueryParams decodes the model's JSON block, tolerating code fences and
// surrounding prose, and normalizes the intent.
func ParseQueryParams(output string) (*model.QueryParams, error) {
	clean := stripFences(output)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no json object in response")
	}
	clean = clean[start : end+1]

	var params model.QueryParams
	if err := json.Unmarshal([]byte(clean), &params); err != nil {
		return nil, fmt.Errorf("parse query params: %w", err)
	}
	switch model.QueryIntent(strings.ToLower(strings.TrimSpace(string(params.Intent)))) {
	case model.IntentRecall:
		params.Intent = model.IntentRecall
	case model.IntentCount:
		params.Intent = model.IntentCount
	case model.IntentInsight:
		params.Intent = model.IntentInsight
	default:
		params.Intent = model.IntentGeneral
	}
	if params.CountRequest && params.Intent == model.IntentGeneral {
		params.Intent = model.IntentCount
	}
	return &params, nil
}

func parseStringList(output string, max int) ([]string, error) {
	clean := stripFences(output)
	start := strings.Index(clean, "[")
	end := strings.LastIndex(clean, "]")
	if start >= 0 && end > start {
		clean = clean[start : end+1]
	}

	var items []string
	if err := json.Unmarshal([]byte(clean), &items); err != nil {
		return nil, fmt.Errorf("parse list: %w", err)
	}
	uniq := make([]string, 0, len(items))
	seen := make(map[string]bool)
	for _, item := range items {
		normalized := strings.ToLower(strings.TrimSpace(item))
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		uniq = append(uniq, normalized)
		if len(uniq) >= max {
			break
		}
	}
	if len(uniq) == 0 {
		return nil, fmt.Errorf("no items found")
	}
	return uniq, nil
}

func stripFences(output string) string {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
