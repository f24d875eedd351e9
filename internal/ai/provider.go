package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrUnavailable = errors.New("ai provider not configured")

// GenerateOptions carries per-request generation tuning. A zero
// temperature means the provider default.
type GenerateOptions struct {
	Temperature float64
}

type IGenerateProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string, opts *GenerateOptions) (string, error)
}

type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

type TranscribeRequest struct {
	Filename string
	Audio    io.Reader
	Language string
	BeamSize int
}

type TranscribeResult struct {
	Text            string  `json:"text"`
	Language        string  `json:"language"`
	DurationSeconds float64 `json:"duration"`
}

type ITranscribeProvider interface {
	Name() string
	Transcribe(ctx context.Context, model string, req *TranscribeRequest) (*TranscribeResult, error)
}

type ISpeechProvider interface {
	Name() string
	Speak(ctx context.Context, model string, voice string, text string) ([]byte, error)
}

type IGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

type ITranscriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (*TranscribeResult, error)
}

type ISpeaker interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

type generator struct {
	provider    IGenerateProvider
	model       string
	temperature float64
}

func NewGenerator(p IGenerateProvider, model string, temperature float64) IGenerator {
	return &generator{provider: p, model: model, temperature: temperature}
}

func (g *generator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.provider.Generate(ctx, g.model, prompt, &GenerateOptions{Temperature: g.temperature})
}

type embedder struct {
	provider IEmbedProvider
	model    string
}

func NewEmbedder(p IEmbedProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.model
}

type transcriber struct {
	provider ITranscribeProvider
	model    string
	language string
	beamSize int
}

func NewTranscriber(p ITranscribeProvider, model, language string, beamSize int) ITranscriber {
	return &transcriber{provider: p, model: model, language: language, beamSize: beamSize}
}

func (t *transcriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (*TranscribeResult, error) {
	return t.provider.Transcribe(ctx, t.model, &TranscribeRequest{
		Filename: filename,
		Audio:    audio,
		Language: t.language,
		BeamSize: t.beamSize,
	})
}

type speaker struct {
	provider ISpeechProvider
	model    string
	voice    string
}

func NewSpeaker(p ISpeechProvider, model, voice string) ISpeaker {
	return &speaker{provider: p, model: model, voice: voice}
}

func (s *speaker) Speak(ctx context.Context, text string) ([]byte, error) {
	return s.provider.Speak(ctx, s.model, s.voice, text)
}

type (
	GenerateFactory   func(args interface{}) (IGenerateProvider, error)
	EmbedFactory      func(args interface{}) (IEmbedProvider, error)
	TranscribeFactory func(args interface{}) (ITranscribeProvider, error)
	SpeechFactory     func(args interface{}) (ISpeechProvider, error)
)

var (
	generateRegistry   = map[string]GenerateFactory{}
	embedRegistry      = map[string]EmbedFactory{}
	transcribeRegistry = map[string]TranscribeFactory{}
	speechRegistry     = map[string]SpeechFactory{}
)

func Register(name string, factory GenerateFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	generateRegistry[key] = factory
}

func RegisterEmbed(name string, factory EmbedFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	embedRegistry[key] = factory
}

func RegisterTranscribe(name string, factory TranscribeFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	transcribeRegistry[key] = factory
}

func RegisterSpeech(name string, factory SpeechFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	speechRegistry[key] = factory
}

func NewGenerateProvider(name string, args interface{}) (IGenerateProvider, error) {
	factory := generateRegistry[normalizeName(name)]
	if factory == nil {
		return nil, fmt.Errorf("unsupported generate provider: %s", name)
	}
	return factory(args)
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	factory := embedRegistry[normalizeName(name)]
	if factory == nil {
		return nil, fmt.Errorf("unsupported embed provider: %s", name)
	}
	return factory(args)
}

func NewTranscribeProvider(name string, args interface{}) (ITranscribeProvider, error) {
	factory := transcribeRegistry[normalizeName(name)]
	if factory == nil {
		return nil, fmt.Errorf("unsupported transcribe provider: %s", name)
	}
	return factory(args)
}

func NewSpeechProvider(name string, args interface{}) (ISpeechProvider, error) {
	factory := speechRegistry[normalizeName(name)]
	if factory == nil {
		return nil, fmt.Errorf("unsupported speech provider: %s", name)
	}
	return factory(args)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
