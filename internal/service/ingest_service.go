package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dianehq/diane/internal/ai"
	"github.com/dianehq/diane/internal/filestore"
	"github.com/dianehq/diane/internal/model"
	appErr "github.com/dianehq/diane/internal/pkg/errors"
	"github.com/dianehq/diane/internal/repo"
)

const defaultMaxKeywords = 15

var (
	isoPrefixRe     = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)
	compactPrefixRe = regexp.MustCompile(`^(\d{6})(?:\D|$)`)
)

type IngestConfig struct {
	AudioExtensions []string
	NoteExtensions  []string
	MaxKeywords     int
}

// IngestService turns a recording (or a text note) into a searchable
// memory: transcribe, extract keywords, chunk, embed, archive, persist.
type IngestService struct {
	transcripts *repo.TranscriptRepo
	keywords    *repo.KeywordRepo
	chunks      *repo.ChunkRepo
	manager     *ai.Manager
	chunker     *ai.Chunker
	store       filestore.Store
	cfg         IngestConfig
}

func NewIngestService(
	transcripts *repo.TranscriptRepo,
	keywords *repo.KeywordRepo,
	chunks *repo.ChunkRepo,
	manager *ai.Manager,
	store filestore.Store,
	cfg IngestConfig,
) *IngestService {
	if cfg.MaxKeywords <= 0 {
		cfg.MaxKeywords = defaultMaxKeywords
	}
	if len(cfg.NoteExtensions) == 0 {
		cfg.NoteExtensions = []string{".txt", ".md"}
	}
	return &IngestService{
		transcripts: transcripts,
		keywords:    keywords,
		chunks:      chunks,
		manager:     manager,
		chunker:     ai.NewChunker(),
		store:       store,
		cfg:         cfg,
	}
}

func (s *IngestService) ProcessFile(ctx context.Context, path string) (*model.Transcript, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, filepath.Base(path), file, info.Size())
}

// ProcessDir ingests every supported file in a directory, skipping the
// rest. A single bad file does not stop the batch.
func (s *IngestService) ProcessDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("dir", dir))
	processed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !s.isAudio(ext) && !s.isNote(ext) {
			continue
		}
		if _, err := s.ProcessFile(ctx, filepath.Join(dir, entry.Name())); err != nil {
			if errors.Is(err, appErr.ErrConflict) {
				logger.Info("file already ingested", zap.String("file", entry.Name()))
				continue
			}
			logger.Error("failed to process file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		processed++
	}
	logger.Info("directory processed", zap.Int("count", processed))
	return processed, nil
}

func (s *IngestService) Ingest(ctx context.Context, filename string, r filestore.ReadSeekCloser, size int64) (*model.Transcript, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	logger := logutil.GetLogger(ctx).With(zap.String("filename", filename))

	// cheap dedupe before any model call, re-running a watch folder is common
	if _, err := s.transcripts.GetByFilename(ctx, filename); err == nil {
		return nil, fmt.Errorf("%w: %s already ingested", appErr.ErrConflict, filename)
	} else if !errors.Is(err, appErr.ErrNotFound) {
		return nil, err
	}

	var content string
	var duration float64
	switch {
	case s.isAudio(ext):
		result, err := s.manager.Transcribe(ctx, filename, r)
		if err != nil {
			return nil, fmt.Errorf("transcribe %s: %w", filename, err)
		}
		content = result.Text
		duration = result.DurationSeconds
	case s.isNote(ext):
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		content = string(data)
	default:
		return nil, appErr.ErrUnsupportedExt
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("no content extracted from %s", filename)
	}

	now := time.Now()
	item := &model.Transcript{
		ID:              newID(),
		Filename:        filename,
		RecordingDate:   extractRecordingDate(filename, now),
		Content:         content,
		WordCount:       len(strings.Fields(content)),
		DurationSeconds: duration,
		Ctime:           now.Unix(),
		Mtime:           now.Unix(),
	}

	if s.isAudio(ext) {
		item.AudioKey = item.ID + "_" + sanitizeKey(filename)
		if err := s.store.Save(ctx, item.AudioKey, r, size); err != nil {
			logger.Warn("failed to archive audio", zap.Error(err))
			item.AudioKey = ""
		}
	}
	item.TranscriptKey = item.ID + ".txt"
	if err := s.store.Save(ctx, item.TranscriptKey, newMemFile(content), int64(len(content))); err != nil {
		logger.Warn("failed to archive transcript", zap.Error(err))
		item.TranscriptKey = ""
	}

	if err := s.transcripts.Create(ctx, item); err != nil {
		return nil, err
	}

	// keyword extraction is best effort, counting still works off content
	if kws, err := s.manager.ExtractKeywords(ctx, content, s.cfg.MaxKeywords); err != nil {
		logger.Warn("keyword extraction failed", zap.Error(err))
	} else if err := s.keywords.SaveBatch(ctx, keywordFrequencies(item.ID, content, kws)); err != nil {
		logger.Warn("failed to save keywords", zap.Error(err))
	}

	chunks := s.chunker.Chunk(ctx, content, ext == ".md")
	embedModel := s.manager.EmbeddingModelName()
	for _, chunk := range chunks {
		chunk.TranscriptID = item.ID
		chunk.Mtime = now.Unix()
		emb, err := s.manager.Embed(ctx, chunk.Content, "RETRIEVAL_DOCUMENT")
		if err != nil {
			// left pending, the backfill job picks it up
			logger.Warn("embedding failed", zap.Int("chunk", chunk.ChunkIndex), zap.Error(err))
			continue
		}
		chunk.Embedding = emb
		chunk.EmbedModel = embedModel
	}
	if err := s.chunks.SaveBatch(ctx, chunks); err != nil {
		return nil, err
	}

	logger.Info("memory ingested",
		zap.String("id", item.ID),
		zap.Time("recording_date", item.RecordingDate),
		zap.Int("word_count", item.WordCount),
		zap.Int("chunks", len(chunks)),
	)
	return item, nil
}

func (s *IngestService) Get(ctx context.Context, id string) (*model.Transcript, error) {
	return s.transcripts.GetByID(ctx, id)
}

func (s *IngestService) List(ctx context.Context, offset, limit uint) ([]*model.Transcript, error) {
	if limit == 0 || limit > 200 {
		limit = 50
	}
	return s.transcripts.List(ctx, offset, limit)
}

func (s *IngestService) Count(ctx context.Context) (int64, error) {
	return s.transcripts.Count(ctx)
}

func (s *IngestService) Keywords(ctx context.Context, id string) ([]*model.TranscriptKeyword, error) {
	return s.keywords.ListByTranscript(ctx, id)
}

func (s *IngestService) Delete(ctx context.Context, id string) error {
	item, err := s.transcripts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("id", id))
	if err := s.chunks.DeleteByTranscript(ctx, id); err != nil {
		return err
	}
	if err := s.keywords.DeleteByTranscript(ctx, id); err != nil {
		return err
	}
	if err := s.transcripts.Delete(ctx, id); err != nil {
		return err
	}
	for _, key := range []string{item.AudioKey, item.TranscriptKey} {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			logger.Warn("failed to delete archived file", zap.String("key", key), zap.Error(err))
		}
	}
	logger.Info("memory deleted")
	return nil
}

func (s *IngestService) isAudio(ext string) bool {
	for _, e := range s.cfg.AudioExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func (s *IngestService) isNote(ext string) bool {
	for _, e := range s.cfg.NoteExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// extractRecordingDate reads the date out of the filename. Recorders name
// files either 2023-10-05_morning.mp3 or 231005-morning.wav; anything else
// falls back to the ingest day.
func extractRecordingDate(filename string, now time.Time) time.Time {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	if m := isoPrefixRe.FindStringSubmatch(base); m != nil {
		if t, err := time.ParseInLocation("2006-01-02", m[1], now.Location()); err == nil {
			return t
		}
	}
	if m := compactPrefixRe.FindStringSubmatch(base); m != nil {
		if t, err := time.ParseInLocation("060102", m[1], now.Location()); err == nil {
			return t
		}
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// keywordFrequencies counts case-insensitive occurrences of each keyword
// in the content. A keyword the model invented still gets frequency 1.
func keywordFrequencies(transcriptID, content string, keywords []string) []*model.TranscriptKeyword {
	lower := strings.ToLower(content)
	items := make([]*model.TranscriptKeyword, 0, len(keywords))
	for _, kw := range keywords {
		freq := strings.Count(lower, strings.ToLower(kw))
		if freq < 1 {
			freq = 1
		}
		items = append(items, &model.TranscriptKeyword{
			TranscriptID: transcriptID,
			Keyword:      kw,
			Frequency:    freq,
		})
	}
	return items
}

func sanitizeKey(filename string) string {
	var sb strings.Builder
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	return sb.String()
}

type memFile struct {
	*bytes.Reader
}

func (f *memFile) Close() error { return nil }

func newMemFile(content string) filestore.ReadSeekCloser {
	return &memFile{Reader: bytes.NewReader([]byte(content))}
}
