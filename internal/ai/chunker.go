package ai

import (
	"context"
	"strings"
	"unicode"

	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/dianehq/diane/internal/model"
)

const (
	defaultChunkTokens   = 400
	defaultOverlapTokens = 80
)

// Chunker splits a transcript into embedding units. Spoken transcripts get
// sentence windows with overlap; markdown notes are split along headings so
// a chunk never straddles two sections.
type Chunker struct {
	maxTokens     int
	overlapTokens int
}

func NewChunker() *Chunker {
	return &Chunker{maxTokens: defaultChunkTokens, overlapTokens: defaultOverlapTokens}
}

func (c *Chunker) Chunk(ctx context.Context, content string, markdown bool) []*model.TranscriptChunk {
	logger := logutil.GetLogger(ctx)
	var chunks []*model.TranscriptChunk
	if markdown {
		chunks = c.chunkMarkdown(content)
	} else {
		chunks = c.chunkPlain(content, "")
	}
	logger.Info("chunking completed",
		zap.Int("size", len(content)),
		zap.Bool("markdown", markdown),
		zap.Int("total_chunks", len(chunks)),
	)
	return chunks
}

func (c *Chunker) chunkPlain(content, heading string) []*model.TranscriptChunk {
	var chunks []*model.TranscriptChunk
	var current []string
	var currentTokens int

	flush := func(keepOverlap bool) {
		if len(current) == 0 {
			return
		}
		body := strings.Join(current, " ")
		if heading != "" {
			body = "Heading: " + heading + "\n" + body
		}
		chunks = append(chunks, &model.TranscriptChunk{
			ChunkIndex: len(chunks),
			Content:    body,
			TokenCount: estimateTokens(body),
		})
		if !keepOverlap || len(current) <= 1 {
			current = nil
			currentTokens = 0
			return
		}
		// Carry trailing sentences into the next chunk so context survives
		// the window boundary.
		overlapTokens := 0
		var overlap []string
		for i := len(current) - 1; i >= 0; i-- {
			t := estimateTokens(current[i])
			if overlapTokens+t > c.overlapTokens {
				break
			}
			overlapTokens += t
			overlap = append([]string{current[i]}, overlap...)
		}
		current = overlap
		currentTokens = overlapTokens
	}

	for _, sentence := range splitSentences(content) {
		tokens := estimateTokens(sentence)
		if currentTokens+tokens > c.maxTokens {
			flush(true)
		}
		current = append(current, sentence)
		currentTokens += tokens
	}
	flush(false)
	return chunks
}

func (c *Chunker) chunkMarkdown(content string) []*model.TranscriptChunk {
	md := goldmark.New()
	reader := text.NewReader([]byte(content))
	doc := md.Parser().Parse(reader)

	var chunks []*model.TranscriptChunk
	heading := ""
	var section []string

	flushSection := func() {
		if len(section) == 0 {
			return
		}
		for _, chunk := range c.chunkPlain(strings.Join(section, "\n\n"), heading) {
			chunk.ChunkIndex = len(chunks)
			chunks = append(chunks, chunk)
		}
		section = nil
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if h, ok := node.(*ast.Heading); ok && h.Level <= 2 {
			flushSection()
			heading = string(h.Text(reader.Source()))
			continue
		}
		if txt := extractText(node, reader.Source()); txt != "" {
			section = append(section, txt)
		}
	}
	flushSection()
	return chunks
}

func splitSentences(content string) []string {
	var sentences []string
	var sb strings.Builder
	runes := []rune(content)
	for i, r := range runes {
		sb.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				if s := strings.TrimSpace(sb.String()); s != "" {
					sentences = append(sentences, s)
				}
				sb.Reset()
			}
		}
	}
	if s := strings.TrimSpace(sb.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// estimateTokens counts words for latin text and characters for CJK.
func estimateTokens(content string) int {
	count := 0
	for _, r := range content {
		if r > 127 {
			count++
		}
	}
	count += len(strings.Fields(content))
	if count == 0 && len(content) > 0 {
		return 1
	}
	return count
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			sb.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
