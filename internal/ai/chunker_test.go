package ai

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkPlainShortContent(t *testing.T) {
	c := NewChunker()
	chunks := c.Chunk(context.Background(), "Just one short sentence.", false)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, "Just one short sentence.", chunks[0].Content)
	assert.Positive(t, chunks[0].TokenCount)
}

func TestChunkPlainSplitsAndOverlaps(t *testing.T) {
	c := &Chunker{maxTokens: 20, overlapTokens: 10}
	var sb strings.Builder
	for i := 0; i < 6; i++ {
		sb.WriteString(fmt.Sprintf("Sentence number %d has exactly eight words total. ", i))
	}
	chunks := c.chunkPlain(sb.String(), "")
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
	}
	// consecutive chunks share the carried sentence
	first := strings.Split(chunks[1].Content, ". ")[0] + "."
	assert.Contains(t, chunks[0].Content, first)
}

func TestChunkMarkdownSplitsOnHeadings(t *testing.T) {
	c := NewChunker()
	content := "# Morning\n\nHad coffee with Sam.\n\n## Work\n\nShipped the release.\n\nReviewed two pull requests."
	chunks := c.Chunk(context.Background(), content, true)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Content, "Heading: Morning")
	assert.Contains(t, chunks[0].Content, "coffee with Sam")
	assert.Contains(t, chunks[1].Content, "Heading: Work")
	assert.Contains(t, chunks[1].Content, "Shipped the release")
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("First one. Second one! Third one? Trailing fragment")
	require.Len(t, sentences, 4)
	assert.Equal(t, "First one.", sentences[0])
	assert.Equal(t, "Trailing fragment", sentences[3])

	// a dot inside a number does not end a sentence
	sentences = splitSentences("Ran 3.5 miles today.")
	require.Len(t, sentences, 1)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 3, estimateTokens("one two three"))
	assert.Equal(t, 1, estimateTokens("x"))
	assert.Positive(t, estimateTokens("日记"))
}
