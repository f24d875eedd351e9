package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dianehq/diane/internal/model"
	"github.com/dianehq/diane/internal/repo"
	"github.com/dianehq/diane/test/testutil"
)

// unit vectors along different axes, cosine distance is exact
func axisVector(dim, axis int) []float32 {
	v := make([]float32, dim)
	v[axis] = 1
	return v
}

func TestChunkRepoSearchRanksBySimilarity(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	transcripts := repo.NewTranscriptRepo(db)
	chunks := repo.NewChunkRepo(db)
	ctx := context.Background()

	item := newTestTranscript("tr-chunk-1", time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC), "pizza and running")
	require.NoError(t, transcripts.Create(ctx, item))
	defer func() {
		_ = chunks.DeleteByTranscript(ctx, item.ID)
		_ = transcripts.Delete(ctx, item.ID)
	}()

	now := time.Now().Unix()
	require.NoError(t, chunks.SaveBatch(ctx, []*model.TranscriptChunk{
		{TranscriptID: item.ID, ChunkIndex: 0, Content: "had pizza for lunch", TokenCount: 4, Embedding: axisVector(3, 0), EmbedModel: "test", Mtime: now},
		{TranscriptID: item.ID, ChunkIndex: 1, Content: "went for a run", TokenCount: 4, Embedding: axisVector(3, 1), EmbedModel: "test", Mtime: now},
		{TranscriptID: item.ID, ChunkIndex: 2, Content: "pending chunk", TokenCount: 2, Mtime: now},
	}))

	matches, err := chunks.Search(ctx, axisVector(3, 0), nil, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2, "unembedded chunks stay out of search")
	require.Equal(t, 0, matches[0].ChunkIndex)
	require.InDelta(t, 1.0, float64(matches[0].Score), 1e-6)
	require.Equal(t, item.Filename, matches[0].Filename)

	// date window excluding the transcript yields nothing
	august := model.DateWindow{
		Start: time.Date(2023, time.August, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, time.August, 31, 0, 0, 0, 0, time.UTC),
	}
	matches, err = chunks.Search(ctx, axisVector(3, 0), []model.DateWindow{august}, 10)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestChunkRepoBackfillFlow(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	transcripts := repo.NewTranscriptRepo(db)
	chunks := repo.NewChunkRepo(db)
	ctx := context.Background()

	item := newTestTranscript("tr-chunk-2", time.Date(2023, time.June, 6, 0, 0, 0, 0, time.UTC), "backfill me")
	require.NoError(t, transcripts.Create(ctx, item))
	defer func() {
		_ = chunks.DeleteByTranscript(ctx, item.ID)
		_ = transcripts.Delete(ctx, item.ID)
	}()

	require.NoError(t, chunks.SaveBatch(ctx, []*model.TranscriptChunk{
		{TranscriptID: item.ID, ChunkIndex: 0, Content: "waiting for embedding", TokenCount: 3, Mtime: time.Now().Unix()},
	}))

	pending, err := chunks.ListPending(ctx, 100)
	require.NoError(t, err)
	require.NotEmpty(t, pending)
	found := false
	for _, chunk := range pending {
		if chunk.TranscriptID == item.ID {
			found = true
		}
	}
	require.True(t, found)

	before, err := chunks.CountPending(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, before, int64(1))

	require.NoError(t, chunks.UpdateEmbedding(ctx, item.ID, 0, axisVector(3, 2), "test"))

	after, err := chunks.CountPending(ctx)
	require.NoError(t, err)
	require.Equal(t, before-1, after)
	matches, err := chunks.Search(ctx, axisVector(3, 2), nil, 5)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	require.Equal(t, item.ID, matches[0].TranscriptID)
}
