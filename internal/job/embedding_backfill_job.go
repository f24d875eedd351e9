package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dianehq/diane/internal/ai"
	"github.com/dianehq/diane/internal/repo"
)

// EmbeddingBackfillJob embeds chunks whose ingest-time embedding failed,
// typically because the provider was down or rate limited.
type EmbeddingBackfillJob struct {
	chunks    *repo.ChunkRepo
	manager   *ai.Manager
	batchSize int
}

func NewEmbeddingBackfillJob(chunks *repo.ChunkRepo, manager *ai.Manager, batchSize int) *EmbeddingBackfillJob {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &EmbeddingBackfillJob{chunks: chunks, manager: manager, batchSize: batchSize}
}

func (j *EmbeddingBackfillJob) Name() string {
	return "embedding_backfill"
}

func (j *EmbeddingBackfillJob) Run(ctx context.Context) error {
	if j.chunks == nil || j.manager == nil {
		return nil
	}
	pending, err := j.chunks.ListPending(ctx, j.batchSize)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	logger := logutil.GetLogger(ctx)
	embedModel := j.manager.EmbeddingModelName()
	done := 0
	for _, chunk := range pending {
		emb, err := j.manager.Embed(ctx, chunk.Content, "RETRIEVAL_DOCUMENT")
		if err != nil {
			// provider still unhealthy, retry on the next tick
			logger.Warn("backfill embedding failed",
				zap.String("transcript_id", chunk.TranscriptID),
				zap.Int("chunk_index", chunk.ChunkIndex),
				zap.Error(err),
			)
			return err
		}
		if err := j.chunks.UpdateEmbedding(ctx, chunk.TranscriptID, chunk.ChunkIndex, emb, embedModel); err != nil {
			return err
		}
		done++
	}
	remaining, err := j.chunks.CountPending(ctx)
	if err != nil {
		return err
	}
	logger.Info("embedding backfill completed", zap.Int("count", done), zap.Int64("remaining", remaining))
	return nil
}
