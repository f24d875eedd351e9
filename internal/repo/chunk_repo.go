package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/dianehq/diane/internal/model"
	"github.com/dianehq/diane/internal/pkg/dbutil"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

func (r *ChunkRepo) SaveBatch(ctx context.Context, items []*model.TranscriptChunk) error {
	if len(items) == 0 {
		return nil
	}
	const query = `
		INSERT INTO transcript_chunks (transcript_id, chunk_index, content, token_count, embedding, embed_model, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (transcript_id, chunk_index) DO UPDATE SET
			content = EXCLUDED.content,
			token_count = EXCLUDED.token_count,
			embedding = EXCLUDED.embedding,
			embed_model = EXCLUDED.embed_model,
			mtime = EXCLUDED.mtime
	`
	for _, item := range items {
		var embedding interface{}
		if len(item.Embedding) > 0 {
			embedding = pgvector.NewVector(item.Embedding)
		}
		if _, err := r.db.ExecContext(ctx, query,
			item.TranscriptID,
			item.ChunkIndex,
			item.Content,
			item.TokenCount,
			embedding,
			item.EmbedModel,
			item.Mtime,
		); err != nil {
			return err
		}
	}
	return nil
}

// Search runs cosine similarity over embedded chunks, optionally narrowed
// to recording-date windows. Score is 1 - cosine distance.
func (r *ChunkRepo) Search(ctx context.Context, embedding []float32, ranges []model.DateWindow, limit int) ([]*model.ChunkMatch, error) {
	vec := pgvector.NewVector(embedding)
	sqlStr := `
		SELECT c.transcript_id, c.chunk_index, c.content, t.filename, t.recording_date,
			1 - (c.embedding <=> ?) AS score
		FROM transcript_chunks c
		JOIN transcripts t ON t.id = c.transcript_id
		WHERE c.embedding IS NOT NULL
	`
	args := []interface{}{vec}
	if predicate, predArgs := dateRangePredicate("t.recording_date", ranges); predicate != "" {
		sqlStr += " AND " + predicate
		args = append(args, predArgs...)
	}
	sqlStr += " ORDER BY c.embedding <=> ? LIMIT ?"
	args = append(args, vec, limit)
	sqlStr, args = dbutil.Finalize(sqlStr, args)

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var matches []*model.ChunkMatch
	for rows.Next() {
		var match model.ChunkMatch
		if err := rows.Scan(
			&match.TranscriptID,
			&match.ChunkIndex,
			&match.Content,
			&match.Filename,
			&match.RecordingDate,
			&match.Score,
		); err != nil {
			return nil, err
		}
		matches = append(matches, &match)
	}
	return matches, rows.Err()
}

// ListPending returns chunks waiting for an embedding, oldest first.
func (r *ChunkRepo) ListPending(ctx context.Context, limit int) ([]*model.TranscriptChunk, error) {
	sqlStr, args := dbutil.Finalize(`
		SELECT transcript_id, chunk_index, content, token_count, embed_model, mtime
		FROM transcript_chunks
		WHERE embedding IS NULL
		ORDER BY mtime ASC
		LIMIT ?
	`, []interface{}{limit})
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*model.TranscriptChunk
	for rows.Next() {
		var item model.TranscriptChunk
		if err := rows.Scan(
			&item.TranscriptID,
			&item.ChunkIndex,
			&item.Content,
			&item.TokenCount,
			&item.EmbedModel,
			&item.Mtime,
		); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *ChunkRepo) CountPending(ctx context.Context) (int64, error) {
	row := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transcript_chunks WHERE embedding IS NULL")
	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *ChunkRepo) UpdateEmbedding(ctx context.Context, transcriptID string, chunkIndex int, embedding []float32, embedModel string) error {
	sqlStr, args := dbutil.Finalize(
		"UPDATE transcript_chunks SET embedding=?, embed_model=?, mtime=? WHERE transcript_id=? AND chunk_index=?",
		[]interface{}{pgvector.NewVector(embedding), embedModel, time.Now().Unix(), transcriptID, chunkIndex},
	)
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ChunkRepo) DeleteByTranscript(ctx context.Context, transcriptID string) error {
	sqlStr, args := dbutil.Finalize("DELETE FROM transcript_chunks WHERE transcript_id=?", []interface{}{transcriptID})
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
