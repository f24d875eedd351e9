package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/dianehq/diane/internal/model"
	"github.com/dianehq/diane/internal/pkg/dbutil"
)

type KeywordRepo struct {
	db *sql.DB
}

func NewKeywordRepo(db *sql.DB) *KeywordRepo {
	return &KeywordRepo{db: db}
}

func (r *KeywordRepo) SaveBatch(ctx context.Context, items []*model.TranscriptKeyword) error {
	if len(items) == 0 {
		return nil
	}
	data := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		data = append(data, map[string]interface{}{
			"transcript_id": item.TranscriptID,
			"keyword":       item.Keyword,
			"frequency":     item.Frequency,
		})
	}
	sqlStr, args, err := builder.BuildInsert("transcript_keywords", data)
	if err != nil {
		return err
	}
	sqlStr += " ON CONFLICT (transcript_id, keyword) DO UPDATE SET frequency = EXCLUDED.frequency"
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *KeywordRepo) ListByTranscript(ctx context.Context, transcriptID string) ([]*model.TranscriptKeyword, error) {
	where := map[string]interface{}{
		"transcript_id": transcriptID,
		"_orderby":      "frequency desc, keyword asc",
	}
	sqlStr, args, err := builder.BuildSelect("transcript_keywords", where, []string{"transcript_id", "keyword", "frequency"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*model.TranscriptKeyword
	for rows.Next() {
		var item model.TranscriptKeyword
		if err := rows.Scan(&item.TranscriptID, &item.Keyword, &item.Frequency); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// TopKeywords aggregates keyword frequency across every transcript, used
// for the insight path when the question itself carries no keywords.
func (r *KeywordRepo) TopKeywords(ctx context.Context, limit int) (map[string]int, error) {
	sqlStr, args := dbutil.Finalize(
		"SELECT keyword, SUM(frequency) AS total FROM transcript_keywords GROUP BY keyword ORDER BY total DESC LIMIT ?",
		[]interface{}{limit},
	)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[string]int)
	for rows.Next() {
		var keyword string
		var total int
		if err := rows.Scan(&keyword, &total); err != nil {
			return nil, err
		}
		result[keyword] = total
	}
	return result, rows.Err()
}

func (r *KeywordRepo) DeleteByTranscript(ctx context.Context, transcriptID string) error {
	sqlStr, args := dbutil.Finalize("DELETE FROM transcript_keywords WHERE transcript_id=?", []interface{}{transcriptID})
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
