package repo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/dianehq/diane/internal/model"
	"github.com/dianehq/diane/internal/pkg/dbutil"
	appErr "github.com/dianehq/diane/internal/pkg/errors"
)

const transcriptFields = "id, filename, recording_date, content, word_count, duration_seconds, audio_key, transcript_key, ctime, mtime"

type TranscriptRepo struct {
	db *sql.DB
}

func NewTranscriptRepo(db *sql.DB) *TranscriptRepo {
	return &TranscriptRepo{db: db}
}

func (r *TranscriptRepo) Create(ctx context.Context, item *model.Transcript) error {
	data := map[string]interface{}{
		"id":               item.ID,
		"filename":         item.Filename,
		"recording_date":   item.RecordingDate,
		"content":          item.Content,
		"word_count":       item.WordCount,
		"duration_seconds": item.DurationSeconds,
		"audio_key":        item.AudioKey,
		"transcript_key":   item.TranscriptKey,
		"ctime":            item.Ctime,
		"mtime":            item.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("transcripts", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil && dbutil.IsConflict(err) {
		return appErr.ErrConflict
	}
	return err
}

func (r *TranscriptRepo) GetByID(ctx context.Context, id string) (*model.Transcript, error) {
	where := map[string]interface{}{
		"id": id,
	}
	sqlStr, args, err := builder.BuildSelect("transcripts", where, strings.Split(transcriptFields, ", "))
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanTranscript(rows)
}

func (r *TranscriptRepo) GetByFilename(ctx context.Context, filename string) (*model.Transcript, error) {
	where := map[string]interface{}{
		"filename": filename,
		"_orderby": "mtime desc",
		"_limit":   []uint{0, 1},
	}
	sqlStr, args, err := builder.BuildSelect("transcripts", where, strings.Split(transcriptFields, ", "))
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanTranscript(rows)
}

func (r *TranscriptRepo) List(ctx context.Context, offset, limit uint) ([]*model.Transcript, error) {
	where := map[string]interface{}{
		"_orderby": "recording_date desc, ctime desc",
		"_limit":   []uint{offset, limit},
	}
	sqlStr, args, err := builder.BuildSelect("transcripts", where, strings.Split(transcriptFields, ", "))
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*model.Transcript
	for rows.Next() {
		item, err := scanTranscript(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListByDateRanges returns every transcript whose recording date falls in
// any of the given ranges, oldest first. Empty ranges means no date filter.
func (r *TranscriptRepo) ListByDateRanges(ctx context.Context, ranges []model.DateWindow) ([]*model.Transcript, error) {
	sqlStr := "SELECT " + transcriptFields + " FROM transcripts"
	var args []interface{}
	if predicate, predArgs := dateRangePredicate("recording_date", ranges); predicate != "" {
		sqlStr += " WHERE " + predicate
		args = predArgs
	}
	sqlStr += " ORDER BY recording_date ASC, ctime ASC"
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*model.Transcript
	for rows.Next() {
		item, err := scanTranscript(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *TranscriptRepo) Delete(ctx context.Context, id string) error {
	sqlStr, args := dbutil.Finalize("DELETE FROM transcripts WHERE id=?", []interface{}{id})
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *TranscriptRepo) Count(ctx context.Context) (int64, error) {
	row := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transcripts")
	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func scanTranscript(rows *sql.Rows) (*model.Transcript, error) {
	var item model.Transcript
	if err := rows.Scan(
		&item.ID,
		&item.Filename,
		&item.RecordingDate,
		&item.Content,
		&item.WordCount,
		&item.DurationSeconds,
		&item.AudioKey,
		&item.TranscriptKey,
		&item.Ctime,
		&item.Mtime,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func dateRangePredicate(column string, ranges []model.DateWindow) (string, []interface{}) {
	if len(ranges) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(ranges))
	args := make([]interface{}, 0, len(ranges)*2)
	for _, r := range ranges {
		parts = append(parts, "("+column+" >= ? AND "+column+" <= ?)")
		args = append(args, dateOnly(r.Start), dateOnly(r.End))
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// recording_date is a DATE column, compare on the day not the instant
func dateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}
