package repo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dianehq/diane/internal/model"
	appErr "github.com/dianehq/diane/internal/pkg/errors"
	"github.com/dianehq/diane/internal/repo"
	"github.com/dianehq/diane/test/testutil"
)

func newTestTranscript(id string, date time.Time, content string) *model.Transcript {
	now := time.Now().Unix()
	return &model.Transcript{
		ID:            id,
		Filename:      fmt.Sprintf("%s_%s.mp3", date.Format("2006-01-02"), id),
		RecordingDate: date,
		Content:       content,
		WordCount:     3,
		Ctime:         now,
		Mtime:         now,
	}
}

func TestTranscriptRepoCRUD(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	transcripts := repo.NewTranscriptRepo(db)
	ctx := context.Background()
	date := time.Date(2023, time.October, 5, 0, 0, 0, 0, time.UTC)

	item := newTestTranscript("tr-crud-1", date, "went to the dentist")
	require.NoError(t, transcripts.Create(ctx, item))
	defer func() { _ = transcripts.Delete(ctx, item.ID) }()

	fetched, err := transcripts.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, item.Content, fetched.Content)
	require.Equal(t, "2023-10-05", fetched.RecordingDate.Format("2006-01-02"))

	require.ErrorIs(t, transcripts.Create(ctx, item), appErr.ErrConflict)

	require.NoError(t, transcripts.Delete(ctx, item.ID))
	_, err = transcripts.GetByID(ctx, item.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.ErrorIs(t, transcripts.Delete(ctx, item.ID), appErr.ErrNotFound)
}

func TestTranscriptRepoListByDateRanges(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	transcripts := repo.NewTranscriptRepo(db)
	ctx := context.Background()

	items := []*model.Transcript{
		newTestTranscript("tr-range-1", time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC), "pizza day"),
		newTestTranscript("tr-range-2", time.Date(2023, time.June, 20, 0, 0, 0, 0, time.UTC), "gym day"),
		newTestTranscript("tr-range-3", time.Date(2023, time.July, 2, 0, 0, 0, 0, time.UTC), "beach day"),
	}
	for _, item := range items {
		require.NoError(t, transcripts.Create(ctx, item))
	}
	defer func() {
		for _, item := range items {
			_ = transcripts.Delete(ctx, item.ID)
		}
	}()

	june := model.DateWindow{
		Start: time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, time.June, 30, 23, 59, 59, 0, time.UTC),
	}
	got, err := transcripts.ListByDateRanges(ctx, []model.DateWindow{june})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "tr-range-1", got[0].ID)
	require.Equal(t, "tr-range-2", got[1].ID)

	all, err := transcripts.ListByDateRanges(ctx, nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(all), 3)
}
