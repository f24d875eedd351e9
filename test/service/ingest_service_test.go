package service_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dianehq/diane/internal/ai"
	"github.com/dianehq/diane/internal/config"
	"github.com/dianehq/diane/internal/filestore"
	appErr "github.com/dianehq/diane/internal/pkg/errors"
	"github.com/dianehq/diane/internal/repo"
	"github.com/dianehq/diane/internal/service"
	"github.com/dianehq/diane/test/testutil"
)

type noteFile struct {
	*bytes.Reader
}

func (noteFile) Close() error { return nil }

func memNote(content string) filestore.ReadSeekCloser {
	return noteFile{Reader: bytes.NewReader([]byte(content))}
}

func TestIngestServiceNoteDedupe(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	transcripts := repo.NewTranscriptRepo(db)
	keywords := repo.NewKeywordRepo(db)
	chunks := repo.NewChunkRepo(db)
	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	// no providers configured, keyword extraction and embedding degrade to
	// best effort and the chunks stay pending
	manager := ai.NewManager(nil, nil, nil, nil, ai.ManagerConfig{})

	ingest := service.NewIngestService(transcripts, keywords, chunks, manager, store, service.IngestConfig{})
	ctx := context.Background()

	content := "saw the dentist today, no cavities"
	item, err := ingest.Ingest(ctx, "2023-10-05_note.txt", memNote(content), int64(len(content)))
	require.NoError(t, err)
	defer func() { _ = ingest.Delete(ctx, item.ID) }()
	require.Equal(t, "2023-10-05", item.RecordingDate.Format("2006-01-02"))

	// re-running the same file is rejected before any model call
	_, err = ingest.Ingest(ctx, "2023-10-05_note.txt", memNote(content), int64(len(content)))
	require.ErrorIs(t, err, appErr.ErrConflict)

	got, err := transcripts.GetByFilename(ctx, "2023-10-05_note.txt")
	require.NoError(t, err)
	require.Equal(t, item.ID, got.ID)

	total, err := ingest.Count(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, total, int64(1))
}
