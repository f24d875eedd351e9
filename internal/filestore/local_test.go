package filestore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dianehq/diane/internal/config"
)

type memReader struct {
	*bytes.Reader
}

func (memReader) Close() error { return nil }

func newLocalStore(t *testing.T) Store {
	store, err := New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	return store
}

func TestLocalSaveRewindsConsumedReader(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	content := "full audio payload"
	r := memReader{bytes.NewReader([]byte(content))}
	// transcription drains the reader before the archive step
	_, err := io.Copy(io.Discard, r)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "rec-1_morning.mp3", r, int64(len(content))))

	file, err := store.Open(ctx, "rec-1_morning.mp3")
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestLocalDeleteMissingKey(t *testing.T) {
	store := newLocalStore(t)
	assert.NoError(t, store.Delete(context.Background(), "never-saved.txt"))
}

func TestValidKeyRejectsPathSeparators(t *testing.T) {
	assert.Error(t, validKey("a/b"))
	assert.Error(t, validKey(`a\b`))
	assert.Error(t, validKey(""))
	assert.NoError(t, validKey("rec-1_morning.mp3"))
}
