package filestore_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/model-agency/internal/config"
	"github.com/oggyb/model-agency/internal/filestore"
)

func newStore(t *testing.T) *filestore.Local {
	t.Helper()
	cfg := config.Defaults()
	cfg.Upload.Dir = t.TempDir()
	cfg.Upload.ThumbSize = 16
	store, err := filestore.NewLocal(cfg)
	require.NoError(t, err)
	return store
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveAndRemove(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	n, err := store.Save(ctx, "a.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.True(t, store.Exists("a.jpg"))
	assert.Equal(t, "/uploads/a.jpg", store.URL("a.jpg"))

	require.NoError(t, store.Remove(ctx, "a.jpg"))
	assert.False(t, store.Exists("a.jpg"))

	// already gone
	assert.NoError(t, store.Remove(ctx, "a.jpg"))
}

func TestRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for _, name := range []string{"../escape.jpg", "sub/dir.jpg", ".hidden", ""} {
		_, err := store.Save(ctx, name, strings.NewReader("x"))
		assert.ErrorIs(t, err, filestore.ErrInvalidName, name)
	}
}

func TestThumbnail(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Save(ctx, "big.png", bytes.NewReader(pngBytes(t, 64, 32)))
	require.NoError(t, err)

	thumb, err := store.Thumbnail(ctx, "big.png")
	require.NoError(t, err)
	assert.Equal(t, "thumb_big.jpg", thumb)

	f, err := os.Open(filepath.Join(store.Dir(), thumb))
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 8, cfg.Height)
}

func TestThumbnailUndecodable(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Save(ctx, "fake.png", strings.NewReader("not an image"))
	require.NoError(t, err)

	_, err = store.Thumbnail(ctx, "fake.png")
	assert.Error(t, err)
}

func TestListSkipsTempFiles(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, _ = store.Save(ctx, "b.jpg", strings.NewReader("b"))
	_, _ = store.Save(ctx, "a.jpg", strings.NewReader("a"))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), ".upload-123"), []byte("tmp"), 0o644))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, names)
}
