package filesystem_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/veriseal/veriseal"
	"github.com/veriseal/veriseal/filesystem"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reports.json")
	store := filesystem.NewStore(path)

	records := map[string]veriseal.Record{
		"abc": {
			FileName:  "r.pdf",
			Status:    veriseal.StatusOriginal,
			FileURL:   "https://f002.backblazeb2.com/file/reports/r.pdf",
			MimeType:  "application/pdf",
			CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		"def": {FileName: "seed.pdf", Status: veriseal.StatusOriginal},
	}

	assert.NoError(t, store.WriteAll(ctx, records))

	got, err := store.ReadAll(ctx)
	assert.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestStore_ReadAllErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		store := filesystem.NewStore(filepath.Join(t.TempDir(), "missing.json"))
		_, err := store.ReadAll(ctx)
		assert.Error(t, err, "a missing file must error so the registry can fall back to its seed")
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reports.json")
		assert.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		store := filesystem.NewStore(path)
		_, err := store.ReadAll(ctx)
		assert.Error(t, err)
	})

	t.Run("json null becomes empty map", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reports.json")
		assert.NoError(t, os.WriteFile(path, []byte("null"), 0o644))

		store := filesystem.NewStore(path)
		got, err := store.ReadAll(ctx)
		assert.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestStore_WriteAllReplaces(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "reports.json")
	store := filesystem.NewStore(path)

	assert.NoError(t, store.WriteAll(ctx, map[string]veriseal.Record{
		"old": {FileName: "old.pdf"},
	}))
	assert.NoError(t, store.WriteAll(ctx, map[string]veriseal.Record{
		"new": {FileName: "new.pdf"},
	}))

	got, err := store.ReadAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "new")

	// The temp file used for the atomic replace must not linger.
	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "reports.json", entries[0].Name())
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := filesystem.NewStore(filepath.Join(t.TempDir(), "reports.json"))

	_, err := store.ReadAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	err = store.WriteAll(ctx, map[string]veriseal.Record{})
	assert.ErrorIs(t, err, context.Canceled)
}
