package e2e_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/veriseal/veriseal"
	"github.com/veriseal/veriseal/database"
)

var tableSeq int

// newPostgresStore connects a registry store against the shared container,
// each call with its own table so tests stay independent.
func newPostgresStore(t *testing.T) veriseal.RegistryStore {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	tableSeq++
	store, cleanup, err := database.Connect(context.Background(), database.Config{
		Type:  "postgres",
		DSN:   getSharedPostgresDSN(t),
		Table: fmt.Sprintf("veriseal_reports_%d", tableSeq),
	})
	assert.NoError(t, err)
	t.Cleanup(cleanup)
	return store
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newPostgresStore(t)

	created := time.Date(2026, 3, 1, 12, 0, 0, 123456000, time.UTC)
	records := map[string]veriseal.Record{
		"abc": {
			FileName:  "r.pdf",
			Status:    veriseal.StatusOriginal,
			FileURL:   "https://f002.backblazeb2.com/file/reports/r.pdf",
			MimeType:  "application/pdf",
			CreatedAt: created,
		},
		"def": {FileName: "seed.pdf", Status: veriseal.StatusOriginal},
	}

	assert.NoError(t, store.WriteAll(ctx, records))

	got, err := store.ReadAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "r.pdf", got["abc"].FileName)
	assert.Equal(t, records["abc"].FileURL, got["abc"].FileURL)
	assert.True(t, got["abc"].CreatedAt.Equal(created))
	assert.Empty(t, got["def"].FileURL, "null columns read back as empty strings")
	assert.Empty(t, got["def"].MimeType)
}

func TestPostgresStore_WriteReplaces(t *testing.T) {
	ctx := context.Background()
	store := newPostgresStore(t)

	assert.NoError(t, store.WriteAll(ctx, map[string]veriseal.Record{
		"old": {FileName: "old.pdf", Status: veriseal.StatusOriginal},
	}))
	assert.NoError(t, store.WriteAll(ctx, map[string]veriseal.Record{
		"new": {FileName: "new.pdf", Status: veriseal.StatusOriginal},
	}))

	got, err := store.ReadAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "new")
}

func TestPostgresStore_RegistryIntegration(t *testing.T) {
	ctx := context.Background()
	store := newPostgresStore(t)

	registry := veriseal.NewRegistry(store)
	assert.NoError(t, registry.Put(ctx, "abc", veriseal.Record{
		FileName:  "r.pdf",
		Status:    veriseal.StatusOriginal,
		CreatedAt: time.Now().UTC(),
	}))

	// A second registry over the same store sees the persisted map.
	reloaded := veriseal.NewRegistry(store)
	reloaded.Load(ctx)

	rec, ok := reloaded.Get("abc")
	assert.True(t, ok)
	assert.Equal(t, "r.pdf", rec.FileName)
	assert.Equal(t, 2, reloaded.Len(), "registered record plus the persisted seed entry")
}
