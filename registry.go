package veriseal

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// SeedFingerprint is the placeholder entry the registry falls back to when its
// backing store cannot be read. It keeps /verify serviceable from first boot.
const SeedFingerprint = "123abc"

func seedRecords() map[string]Record {
	return map[string]Record{
		SeedFingerprint: {
			FileName: "seed-report.pdf",
			Status:   StatusOriginal,
		},
	}
}

// RegistryStore persists the full fingerprint map. The registry rewrites the
// whole map on every mutation; stores never see partial updates.
type RegistryStore interface {
	// ReadAll returns the complete persisted map. A missing or unreadable
	// store must return an error, not an empty map.
	ReadAll(ctx context.Context) (map[string]Record, error)

	// WriteAll replaces the persisted state with the given map.
	WriteAll(ctx context.Context, records map[string]Record) error
}

// Registry owns the in-memory fingerprint → record map and writes it through
// to its store after every mutation. The in-memory map stays authoritative
// even when persistence is failing.
type Registry struct {
	mu      sync.Mutex
	records map[string]Record
	store   RegistryStore
}

func NewRegistry(store RegistryStore) *Registry {
	return &Registry{
		records: seedRecords(),
		store:   store,
	}
}

// Load reads the persisted map from the store. On any read failure the
// registry keeps the seed map so the service can always start and serve
// lookups for at least the seed entry.
func (r *Registry) Load(ctx context.Context) {
	records, err := r.store.ReadAll(ctx)
	if err != nil {
		slog.Warn("registry store unreadable, starting from seed", "err", err)
		return
	}

	r.mu.Lock()
	r.records = records
	r.mu.Unlock()
}

// Get looks up a record by fingerprint. No side effects.
func (r *Registry) Get(fingerprint string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[fingerprint]
	return rec, ok
}

// Put overwrites the record for a fingerprint unconditionally, then persists
// the full map synchronously. The in-memory map is updated even when the
// persist fails; the returned error reports the persistence outcome only so
// callers can decide whether to log or escalate.
func (r *Registry) Put(ctx context.Context, fingerprint string, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[fingerprint] = rec

	if err := r.store.WriteAll(ctx, r.snapshotLocked()); err != nil {
		return fmt.Errorf("persist registry: %w", err)
	}

	return nil
}

// List returns all records with their fingerprints attached, newest first.
// Records with a zero timestamp sort as oldest. Ties break on fingerprint so
// the order is stable.
func (r *Registry) List() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	reports := make([]Report, 0, len(r.records))
	for hash, rec := range r.records {
		reports = append(reports, Report{Hash: hash, Record: rec})
	}

	sort.Slice(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Hash < b.Hash
	})

	return reports
}

// Len reports the number of registered records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *Registry) snapshotLocked() map[string]Record {
	snapshot := make(map[string]Record, len(r.records))
	for k, v := range r.records {
		snapshot[k] = v
	}
	return snapshot
}
