package veriseal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// ObjectStore is the remote storage the service uploads files into. EnsureReady
// reports a disabled store instead of failing; Upload is expected to handle its
// own auth refresh and bounded retry.
type ObjectStore interface {
	EnsureReady(ctx context.Context) BucketInfo
	Upload(ctx context.Context, bucket BucketInfo, name string, data []byte, contentType string) error
}

// Service glues uploads to the fingerprint registry and answers verification
// lookups. Lookups never contact the remote store.
type Service struct {
	registry *Registry
	store    ObjectStore
}

func NewService(registry *Registry, store ObjectStore) *Service {
	return &Service{
		registry: registry,
		store:    store,
	}
}

// Upload stores the inbound buffer remotely and registers its fingerprint.
//
// The fingerprint is the caller-supplied hash when present, otherwise the
// SHA-256 of the buffer. The storage name falls back from TargetName to the
// original file name to "file". A registry persist failure is logged and
// swallowed; the in-memory record is still served for the process lifetime.
func (s *Service) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	if len(in.Data) == 0 {
		return UploadResult{}, fmt.Errorf("upload: %w", ErrNoFile)
	}

	bucket := s.store.EnsureReady(ctx)
	if !bucket.Enabled {
		return UploadResult{}, fmt.Errorf("upload: %w", ErrStoreDisabled)
	}

	fingerprint := in.Hash
	if fingerprint == "" {
		sum := sha256.Sum256(in.Data)
		fingerprint = hex.EncodeToString(sum[:])
	}

	storageName := in.TargetName
	if storageName == "" {
		storageName = in.FileName
	}
	if storageName == "" {
		storageName = "file"
	}

	if err := s.store.Upload(ctx, bucket, storageName, in.Data, in.MimeType); err != nil {
		slog.Error("remote upload failed", "name", storageName, "err", err)
		return UploadResult{}, fmt.Errorf("upload %s: %w", storageName, ErrUploadFailed)
	}

	fileURL := PublicFileURL(bucket.PublicBaseURL, bucket.BucketName, storageName)

	rec := Record{
		FileName:  storageName,
		Status:    StatusOriginal,
		FileURL:   fileURL,
		MimeType:  in.MimeType,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.registry.Put(ctx, fingerprint, rec); err != nil {
		slog.Warn("registry persist failed, record kept in memory", "hash", fingerprint, "err", err)
	}

	return UploadResult{
		Hash:     fingerprint,
		FileName: storageName,
		FileURL:  fileURL,
		MimeType: in.MimeType,
		Size:     int64(len(in.Data)),
	}, nil
}

// Verify reports whether a fingerprint has a registered record.
func (s *Service) Verify(fingerprint string) (Record, bool) {
	return s.registry.Get(fingerprint)
}

// ResolveFileLocation returns the stored public URL for a fingerprint. A
// missing record, or a record without a stored URL (such as the seed entry),
// yields ErrNotFound.
func (s *Service) ResolveFileLocation(fingerprint string) (string, error) {
	rec, ok := s.registry.Get(fingerprint)
	if !ok || rec.FileURL == "" {
		return "", fmt.Errorf("resolve %s: %w", fingerprint, ErrNotFound)
	}
	return rec.FileURL, nil
}

// Reports lists all registered records, newest first.
func (s *Service) Reports() []Report {
	return s.registry.List()
}

// StoreConfig surfaces the resolved remote-store state for the /config route.
func (s *Service) StoreConfig(ctx context.Context) BucketInfo {
	return s.store.EnsureReady(ctx)
}
