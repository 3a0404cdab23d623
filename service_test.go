package veriseal_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/veriseal/veriseal"
)

type SpyObjectStore struct {
	mock.Mock
}

func (s *SpyObjectStore) EnsureReady(ctx context.Context) veriseal.BucketInfo {
	args := s.Called(ctx)
	return args.Get(0).(veriseal.BucketInfo)
}

func (s *SpyObjectStore) Upload(ctx context.Context, bucket veriseal.BucketInfo, name string, data []byte, contentType string) error {
	args := s.Called(ctx, bucket, name, data, contentType)
	return args.Error(0)
}

func enabledBucket() veriseal.BucketInfo {
	return veriseal.BucketInfo{
		Enabled:       true,
		BucketID:      "bkt1",
		BucketName:    "reports",
		PublicBaseURL: "https://f002.backblazeb2.com",
	}
}

func NewTestService(t *testing.T) (*veriseal.Service, *veriseal.Registry, *SpyObjectStore) {
	t.Helper()
	registry := veriseal.NewRegistry(&fakeRegistryStore{})
	store := new(SpyObjectStore)
	return veriseal.NewService(registry, store), registry, store
}

func TestService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("empty buffer rejected", func(t *testing.T) {
		service, _, store := NewTestService(t)

		_, err := service.Upload(ctx, veriseal.UploadInput{})
		assert.ErrorIs(t, err, veriseal.ErrNoFile)
		store.AssertNotCalled(t, "Upload")
	})

	t.Run("disabled store rejected", func(t *testing.T) {
		service, _, store := NewTestService(t)
		store.On("EnsureReady", ctx).Return(veriseal.BucketInfo{})

		_, err := service.Upload(ctx, veriseal.UploadInput{Data: []byte("x"), FileName: "r.pdf"})
		assert.ErrorIs(t, err, veriseal.ErrStoreDisabled)
		store.AssertNotCalled(t, "Upload")
	})

	t.Run("fingerprint defaults to sha256 of content", func(t *testing.T) {
		service, registry, store := NewTestService(t)
		data := []byte("report body")
		store.On("EnsureReady", ctx).Return(enabledBucket())
		store.On("Upload", ctx, enabledBucket(), "r.pdf", data, "application/pdf").Return(nil)

		result, err := service.Upload(ctx, veriseal.UploadInput{
			Data:     data,
			FileName: "r.pdf",
			MimeType: "application/pdf",
		})
		assert.NoError(t, err)

		sum := sha256.Sum256(data)
		wantHash := hex.EncodeToString(sum[:])
		assert.Equal(t, wantHash, result.Hash)
		assert.Equal(t, "r.pdf", result.FileName)
		assert.Equal(t, "https://f002.backblazeb2.com/file/reports/r.pdf", result.FileURL)
		assert.Equal(t, int64(len(data)), result.Size)

		rec, ok := registry.Get(wantHash)
		assert.True(t, ok)
		assert.Equal(t, veriseal.StatusOriginal, rec.Status)
		assert.Equal(t, result.FileURL, rec.FileURL)
		assert.False(t, rec.CreatedAt.IsZero())

		store.AssertExpectations(t)
	})

	t.Run("caller hash used verbatim", func(t *testing.T) {
		service, registry, store := NewTestService(t)
		store.On("EnsureReady", ctx).Return(enabledBucket())
		store.On("Upload", ctx, enabledBucket(), "r.pdf", mock.Anything, "").Return(nil)

		result, err := service.Upload(ctx, veriseal.UploadInput{
			Data:     []byte("x"),
			Hash:     "caller-supplied",
			FileName: "r.pdf",
		})
		assert.NoError(t, err)
		assert.Equal(t, "caller-supplied", result.Hash)

		_, ok := registry.Get("caller-supplied")
		assert.True(t, ok)
	})

	t.Run("storage name falls back target then file then literal", func(t *testing.T) {
		tt := []struct {
			Name   string
			Target string
			File   string
			Want   string
		}{
			{Name: "target wins", Target: "dir/custom.pdf", File: "orig.pdf", Want: "dir/custom.pdf"},
			{Name: "file name fallback", Target: "", File: "orig.pdf", Want: "orig.pdf"},
			{Name: "literal fallback", Target: "", File: "", Want: "file"},
		}

		for _, tc := range tt {
			t.Run(tc.Name, func(t *testing.T) {
				service, _, store := NewTestService(t)
				store.On("EnsureReady", ctx).Return(enabledBucket())
				store.On("Upload", ctx, enabledBucket(), tc.Want, mock.Anything, "").Return(nil)

				result, err := service.Upload(ctx, veriseal.UploadInput{
					Data:       []byte("x"),
					TargetName: tc.Target,
					FileName:   tc.File,
				})
				assert.NoError(t, err)
				assert.Equal(t, tc.Want, result.FileName)
				store.AssertExpectations(t)
			})
		}
	})

	t.Run("file url encodes segments and keeps separators", func(t *testing.T) {
		service, _, store := NewTestService(t)
		store.On("EnsureReady", ctx).Return(enabledBucket())
		store.On("Upload", ctx, enabledBucket(), "a/b c.pdf", mock.Anything, "").Return(nil)

		result, err := service.Upload(ctx, veriseal.UploadInput{
			Data:       []byte("x"),
			TargetName: "a/b c.pdf",
		})
		assert.NoError(t, err)
		assert.Equal(t, "https://f002.backblazeb2.com/file/reports/a/b%20c.pdf", result.FileURL)
	})

	t.Run("remote failure registers nothing", func(t *testing.T) {
		service, registry, store := NewTestService(t)
		store.On("EnsureReady", ctx).Return(enabledBucket())
		store.On("Upload", ctx, enabledBucket(), "r.pdf", mock.Anything, "").Return(errors.New("b2 down"))

		before := registry.Len()
		_, err := service.Upload(ctx, veriseal.UploadInput{Data: []byte("x"), FileName: "r.pdf"})
		assert.ErrorIs(t, err, veriseal.ErrUploadFailed)
		assert.Equal(t, before, registry.Len())
	})

	t.Run("registry persist failure does not fail the upload", func(t *testing.T) {
		registry := veriseal.NewRegistry(&fakeRegistryStore{writeErr: errors.New("disk full")})
		store := new(SpyObjectStore)
		service := veriseal.NewService(registry, store)

		store.On("EnsureReady", ctx).Return(enabledBucket())
		store.On("Upload", ctx, enabledBucket(), "r.pdf", mock.Anything, "").Return(nil)

		result, err := service.Upload(ctx, veriseal.UploadInput{Data: []byte("x"), FileName: "r.pdf"})
		assert.NoError(t, err)

		rec, ok := registry.Get(result.Hash)
		assert.True(t, ok, "record must be served from memory despite the failed persist")
		assert.Equal(t, "r.pdf", rec.FileName)
	})
}

func TestService_Verify(t *testing.T) {
	service, registry, _ := NewTestService(t)
	assert.NoError(t, registry.Put(context.Background(), "abc", veriseal.Record{FileName: "r.pdf"}))

	t.Run("known fingerprint", func(t *testing.T) {
		rec, ok := service.Verify("abc")
		assert.True(t, ok)
		assert.Equal(t, "r.pdf", rec.FileName)
	})

	t.Run("unknown fingerprint", func(t *testing.T) {
		_, ok := service.Verify("nope")
		assert.False(t, ok)
	})
}

func TestService_ResolveFileLocation(t *testing.T) {
	service, registry, _ := NewTestService(t)
	assert.NoError(t, registry.Put(context.Background(), "abc", veriseal.Record{
		FileName: "r.pdf",
		FileURL:  "https://f002.backblazeb2.com/file/reports/r.pdf",
	}))

	t.Run("resolves stored url", func(t *testing.T) {
		url, err := service.ResolveFileLocation("abc")
		assert.NoError(t, err)
		assert.Equal(t, "https://f002.backblazeb2.com/file/reports/r.pdf", url)
	})

	t.Run("unknown fingerprint", func(t *testing.T) {
		_, err := service.ResolveFileLocation("nope")
		assert.ErrorIs(t, err, veriseal.ErrNotFound)
	})

	t.Run("record without url", func(t *testing.T) {
		// The seed entry verifies but has no stored file.
		_, err := service.ResolveFileLocation(veriseal.SeedFingerprint)
		assert.ErrorIs(t, err, veriseal.ErrNotFound)
	})
}

func TestService_StoreConfig(t *testing.T) {
	ctx := context.Background()
	service, _, store := NewTestService(t)
	store.On("EnsureReady", ctx).Return(enabledBucket())

	info := service.StoreConfig(ctx)
	assert.True(t, info.Enabled)
	assert.Equal(t, "reports", info.BucketName)
}
