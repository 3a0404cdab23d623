// Package b2 implements a native Backblaze B2 client with cached
// authorization. One session is held per client; concurrent authorize
// attempts collapse into a single in-flight handshake, and uploads retry
// exactly once on an expired token.
package b2

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/veriseal/veriseal"
)

const (
	defaultAPIBase = "https://api.backblazeb2.com"
	defaultTimeout = 30 * time.Second

	// sessionTTL stays strictly inside B2's 24 hour token expiry so a
	// cached token is refreshed before the remote side invalidates it.
	sessionTTL = 23 * time.Hour
)

// Config holds the credentials and bucket settings for a Client. KeyID and
// ApplicationKey may be left empty; the client then reports a disabled store
// instead of failing.
type Config struct {
	KeyID          string
	ApplicationKey string

	// BucketID and BucketName may be blank to trigger discovery against
	// the account's bucket list.
	BucketID   string
	BucketName string

	// PublicBaseURL overrides the download URL returned by the authorize
	// handshake when set.
	PublicBaseURL string

	// APIBase overrides the authorize endpoint, used by tests.
	APIBase string

	// Timeout bounds every remote call. Defaults to 30s.
	Timeout time.Duration
}

// Client talks to the B2 API. Safe for concurrent use.
type Client struct {
	cfg   Config
	httpc *http.Client
	sf    singleflight.Group

	mu      sync.Mutex
	session *session
	bucket  *veriseal.BucketInfo
}

func NewClient(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) hasCredentials() bool {
	return c.cfg.KeyID != "" && c.cfg.ApplicationKey != ""
}

// EnsureReady resolves credentials and bucket configuration once per process
// and returns the cached result afterwards. Missing credentials or a failed
// discovery yield a disabled store rather than an error; upload callers must
// check Enabled. Concurrent callers share one in-flight discovery.
func (c *Client) EnsureReady(ctx context.Context) veriseal.BucketInfo {
	if !c.hasCredentials() {
		return veriseal.BucketInfo{}
	}

	c.mu.Lock()
	cached := c.bucket
	c.mu.Unlock()
	if cached != nil {
		return *cached
	}

	v, err, _ := c.sf.Do("ensure-ready", func() (any, error) {
		c.mu.Lock()
		cached := c.bucket
		c.mu.Unlock()
		if cached != nil {
			return *cached, nil
		}

		info, err := c.resolveBucket(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.bucket = &info
		c.mu.Unlock()
		return info, nil
	})
	if err != nil {
		slog.Error("bucket discovery failed, store disabled", "err", err)
		return veriseal.BucketInfo{}
	}

	return v.(veriseal.BucketInfo)
}

// resolveBucket applies the discovery algorithm: explicit id+name from
// configuration wins; otherwise list all buckets and filter by id or name,
// falling back to a direct filtered lookup for restricted keys that lack the
// list permission.
func (c *Client) resolveBucket(ctx context.Context) (veriseal.BucketInfo, error) {
	s, err := c.authorize(ctx, false)
	if err != nil {
		return veriseal.BucketInfo{}, fmt.Errorf("resolve bucket: %w", err)
	}

	baseURL := c.cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = s.downloadURL
	}

	if c.cfg.BucketID != "" && c.cfg.BucketName != "" {
		return veriseal.BucketInfo{
			Enabled:       true,
			BucketID:      c.cfg.BucketID,
			BucketName:    c.cfg.BucketName,
			PublicBaseURL: baseURL,
		}, nil
	}

	b, err := c.discoverBucket(ctx, s)
	if err != nil {
		return veriseal.BucketInfo{}, fmt.Errorf("resolve bucket: %w", err)
	}

	return veriseal.BucketInfo{
		Enabled:       true,
		BucketID:      b.BucketID,
		BucketName:    b.BucketName,
		PublicBaseURL: baseURL,
	}, nil
}

func (c *Client) discoverBucket(ctx context.Context, s *session) (bucket, error) {
	buckets, err := c.listBuckets(ctx, s)
	if err == nil {
		if b, ok := matchBucket(buckets, c.cfg.BucketID, c.cfg.BucketName); ok {
			return b, nil
		}
		return bucket{}, fmt.Errorf("no bucket matches id=%q name=%q", c.cfg.BucketID, c.cfg.BucketName)
	}

	// Restricted keys cannot list the whole account; retry with an
	// explicit id or name filter.
	slog.Debug("bucket listing failed, trying direct lookup", "err", err)

	b, lookupErr := c.getBucket(ctx, s, c.cfg.BucketID, c.cfg.BucketName)
	if lookupErr != nil {
		return bucket{}, fmt.Errorf("list failed (%w) and direct lookup failed: %w", err, lookupErr)
	}
	return b, nil
}

func matchBucket(buckets []bucket, id, name string) (bucket, bool) {
	for _, b := range buckets {
		if id != "" && b.BucketID == id {
			return b, true
		}
		if name != "" && b.BucketName == name {
			return b, true
		}
	}

	// Nothing configured: fall back to the account's first bucket.
	if id == "" && name == "" && len(buckets) > 0 {
		return buckets[0], true
	}

	return bucket{}, false
}

// Upload pushes data into the bucket under the given name. It fetches a
// short-lived upload URL first, then posts the bytes. When either step fails
// with an auth-expiry signal the whole sequence is retried once with a forced
// re-authorization; every other failure propagates immediately.
func (c *Client) Upload(ctx context.Context, bkt veriseal.BucketInfo, name string, data []byte, contentType string) error {
	err := c.uploadOnce(ctx, bkt, name, data, contentType, false)

	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.authExpired() {
		slog.Debug("auth token expired, retrying upload once", "name", name)
		return c.uploadOnce(ctx, bkt, name, data, contentType, true)
	}

	return err
}

func (c *Client) uploadOnce(ctx context.Context, bkt veriseal.BucketInfo, name string, data []byte, contentType string, force bool) error {
	s, err := c.authorize(ctx, force)
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}

	target, err := c.getUploadURL(ctx, s, bkt.BucketID)
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}

	if err := c.doUpload(ctx, target, name, data, contentType); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}

	return nil
}

// authorize returns the cached session while it is inside its TTL, unless
// forced. Concurrent callers needing a fresh handshake all await the same
// in-flight operation; the slot clears on completion, success or failure.
func (c *Client) authorize(ctx context.Context, force bool) (*session, error) {
	if !force {
		c.mu.Lock()
		s := c.session
		c.mu.Unlock()
		if s != nil && !s.expired(time.Now()) {
			return s, nil
		}
	}

	v, err, _ := c.sf.Do("authorize", func() (any, error) {
		s, err := c.doAuthorize(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.session = s
		c.mu.Unlock()

		slog.Debug("authorized with remote store")
		return s, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*session), nil
}
