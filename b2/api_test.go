package b2

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionExpired(t *testing.T) {
	now := time.Now()

	tt := []struct {
		Name string
		Age  time.Duration
		Want bool
	}{
		{Name: "fresh", Age: time.Minute, Want: false},
		{Name: "just inside ttl", Age: sessionTTL - time.Second, Want: false},
		{Name: "at ttl", Age: sessionTTL, Want: true},
		{Name: "past ttl", Age: 25 * time.Hour, Want: true},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			s := &session{issuedAt: now.Add(-tc.Age)}
			assert.Equal(t, tc.Want, s.expired(now))
		})
	}
}

func TestAPIErrorAuthExpired(t *testing.T) {
	tt := []struct {
		Name string
		Err  apiError
		Want bool
	}{
		{Name: "status 401", Err: apiError{Status: http.StatusUnauthorized}, Want: true},
		{Name: "expired token code", Err: apiError{Status: http.StatusBadRequest, Code: "expired_auth_token"}, Want: true},
		{Name: "bad token code", Err: apiError{Status: http.StatusBadRequest, Code: "bad_auth_token"}, Want: true},
		{Name: "server error", Err: apiError{Status: http.StatusServiceUnavailable, Code: "service_unavailable"}, Want: false},
		{Name: "cap exceeded", Err: apiError{Status: http.StatusForbidden, Code: "cap_exceeded"}, Want: false},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Want, tc.Err.authExpired())
		})
	}
}

func TestMatchBucket(t *testing.T) {
	buckets := []bucket{
		{BucketID: "bkt1", BucketName: "first"},
		{BucketID: "bkt2", BucketName: "reports"},
	}

	t.Run("by id", func(t *testing.T) {
		b, ok := matchBucket(buckets, "bkt2", "")
		assert.True(t, ok)
		assert.Equal(t, "reports", b.BucketName)
	})

	t.Run("by name", func(t *testing.T) {
		b, ok := matchBucket(buckets, "", "reports")
		assert.True(t, ok)
		assert.Equal(t, "bkt2", b.BucketID)
	})

	t.Run("nothing configured takes first", func(t *testing.T) {
		b, ok := matchBucket(buckets, "", "")
		assert.True(t, ok)
		assert.Equal(t, "bkt1", b.BucketID)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := matchBucket(buckets, "", "missing")
		assert.False(t, ok)
	})

	t.Run("empty list", func(t *testing.T) {
		_, ok := matchBucket(nil, "", "")
		assert.False(t, ok)
	})
}

func TestAuthorizeRefreshesStaleSession(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]string{
			"accountId":          "acct1",
			"authorizationToken": "fresh-tok",
			"apiUrl":             "https://api.example.com",
			"downloadUrl":        "https://dl.example.com",
		})
	}))
	defer srv.Close()

	c := NewClient(Config{KeyID: "key", ApplicationKey: "secret", APIBase: srv.URL})
	c.session = &session{token: "stale-tok", issuedAt: time.Now().Add(-sessionTTL)}

	s, err := c.authorize(context.Background(), false)
	assert.NoError(t, err)
	assert.Equal(t, "fresh-tok", s.token)
	assert.Equal(t, 1, calls)

	// Inside the TTL the cached session is reused without a remote call.
	s2, err := c.authorize(context.Background(), false)
	assert.NoError(t, err)
	assert.Same(t, s, s2)
	assert.Equal(t, 1, calls)
}
