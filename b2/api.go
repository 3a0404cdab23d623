package b2

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/veriseal/veriseal"
)

// session is one authorized exchange with the store. It is immutable once
// created; a refresh installs a new session rather than mutating this one.
type session struct {
	token       string
	accountID   string
	apiURL      string
	downloadURL string
	issuedAt    time.Time
}

func (s *session) expired(now time.Time) bool {
	return now.Sub(s.issuedAt) >= sessionTTL
}

// apiError is a non-2xx response from the B2 API.
type apiError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("b2 api error %d %s: %s", e.Status, e.Code, e.Message)
}

// authExpired reports whether the failure signals an invalid or expired
// authorization token, the only condition that warrants a retry.
func (e *apiError) authExpired() bool {
	return e.Status == http.StatusUnauthorized || e.Code == "expired_auth_token" || e.Code == "bad_auth_token"
}

type authorizeResponse struct {
	AccountID          string `json:"accountId"`
	AuthorizationToken string `json:"authorizationToken"`
	APIURL             string `json:"apiUrl"`
	DownloadURL        string `json:"downloadUrl"`
}

type bucket struct {
	BucketID   string `json:"bucketId"`
	BucketName string `json:"bucketName"`
}

type listBucketsResponse struct {
	Buckets []bucket `json:"buckets"`
}

type uploadTarget struct {
	UploadURL          string `json:"uploadUrl"`
	AuthorizationToken string `json:"authorizationToken"`
}

func (c *Client) doAuthorize(ctx context.Context) (*session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBase+"/b2api/v2/b2_authorize_account", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.ApplicationKey)

	var auth authorizeResponse
	if err := c.send(req, &auth); err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}

	return &session{
		token:       auth.AuthorizationToken,
		accountID:   auth.AccountID,
		apiURL:      auth.APIURL,
		downloadURL: auth.DownloadURL,
		issuedAt:    time.Now(),
	}, nil
}

func (c *Client) listBuckets(ctx context.Context, s *session) ([]bucket, error) {
	body := map[string]string{"accountId": s.accountID}

	var resp listBucketsResponse
	if err := c.postJSON(ctx, s, "b2_list_buckets", body, &resp); err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}

	return resp.Buckets, nil
}

// getBucket looks up a single bucket by id or name, the call restricted keys
// are still allowed to make.
func (c *Client) getBucket(ctx context.Context, s *session, id, name string) (bucket, error) {
	body := map[string]string{"accountId": s.accountID}
	switch {
	case id != "":
		body["bucketId"] = id
	case name != "":
		body["bucketName"] = name
	default:
		return bucket{}, fmt.Errorf("get bucket: no id or name configured")
	}

	var resp listBucketsResponse
	if err := c.postJSON(ctx, s, "b2_list_buckets", body, &resp); err != nil {
		return bucket{}, fmt.Errorf("get bucket: %w", err)
	}

	if len(resp.Buckets) == 0 {
		return bucket{}, fmt.Errorf("get bucket: no bucket matches id=%q name=%q", id, name)
	}

	return resp.Buckets[0], nil
}

func (c *Client) getUploadURL(ctx context.Context, s *session, bucketID string) (uploadTarget, error) {
	body := map[string]string{"bucketId": bucketID}

	var target uploadTarget
	if err := c.postJSON(ctx, s, "b2_get_upload_url", body, &target); err != nil {
		return uploadTarget{}, fmt.Errorf("get upload url: %w", err)
	}

	return target, nil
}

func (c *Client) doUpload(ctx context.Context, target uploadTarget, name string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.UploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("do upload: %w", err)
	}

	if contentType == "" {
		contentType = "b2/x-auto"
	}

	sum := sha1.Sum(data)

	req.Header.Set("Authorization", target.AuthorizationToken)
	req.Header.Set("X-Bz-File-Name", veriseal.EncodeObjectPath(name))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Bz-Content-Sha1", hex.EncodeToString(sum[:]))

	if err := c.send(req, &struct{}{}); err != nil {
		return fmt.Errorf("do upload: %w", err)
	}

	return nil
}

func (c *Client) postJSON(ctx context.Context, s *session, op string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/b2api/v2/"+op, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", s.token)
	req.Header.Set("Content-Type", "application/json")

	return c.send(req, out)
}

// send executes the request and decodes the JSON response into out. Non-2xx
// responses are decoded into an *apiError so callers can inspect the code.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(apiErr); decodeErr != nil {
			apiErr.Message = "unparseable error response"
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
