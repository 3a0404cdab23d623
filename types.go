package veriseal

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// StatusOriginal marks a record created from a direct upload. It is the only
// status the service currently writes.
const StatusOriginal = "original"

// Record is the stored value for one fingerprint: the metadata of a file that
// was uploaded and registered. Records are overwritten whole on re-upload of
// the same fingerprint, never merged.
type Record struct {
	FileName  string    `json:"fileName"`
	Status    string    `json:"status"`
	FileURL   string    `json:"fileUrl,omitempty"`
	MimeType  string    `json:"mimeType,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Report is a Record with its fingerprint attached, as returned by listings.
type Report struct {
	Hash string `json:"hash"`
	Record
}

// BucketInfo is the resolved remote-store configuration. Enabled is true only
// when credentials are present and a bucket has been resolved; every upload
// path must check it before proceeding.
type BucketInfo struct {
	Enabled       bool
	BucketID      string
	BucketName    string
	PublicBaseURL string
}

// UploadInput carries one inbound upload through the orchestrator.
type UploadInput struct {
	// Data is the raw file content. An empty buffer is rejected.
	Data []byte
	// Hash is an optional caller-supplied fingerprint. When empty the
	// SHA-256 of Data is used.
	Hash string
	// TargetName is an optional storage name. It may contain '/' to place
	// the object under a directory-like prefix.
	TargetName string
	// FileName is the original name from the multipart part, used as the
	// storage name when TargetName is empty.
	FileName string
	// MimeType is the declared content type of the upload.
	MimeType string
}

// UploadResult is returned to the caller after a successful upload.
type UploadResult struct {
	Hash     string `json:"hash"`
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size"`
}

// Tables holds configurable table names for database-backed registry stores.
type Tables struct {
	Reports string `mapstructure:"reports"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric
// with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Reports == "" {
		return errors.New("validate tables: reports table name cannot be empty")
	}

	if !IsValidTableName(t.Reports) {
		return fmt.Errorf("validate tables: invalid reports table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Reports)
	}

	return nil
}
