package veriseal_test

import (
	"testing"

	"github.com/veriseal/veriseal"
)

func TestEncodeObjectPath(t *testing.T) {
	tt := []struct {
		Name string
		In   string
		Want string
	}{
		{Name: "plain name", In: "report.pdf", Want: "report.pdf"},
		{Name: "space in segment", In: "a/b c.pdf", Want: "a/b%20c.pdf"},
		{Name: "separators preserved", In: "reports/2024/q1.pdf", Want: "reports/2024/q1.pdf"},
		{Name: "spaces in multiple segments", In: "my reports/final copy.pdf", Want: "my%20reports/final%20copy.pdf"},
		{Name: "empty name", In: "", Want: ""},
		{Name: "leading slash keeps empty segment", In: "/a.pdf", Want: "/a.pdf"},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			got := veriseal.EncodeObjectPath(tc.In)
			if got != tc.Want {
				t.Errorf("EncodeObjectPath(%q) = %q, want %q", tc.In, got, tc.Want)
			}
		})
	}
}

func TestPublicFileURL(t *testing.T) {
	tt := []struct {
		Name    string
		Base    string
		Bucket  string
		Storage string
		Want    string
	}{
		{
			Name: "simple", Base: "https://f002.backblazeb2.com", Bucket: "reports", Storage: "r.pdf",
			Want: "https://f002.backblazeb2.com/file/reports/r.pdf",
		},
		{
			Name: "trailing slash trimmed", Base: "https://cdn.example.com/", Bucket: "reports", Storage: "r.pdf",
			Want: "https://cdn.example.com/file/reports/r.pdf",
		},
		{
			Name: "nested name with space", Base: "https://f002.backblazeb2.com", Bucket: "reports", Storage: "a/b c.pdf",
			Want: "https://f002.backblazeb2.com/file/reports/a/b%20c.pdf",
		},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			got := veriseal.PublicFileURL(tc.Base, tc.Bucket, tc.Storage)
			if got != tc.Want {
				t.Errorf("PublicFileURL() = %q, want %q", got, tc.Want)
			}
		})
	}
}
