package veriseal

import (
	"net/url"
	"strings"
)

// EncodeObjectPath percent-encodes each '/'-separated segment of a storage
// name while preserving the separators, so "a/b c.pdf" becomes "a/b%20c.pdf".
func EncodeObjectPath(name string) string {
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// PublicFileURL joins the store's public base URL, the literal "file" path
// segment, the escaped bucket name, and the encoded storage name into the
// public download URL for an uploaded object.
func PublicFileURL(baseURL, bucketName, storageName string) string {
	return strings.TrimSuffix(baseURL, "/") + "/file/" + url.PathEscape(bucketName) + "/" + EncodeObjectPath(storageName)
}
