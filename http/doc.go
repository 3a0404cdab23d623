// Package http provides the HTTP surface of the veriseal service: upload,
// fingerprint verification, file redirects, and the guarded report listing.
package http
