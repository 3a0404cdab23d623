package http

import "errors"

// ErrUnauthorized is returned when the reports shared secret check fails.
var ErrUnauthorized = errors.New("unauthorized")
