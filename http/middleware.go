package http

import (
	"crypto/subtle"
	"net/http"
)

// SecretMiddleware guards a route group with a shared secret, accepted either
// as an X-Reports-Key header or a "key" query parameter. An empty configured
// secret keeps the group closed entirely.
func SecretMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				HandleError(w, ErrUnauthorized)
				return
			}

			presented := r.Header.Get("X-Reports-Key")
			if presented == "" {
				presented = r.URL.Query().Get("key")
			}

			if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
				HandleError(w, ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
