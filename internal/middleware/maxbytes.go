package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes is the default maximum request body size (1 MiB).
// Asset payloads are small field maps; anything near this limit is a
// misbehaving client, not a legitimate record.
const DefaultMaxBodyBytes = 1 << 20

// MaxBytes caps the request body at maxBytes; an oversized body gets 413.
// Applied to every route that decodes a body (auth and asset writes).
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
