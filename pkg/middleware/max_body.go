package middleware

import (
	"net/http"

	httputil "reserva/pkg/http"
)

// MaxRequestSize caps the request body. Reads past the limit fail and
// the connection is closed by MaxBytesReader.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, httputil.ErrorResponse{
					Error: "Request body too large",
				})
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
