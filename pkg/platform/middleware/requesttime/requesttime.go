// Package requesttime fixes one "now" per request so claim, lease and event
// timestamps written during a request agree.
package requesttime

import (
	"net/http"
	"time"

	"phasegarden/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
