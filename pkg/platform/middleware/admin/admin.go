package admin

import (
	"log/slog"
	"net/http"
	"strings"

	"phasegarden/pkg/requestcontext"
)

// TokenValidator returns the operator subject for a valid bearer token.
type TokenValidator interface {
	Validate(raw string) (string, error)
}

// RequireOperator rejects requests without a valid operator bearer token and
// stores the operator subject on the context.
func RequireOperator(tokens TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, "bearer token required")
				return
			}
			operator, err := tokens.Validate(raw)
			if err != nil {
				logger.WarnContext(ctx, "admin token rejected",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthorized(w, "invalid admin token")
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithOperator(ctx, operator)))
		})
	}
}

func bearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="phasegarden-admin"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
