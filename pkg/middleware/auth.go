package middleware

import (
	"net/http"

	"carelink/pkg/auth"
	apperrors "carelink/pkg/errors"
	httputil "carelink/pkg/http"
	"carelink/pkg/logger"
)

// Authenticate resolves the bearer credential into a Principal once per
// request. With required unset, anonymous requests pass through and only a
// presented but invalid token is rejected.
func Authenticate(verifier auth.Verifier, required bool, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r.Header.Get("Authorization"))

			if token == "" {
				if required {
					rejectUnauthenticated(w, r, log, "Authentication required")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			principal, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Warn("Token verification failed",
					"request_id", RequestID(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				rejectUnauthenticated(w, r, log, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

func rejectUnauthenticated(w http.ResponseWriter, r *http.Request, log *logger.Logger, message string) {
	if err := httputil.WriteError(w, apperrors.Unauthorized(message)); err != nil {
		log.Error("failed to write error response", "handler", "Authenticate", "operation", "WriteError",
			"request_id", RequestID(r.Context()), "error", err)
	}
}
