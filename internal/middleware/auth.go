package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"recordvault/internal/auth"
	"recordvault/internal/httputil"
)

// Auth middleware validates the bearer token on every request and stores the
// authenticated account ID in the request context. Requests without a valid
// token are rejected with 401 before reaching any handler.
func Auth(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			claims, err := verifier.VerifyToken(tokenString)
			if err != nil {
				logger.Debug("token verification failed",
					"path", r.URL.Path,
					"error", err,
				)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithOwnerID(r, claims.GetOwnerID()))
		})
	}
}
