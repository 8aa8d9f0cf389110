package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"visualexpr/internal/auth"
	"visualexpr/internal/httputil"
)

// OwnerHeader names the request header carrying the owner when bearer auth is off.
const OwnerHeader = "X-Owner-ID"

// AuthMiddleware resolves the workspace owner of every /api request.
//
// With a verifier the owner is the subject of the bearer token. Browsers
// cannot set headers on an EventSource, so the token is also accepted in the
// access_token query parameter. Without a verifier the owner comes from the
// X-Owner-ID header, falling back to defaultOwner.
func AuthMiddleware(verifier auth.JWTVerifier, defaultOwner string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			if verifier == nil {
				owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
				if owner == "" {
					owner = defaultOwner
				}
				next.ServeHTTP(w, httputil.WithOwnerID(r, owner))
				return
			}

			token := bearerToken(r)
			if token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("request rejected",
					"path", r.URL.Path,
					"method", r.Method,
					"error", err,
				)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithVerifiedOwnerID(r, claims.GetOwnerID()))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/events") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
