package middleware

import (
	"net/http"
	"strings"

	"github.com/sampleforge/sampleforge-backend/api/responses"
	pkgauth "github.com/sampleforge/sampleforge-backend/pkg/auth"
	"github.com/sampleforge/sampleforge-backend/pkg/config"
	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
	"github.com/sampleforge/sampleforge-backend/pkg/logger"
)

// OptionalAuth seeds the request context with account identity when a valid
// bearer token is present. A missing or invalid token degrades silently to a
// guest request; it never fails the request.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				if logg != nil {
					logg.Warn(r.Context(), "invalid bearer token ignored; treating request as guest")
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithAccount(r.Context(), claims.AccountID.String(), claims.Email)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.AccountID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that OptionalAuth left unauthenticated.
func RequireAuth(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if AccountIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
