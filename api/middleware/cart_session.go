package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sampleforge/sampleforge-backend/pkg/logger"
)

const cartSessionHeader = "X-Cart-Session"

// CartSession resolves the cart owner key for the request. Authenticated
// shoppers use their account id so the cart follows them across devices;
// guests use the opaque session id they present in the X-Cart-Session header.
// A guest with no session id gets a fresh one, echoed back in the response
// header so the storefront can persist it.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var key string
			if accountID := AccountIDFromContext(r.Context()); accountID != "" {
				// Prefixes keep a forged guest header from addressing an
				// account's cart.
				key = "acct:" + accountID
			} else {
				session := strings.TrimSpace(r.Header.Get(cartSessionHeader))
				if session == "" {
					session = uuid.NewString()
				}
				w.Header().Set(cartSessionHeader, session)
				key = "guest:" + session
			}

			ctx := WithCartKey(r.Context(), key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
