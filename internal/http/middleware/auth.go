package middleware

import (
	"errors"
	"net/http"

	"github.com/rogerio-castellano/catalog-gateway/internal/auth"
	"github.com/rogerio-castellano/catalog-gateway/internal/logger"
	"github.com/rogerio-castellano/catalog-gateway/internal/requestctx"
)

// RequireAuth verifies the bearer access token and stores the minted internal
// token on the request context so upstream calls can present it.
func RequireAuth(ex *auth.Exchanger, log *logger.Logger) func(http.Handler) http.Handler {
	log = log.With("middleware", "RequireAuth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				http.Error(w, "missing or invalid token", http.StatusUnauthorized)
				return
			}

			claims, internal, err := ex.Exchange(tokenStr)
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidToken) {
					log.Error("credential exchange failed", "error", err)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx, rd := requestctx.Ensure(r.Context())
			rd.UserID = claims.UserID
			rd.InternalToken = internal
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the authenticated user, or "" on unauthenticated routes.
func GetUserID(r *http.Request) string {
	if rd := requestctx.Get(r.Context()); rd != nil {
		return rd.UserID
	}
	return ""
}
