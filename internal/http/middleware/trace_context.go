package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rogerio-castellano/catalog-gateway/internal/requestctx"
)

// RequestID reuses an inbound X-Request-Id or assigns a new one, echoes it on
// the response and keeps it on the context for upstream calls.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get(requestctx.HeaderRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		ctx, rd := requestctx.Ensure(r.Context())
		rd.RequestID = reqID
		w.Header().Set(requestctx.HeaderRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
