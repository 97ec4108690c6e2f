package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yallaeat/delivery-console/internal/model"
)

const HeaderDriverID = "X-Driver-Id"

type ctxKey string

const (
	ctxCorrelationID ctxKey = "correlation_id"
	ctxDriverID      ctxKey = "driver_id"
)

// RequireDriverIDForDriverRoutes enforces X-Driver-Id on all /driver/* routes
// and stores it in context.
func RequireDriverIDForDriverRoutes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/driver" || strings.HasPrefix(path, "/driver/") {
			did := strings.TrimSpace(r.Header.Get(HeaderDriverID))
			if did == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(model.ErrorResponse{
					Error:         "missing required header: X-Driver-Id",
					CorrelationID: GetCorrelationID(r.Context()),
				})
				return
			}
			ctx := context.WithValue(r.Context(), ctxDriverID, did)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func GetDriverID(ctx context.Context) string {
	if v := ctx.Value(ctxDriverID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
