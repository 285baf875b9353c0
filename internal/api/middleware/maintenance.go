package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Cheertaboi/storefront-order-service/internal/api/httpx"
	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

type SettingsSource interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// Maintenance answers 503 while the settings maintenance flag is on. If the
// settings cannot be read the request is served normally.
func Maintenance(src SettingsSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st, err := src.Get(r.Context())
			if err != nil {
				slog.WarnContext(r.Context(), "maintenance check skipped", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if st.Maintenance {
				w.Header().Set("Retry-After", "300")
				httpx.WriteError(w, http.StatusServiceUnavailable, "maintenance",
					st.Brand+" is down for maintenance, please check back soon")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
