package handlers

import (
	"context"
	"net/http"

	pkghttp "github.com/juniorxam/vacina/pkg/http"
)

// HealthChecker reports whether the store answers.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Health handles GET /health
func Health(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(r.Context()); err != nil {
			pkghttp.WriteServiceUnavailable(w, "database unavailable")
			return
		}
		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
