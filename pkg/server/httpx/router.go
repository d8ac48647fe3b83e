package httpx

import (
	"net/http"
	"time"

	"github.com/vulntor/stackscan/pkg/server/api"
	v1 "github.com/vulntor/stackscan/pkg/server/api/v1"
)

// NewRouter creates and configures the main HTTP router.
//
// The router uses Go 1.22+ enhanced pattern matching for cleaner routes.
// Health endpoints are always enabled for liveness/readiness checks.
// defaultTimeout is only shown on the usage page.
func NewRouter(deps *api.Deps, defaultTimeout time.Duration) *http.ServeMux {
	mux := http.NewServeMux()

	// Health endpoints (always enabled)
	mux.HandleFunc("GET /healthz", HealthzHandler)
	mux.HandleFunc("GET /readyz", v1.ReadyzHandler(deps.Ready))

	mux.HandleFunc("GET /{$}", v1.IndexHandler(deps, defaultTimeout))
	mux.HandleFunc("GET /status", v1.StatusHandler(deps))
	mux.HandleFunc("GET /detect", v1.DetectHandler(deps))

	mux.HandleFunc("GET /api/v1/detect", v1.DetectHandler(deps))
	mux.HandleFunc("POST /api/v1/detect", v1.DetectJSONHandler(deps))
	mux.HandleFunc("POST /api/v1/detect/batch", v1.BatchDetectHandler(deps))
	mux.HandleFunc("GET /api/v1/catalog", v1.CatalogHandler(deps))
	mux.HandleFunc("GET /api/v1/catalog/technologies", v1.TechnologiesHandler(deps))
	mux.HandleFunc("GET /api/v1/catalog/technologies/{name}", v1.TechnologyHandler(deps))

	return mux
}

// HealthzHandler responds with 200 OK if the server process is alive.
// This endpoint is used by load balancers and orchestrators for liveness checks.
//
// It does not check the catalog or the job workers, just process health.
// For readiness checks, use /readyz instead.
func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
