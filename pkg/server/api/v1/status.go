package v1

import (
	"html/template"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vulntor/stackscan/pkg/server/api"
	"github.com/vulntor/stackscan/pkg/server/jobs"
	"github.com/vulntor/stackscan/pkg/version"
)

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Status        string           `json:"status"`
	Version       string           `json:"version"`
	Timestamp     float64          `json:"timestamp"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Catalog       api.CatalogStats `json:"catalog"`
	Jobs          *jobs.Status     `json:"jobs,omitempty"`
}

// StatusHandler handles GET /status.
func StatusHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		resp := StatusResponse{
			Status:        "online",
			Version:       version.Version,
			Timestamp:     float64(now.UnixNano()) / float64(time.Second),
			UptimeSeconds: int64(version.Uptime() / time.Second),
			Catalog:       api.NewCatalogStats(currentCatalog(deps)),
		}
		if deps.Jobs != nil {
			st := deps.Jobs.Status()
			resp.Jobs = &st
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>stackscan</title>
  <style>
    body { font-family: Arial, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; }
    code, pre { background-color: #f4f4f4; border-radius: 3px; }
    code { padding: 2px 5px; }
    pre { padding: 10px; overflow-x: auto; }
  </style>
</head>
<body>
  <h1>stackscan {{.Version}}</h1>
  <p>Detects the technologies behind a web page from its HTML, scripts, meta tags and response headers.
  The catalog currently holds {{.Technologies}} technologies.</p>

  <h2>Usage</h2>
  <pre>GET /detect?url=https://example.com</pre>
  <h3>Optional parameters</h3>
  <ul>
    <li><code>timeout</code>: fetch timeout in seconds (default {{.DefaultTimeout}})</li>
    <li><code>cookie</code>: Cookie header for pages that require a session</li>
  </ul>

  <h2>Other endpoints</h2>
  <ul>
    <li><code>POST /api/v1/detect</code> with <code>{"url": "...", "timeout": 10, "cookie": "..."}</code></li>
    <li><code>POST /api/v1/detect/batch</code> with <code>{"urls": ["...", "..."]}</code></li>
    <li><code>GET /api/v1/catalog</code>, <code>GET /api/v1/catalog/technologies</code></li>
    <li><code>GET /status</code>, <code>GET /healthz</code>, <code>GET /readyz</code></li>
  </ul>

  <h2>Example</h2>
  <p><a href="/detect?url=https://wordpress.org">/detect?url=https://wordpress.org</a></p>
</body>
</html>
`))

// IndexHandler handles GET / with a short usage page. defaultTimeout is
// the value shown for the timeout parameter.
func IndexHandler(deps *api.Deps, defaultTimeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err := indexTemplate.Execute(w, struct {
			Version        string
			Technologies   int
			DefaultTimeout string
		}{
			Version:        version.Version,
			Technologies:   currentCatalog(deps).Len(),
			DefaultTimeout: defaultTimeout.String(),
		})
		if err != nil {
			log.Error().Str("component", "api").Err(err).Msg("Failed to render index page")
		}
	}
}
