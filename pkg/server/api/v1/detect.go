package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vulntor/stackscan/pkg/server/api"
)

// DetectHandler handles GET /detect and GET /api/v1/detect.
//
// Query parameters:
//   - url: page to analyze (required; a bare host is treated as https)
//   - timeout: fetch timeout in seconds (optional, clamped to the server maximum)
//   - cookie: Cookie header forwarded to the page (optional)
//
// Response format:
//
//	{
//	  "url": "https://example.com",
//	  "technologies": {
//	    "WordPress": {"version": "6.4.2", "confidence": 100, "categories": [1, 11], ...}
//	  }
//	}
func DetectHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := ParseDetectQuery(r)
		if err != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		runDetect(w, r, deps, req)
	}
}

// DetectJSONHandler handles POST /api/v1/detect with a JSON DetectRequest body.
func DetectJSONHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := ParseDetectBody(w, r)
		if err != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		runDetect(w, r, deps, req)
	}
}

func runDetect(w http.ResponseWriter, r *http.Request, deps *api.Deps, req *DetectRequest) {
	if deps.Detector == nil {
		api.WriteJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "detector not initialized")
		return
	}

	ctx, cancel := handlerContext(r, deps.Config)
	defer cancel()

	report, err := deps.Detector.Detect(ctx, req.Request())
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && r.Context().Err() == nil {
			log.Warn().
				Str("component", "api").
				Str("url", req.URL).
				Dur("timeout", deps.Config.HandlerTimeout).
				Msg("Detection exceeded handler timeout")
		}
		api.WriteDetectError(w, r, req.URL, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, api.NewDetectResponse(report))
}

// handlerContext applies the handler-level timeout only if the request
// context doesn't already have a deadline.
func handlerContext(r *http.Request, cfg api.Config) (context.Context, context.CancelFunc) {
	ctx := r.Context()
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && cfg.HandlerTimeout > 0 {
		return context.WithTimeout(ctx, cfg.HandlerTimeout)
	}
	return ctx, func() {}
}
