package api

import (
	"context"
	"sync/atomic"

	"github.com/vulntor/stackscan/pkg/server/jobs"
	"github.com/vulntor/stackscan/pkg/techdetect"
)

// Deps holds dependencies for API handlers.
// This pattern enables dependency injection and easier testing.
type Deps struct {
	// Detector runs single page detections and exposes the live catalog.
	Detector DetectorService

	// Jobs runs batch detections. Batch endpoints answer 503 when nil.
	Jobs jobs.Manager

	// Config holds handler level limits.
	Config Config

	// Ready flag for readiness check
	Ready *atomic.Bool
}

// DetectorService is the subset of *techdetect.Detector used by handlers.
// Defined here to ease mocking.
type DetectorService interface {
	Detect(ctx context.Context, req techdetect.Request) (*techdetect.Report, error)
	Catalog() *techdetect.CompiledCatalog
}

// DetectResponse is the body of a successful detection.
type DetectResponse struct {
	URL          string                          `json:"url"`
	FinalURL     string                          `json:"final_url,omitempty"`
	Technologies map[string]techdetect.Detection `json:"technologies"`
}

// NewDetectResponse converts a report into its wire form.
func NewDetectResponse(r *techdetect.Report) DetectResponse {
	techs := r.Technologies
	if techs == nil {
		techs = map[string]techdetect.Detection{}
	}
	return DetectResponse{URL: r.URL, FinalURL: r.FinalURL, Technologies: techs}
}

// CatalogStats describes the catalog currently served.
type CatalogStats struct {
	Technologies int    `json:"technologies"`
	Skipped      int    `json:"skipped"`
	Version      string `json:"version,omitempty"`
	Source       string `json:"source,omitempty"`
	LoadedAt     string `json:"loaded_at,omitempty"`
}

// NewCatalogStats summarizes c. A nil catalog yields zero counts.
func NewCatalogStats(c *techdetect.CompiledCatalog) CatalogStats {
	meta := c.Metadata()
	stats := CatalogStats{
		Technologies: c.Len(),
		Skipped:      c.Skipped(),
		Version:      meta.Version,
		Source:       meta.Source,
	}
	if !meta.LoadedAt.IsZero() {
		stats.LoadedAt = meta.LoadedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return stats
}
