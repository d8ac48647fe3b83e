package bind

import (
	"github.com/rs/zerolog"

	"github.com/vulntor/stackscan/pkg/catalog"
	"github.com/vulntor/stackscan/pkg/config"
	"github.com/vulntor/stackscan/pkg/fetch"
	"github.com/vulntor/stackscan/pkg/techdetect"
)

// LoadCatalog resolves and compiles the catalog selected by cfg.
func LoadCatalog(cfg config.CatalogConfig, logger zerolog.Logger) *techdetect.CompiledCatalog {
	res := catalog.Load(catalog.Options{
		Path:     cfg.Path,
		CacheDir: CacheDir(cfg),
		Logger:   logger,
	})
	return catalog.Compile(res, logger)
}

// NewDetector builds a detector from the loaded configuration: the HTTP
// fetcher with the configured User-Agent and body cap, the compiled catalog
// and the optional telemetry log. The caller closes the returned writer.
func NewDetector(cfg config.Config, logger zerolog.Logger) (*techdetect.Detector, *techdetect.TelemetryWriter, error) {
	telemetry, err := techdetect.NewTelemetryWriter(cfg.Telemetry.File)
	if err != nil {
		return nil, nil, err
	}

	fetcher := fetch.NewClient(
		fetch.WithUserAgent(cfg.Detect.UserAgent),
		fetch.WithMaxBodyBytes(cfg.Detect.MaxBodyBytes),
	)

	detector := techdetect.NewDetector(
		LoadCatalog(cfg.Catalog, logger),
		fetcher,
		techdetect.WithLogger(logger),
		techdetect.WithDefaultTimeout(cfg.Detect.Timeout),
		techdetect.WithMaxTimeout(cfg.Detect.MaxTimeout),
		techdetect.WithTelemetry(telemetry),
	)
	return detector, telemetry, nil
}
