package app

import (
	"github.com/rs/zerolog"

	"github.com/vulntor/stackscan/pkg/catalog"
	"github.com/vulntor/stackscan/pkg/config"
	"github.com/vulntor/stackscan/pkg/techdetect"
)

// CatalogReloader returns the reload callback for the configured catalog.
// An explicit catalog file is re-read strictly and a broken file keeps the
// current catalog. Without one the usual cache then embedded lookup is
// repeated, which picks up the result of a 'catalog sync'.
func CatalogReloader(cfg config.CatalogConfig, detector *techdetect.Detector, logger zerolog.Logger) func() error {
	swap := func(c *techdetect.CompiledCatalog) { detector.Swap(c) }

	if cfg.Path != "" {
		return catalog.Reloader(cfg.Path, catalog.SourceFile, swap, logger)
	}
	return func() error {
		res := catalog.Load(catalog.Options{CacheDir: cfg.CacheDir, Logger: logger})
		swap(catalog.Compile(res, logger))
		return nil
	}
}
