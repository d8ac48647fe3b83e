package app

import (
	"github.com/rs/zerolog"

	"github.com/vulntor/stackscan/pkg/config"
	"github.com/vulntor/stackscan/pkg/techdetect"
)

// Deps holds dependencies for the server application.
// This pattern enables dependency injection and easier testing.
type Deps struct {
	// Detector serves every detection and owns the live catalog.
	Detector *techdetect.Detector

	// Reload re-reads the catalog and swaps it into Detector. Used by the
	// file watcher; nil disables watching.
	Reload func() error

	// Config manager for runtime configuration
	Config *config.Manager

	// Logger for structured logging (injected by caller)
	Logger zerolog.Logger
}
