package appctx

import (
	"context"

	"github.com/vulntor/stackscan/pkg/config"
	"github.com/vulntor/stackscan/pkg/techdetect"
)

type key string

const (
	configKey   key = "stackscan.config.manager"
	detectorKey key = "stackscan.detector"
)

// WithConfig stores the shared config manager on context.
func WithConfig(ctx context.Context, manager *config.Manager) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey, manager)
}

// Config retrieves the shared config manager from context.
func Config(ctx context.Context) (*config.Manager, bool) {
	if ctx == nil {
		return nil, false
	}
	mgr, ok := ctx.Value(configKey).(*config.Manager)
	return mgr, ok && mgr != nil
}

// WithDetector stores a ready detector on context so subcommands share one
// compiled catalog.
func WithDetector(ctx context.Context, d *techdetect.Detector) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, detectorKey, d)
}

// Detector retrieves the detector stored by WithDetector.
func Detector(ctx context.Context) (*techdetect.Detector, bool) {
	if ctx == nil {
		return nil, false
	}
	d, ok := ctx.Value(detectorKey).(*techdetect.Detector)
	return d, ok && d != nil
}
