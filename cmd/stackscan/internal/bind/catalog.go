package bind

import (
	"github.com/spf13/cobra"

	"github.com/vulntor/stackscan/pkg/catalog"
	"github.com/vulntor/stackscan/pkg/config"
	"github.com/vulntor/stackscan/pkg/paths"
)

// CatalogSyncOptions holds configuration options for the catalog sync command.
type CatalogSyncOptions struct {
	FilePath string
	URL      string
	CacheDir string
	Force    bool
}

// BindCatalogSyncOptions extracts and validates catalog sync flags.
//
// Flags read:
//   - --file: Load the catalog from a local file
//   - --url: Download the catalog from a remote URL (defaults to catalog.url)
//   - --cache-dir: Override the cache destination (defaults to catalog.cache_dir)
//   - --force: Allow replacing a newer cached catalog
//
// Returns an error if no source or both sources are given.
func BindCatalogSyncOptions(cmd *cobra.Command, cfg config.CatalogConfig) (CatalogSyncOptions, error) {
	filePath, _ := cmd.Flags().GetString("file")
	url, _ := cmd.Flags().GetString("url")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	force, _ := cmd.Flags().GetBool("force")

	if filePath == "" && url == "" {
		url = cfg.URL
	}
	if cacheDir == "" {
		cacheDir = CacheDir(cfg)
	}

	opts := CatalogSyncOptions{
		FilePath: filePath,
		URL:      url,
		CacheDir: cacheDir,
		Force:    force,
	}

	if filePath == "" && url == "" {
		return opts, catalog.NewSourceRequiredError()
	}

	if filePath != "" && url != "" {
		return opts, catalog.NewSourceConflictError()
	}

	return opts, nil
}

// CacheDir resolves the catalog cache directory, falling back to the
// per-user cache.
func CacheDir(cfg config.CatalogConfig) string {
	if cfg.CacheDir != "" {
		return cfg.CacheDir
	}
	return paths.CatalogCacheDir()
}
