// Package paths resolves the per-user directories stackscan reads its
// configuration from and caches synced catalogs in.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "stackscan"

// ConfigDir returns the directory holding config.yaml.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("AppData"); appData != "" {
			return filepath.Join(appData, "Stackscan")
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// ConfigFile returns the default configuration file path. The file may not
// exist; a missing file is skipped by the config loader.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// CacheDir returns the per-user cache root.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if runtime.GOOS == "windows" {
		if localAppData := os.Getenv("LocalAppData"); localAppData != "" {
			return filepath.Join(localAppData, "Stackscan", "Cache")
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", appName)
}

// CatalogCacheDir returns where 'catalog sync' stores the technology catalog
// when catalog.cache_dir is not set.
func CatalogCacheDir() string {
	return filepath.Join(CacheDir(), "catalog")
}
