package paths

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestConfigDir(t *testing.T) {
	t.Run("XDGOverride", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got := ConfigDir()
		want := filepath.Join("/tmp/xdg-config", "stackscan")
		if got != want {
			t.Fatalf("ConfigDir() = %s, want %s", got, want)
		}
		if got := ConfigFile(); got != filepath.Join(want, "config.yaml") {
			t.Fatalf("ConfigFile() = %s", got)
		}
	})

	t.Run("PlatformDefault", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		switch runtime.GOOS {
		case "windows":
			t.Setenv("AppData", `C:\AppData`)
			want := filepath.Join(`C:\AppData`, "Stackscan")
			if got := ConfigDir(); got != want {
				t.Fatalf("ConfigDir() = %s, want %s", got, want)
			}
		default:
			t.Setenv("HOME", "/home/tester")
			want := filepath.Join("/home/tester", ".config", "stackscan")
			if got := ConfigDir(); got != want {
				t.Fatalf("ConfigDir() = %s, want %s", got, want)
			}
		}
	})
}

func TestCacheDir(t *testing.T) {
	t.Run("XDGOverride", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
		got := CacheDir()
		want := filepath.Join("/tmp/xdg-cache", "stackscan")
		if got != want {
			t.Fatalf("CacheDir() = %s, want %s", got, want)
		}
		if got := CatalogCacheDir(); got != filepath.Join(want, "catalog") {
			t.Fatalf("CatalogCacheDir() = %s", got)
		}
	})

	t.Run("PlatformDefault", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "")
		switch runtime.GOOS {
		case "windows":
			t.Setenv("LocalAppData", `C:\Local`)
			want := filepath.Join(`C:\Local`, "Stackscan", "Cache")
			if got := CacheDir(); got != want {
				t.Fatalf("CacheDir() = %s, want %s", got, want)
			}
		default:
			t.Setenv("HOME", "/home/tester")
			want := filepath.Join("/home/tester", ".cache", "stackscan")
			if got := CacheDir(); got != want {
				t.Fatalf("CacheDir() = %s, want %s", got, want)
			}
		}
	})
}
