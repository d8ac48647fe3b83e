// pkg/version/version_test.go
package version

import (
	"strings"
	"testing"
	"time"
)

func TestInfo_ReturnsFormattedString(t *testing.T) {
	// vars set at build-time, here using default "dev"
	info := Info()

	if !strings.Contains(info, "stackscan") {
		t.Errorf("Expected info to contain 'stackscan', got: %s", info)
	}
	if !strings.Contains(info, Version) {
		t.Errorf("Expected info to contain version '%s'", Version)
	}
	if !strings.Contains(info, Commit) {
		t.Errorf("Expected info to contain commit '%s'", Commit)
	}
	if !strings.Contains(info, BuildDate) {
		t.Errorf("Expected info to contain build date '%s'", BuildDate)
	}
}

func TestGet_ReturnsCorrectStruct(t *testing.T) {
	v := Get()

	if v.Version != Version {
		t.Errorf("Expected version %s, got %s", Version, v.Version)
	}
	if v.Commit != Commit {
		t.Errorf("Expected commit %s, got %s", Commit, v.Commit)
	}
	if v.BuildDate != BuildDate {
		t.Errorf("Expected build date %s, got %s", BuildDate, v.BuildDate)
	}
}

func TestStartDate_IsInitialized(t *testing.T) {
	if time.Since(StartDate) > time.Minute {
		t.Errorf("StartDate is too old: %s", StartDate)
	}
}

func TestUptime_IsPositive(t *testing.T) {
	if Uptime() <= 0 {
		t.Errorf("Expected positive uptime, got %s", Uptime())
	}
}

func TestIsRelease(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	cases := map[string]bool{
		"dev":          false,
		"1.2.3":        true,
		"v1.2.3":       true,
		"1.3.0-rc.1":   false,
		"not.a.semver": false,
	}
	for v, want := range cases {
		Version = v
		if got := IsRelease(); got != want {
			t.Errorf("IsRelease() with %q = %v, want %v", v, got, want)
		}
	}
}
