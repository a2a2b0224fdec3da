package version

import (
	"strings"
	"testing"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	if info.Version == "" {
		t.Error("expected non-empty version")
	}
}

func TestGetShortVersion(t *testing.T) {
	short := GetShortVersion()
	if !strings.HasPrefix(short, Version) {
		t.Errorf("expected short version to start with %q, got %q", Version, short)
	}
}
