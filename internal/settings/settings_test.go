package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "missing.yaml"))
	if got, want := s.Get(), Defaults(); got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

func TestOpenReadsFile(t *testing.T) {
	path := writeFile(t, "crash_reporting_enabled: false\ncrash_dir: /var/crashes\nmax_frames: 32\n")
	got := Open(path).Get()

	if got.CrashReportingEnabled {
		t.Fatal("CrashReportingEnabled = true, want false")
	}
	if got.CrashDir != "/var/crashes" {
		t.Fatalf("CrashDir = %q, want /var/crashes", got.CrashDir)
	}
	if got.MaxFrames != 32 {
		t.Fatalf("MaxFrames = %d, want 32", got.MaxFrames)
	}
	if !got.PanicOnFault {
		t.Fatal("PanicOnFault = false, want default true")
	}
}

func TestOpenInvalidFileFallsBack(t *testing.T) {
	path := writeFile(t, "crash_reporting_enabled: maybe\n")
	if got := Open(path).Get(); got != Defaults() {
		t.Fatalf("settings = %+v, want defaults", got)
	}
}

func TestOpenClampsMaxFrames(t *testing.T) {
	path := writeFile(t, "max_frames: 100000\n")
	if got := Open(path).Get().MaxFrames; got != Defaults().MaxFrames {
		t.Fatalf("MaxFrames = %d, want default", got)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CRASHD_CRASH_REPORTING_ENABLED", "false")
	t.Setenv("CRASHD_CRASH_DIR", "/tmp/cf2")

	got := Open(filepath.Join(t.TempDir(), "settings.yaml")).Get()
	if got.CrashReportingEnabled {
		t.Fatal("env override ignored")
	}
	if got.CrashDir != "/tmp/cf2" {
		t.Fatalf("CrashDir = %q, want /tmp/cf2", got.CrashDir)
	}
}

func TestInvalidEnvIgnored(t *testing.T) {
	t.Setenv("CRASHD_CRASH_REPORTING_ENABLED", "sometimes")

	path := writeFile(t, "crash_reporting_enabled: false\n")
	if Open(path).Enabled() {
		t.Fatal("invalid env replaced the file value")
	}
}

func TestSetEnabledPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	s := Open(path)

	if err := s.SetEnabled(false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if s.Enabled() {
		t.Fatal("Enabled = true after SetEnabled(false)")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "crash_reporting_enabled: false") {
		t.Fatalf("file = %q", data)
	}

	if Open(path).Enabled() {
		t.Fatal("reopened store lost the toggle")
	}
}

func TestSetEnabledKeepsEnvOutOfFile(t *testing.T) {
	t.Setenv("CRASHD_CRASH_DIR", "/from/env")
	path := filepath.Join(t.TempDir(), "settings.yaml")

	if err := Open(path).SetEnabled(true); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "/from/env") {
		t.Fatal("environment override written to the settings file")
	}
}
