package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Subdirectory name under every XDG base.
	daemonName = "crashd"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Directory for runtime files (socket, PID, lock).
//
//	Linux:   $XDG_RUNTIME_DIR/crashd or ~/.cache/crashd/run
//	macOS:   ~/Library/Caches/crashd/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, daemonName)
	}
	return filepath.Join(xdg.CacheHome, daemonName, "run")
}

// Unix domain socket for operator commands and metadata pushes.
func Socket() string {
	return filepath.Join(Runtime(), "crashd.sock")
}

// PID file written while the daemon runs.
func PIDFile() string {
	return filepath.Join(Runtime(), "crashd.pid")
}

// Lock file held for the daemon's lifetime.
func LockFile() string {
	return filepath.Join(Runtime(), "crashd.lock")
}

// Persisted settings file.
//
//	Linux:   $XDG_CONFIG_HOME/crashd/settings.yaml
//	macOS:   ~/Library/Application Support/crashd/settings.yaml
func SettingsFile() string {
	return filepath.Join(xdg.ConfigHome, daemonName, "settings.yaml")
}

// Default directory for crash reports.
//
//	Linux:   $XDG_STATE_HOME/crashd/crashes
//	macOS:   ~/Library/Application Support/crashd/crashes
func CrashDir() string {
	return filepath.Join(xdg.StateHome, daemonName, "crashes")
}
