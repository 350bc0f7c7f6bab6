package settings

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/customfortress/crashd/internal"
	"github.com/customfortress/crashd/internal/paths"
)

const (

	// Prefix of environment overrides, e.g. CRASHD_CRASH_REPORTING_ENABLED.
	envPrefix = "CRASHD_"

	// Bounds on the configured frame count.
	minFrames = 1
	maxFrames = 256

	// How long a writer waits for the lock file.
	lockTimeout = 5 * time.Second
	lockRetry   = 50 * time.Millisecond
)

// Runtime configuration of the crash handler.
type Settings struct {
	CrashReportingEnabled bool   `yaml:"crash_reporting_enabled" env:"CRASH_REPORTING_ENABLED"`
	CrashDir              string `yaml:"crash_dir" env:"CRASH_DIR"`
	MaxFrames             int    `yaml:"max_frames" env:"MAX_FRAMES"`
	PanicOnFault          bool   `yaml:"panic_on_fault" env:"PANIC_ON_FAULT"`
}

// Returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		CrashReportingEnabled: internal.CrashReportingDefault(),
		CrashDir:              paths.CrashDir(),
		MaxFrames:             64,
		PanicOnFault:          true,
	}
}

// Replaces out-of-range values with defaults.
func (s Settings) normalize() Settings {
	def := Defaults()
	if s.CrashDir == "" {
		s.CrashDir = def.CrashDir
	}
	if s.MaxFrames < minFrames || s.MaxFrames > maxFrames {
		slog.Warn("max_frames out of range, using default", "max_frames", s.MaxFrames, "default", def.MaxFrames)
		s.MaxFrames = def.MaxFrames
	}
	return s
}

// A settings file and its current, effective values.
type Store struct {
	path    string
	mu      sync.Mutex
	file    Settings // Values as persisted, without env overrides.
	current Settings // Effective values.
}

// Loads settings from path. Never fails: unreadable or invalid files and
// environment values fall back to defaults with a warning.
func Open(path string) *Store {
	s := &Store{path: path}
	s.file = load(path)
	s.current = overlayEnv(s.file).normalize()
	return s
}

// Loads settings from the default location.
func OpenDefault() *Store {
	return Open(paths.SettingsFile())
}

func load(path string) Settings {
	def := Defaults()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return def
	}
	if err != nil {
		slog.Warn("failed to read settings, using defaults", "path", path, "error", err)
		return def
	}

	s := def
	if err := yaml.Unmarshal(data, &s); err != nil {
		slog.Warn("invalid settings file, using defaults", "path", path, "error", err)
		return def
	}
	return s
}

// Applies CRASHD_* environment overrides. An invalid override is ignored in
// its entirety.
func overlayEnv(base Settings) Settings {
	s := base
	if err := env.ParseWithOptions(&s, env.Options{Prefix: envPrefix}); err != nil {
		slog.Warn("invalid settings in environment, ignoring overrides", "error", err)
		return base
	}
	return s
}

// Returns the path of the settings file.
func (s *Store) Path() string {
	return s.path
}

// Returns the effective settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Reports whether crash reporting is enabled.
func (s *Store) Enabled() bool {
	return s.Get().CrashReportingEnabled
}

// Sets and persists the crash reporting toggle. The new value takes effect
// even when it cannot be written.
func (s *Store) SetEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.CrashReportingEnabled = enabled
	next := s.file
	next.CrashReportingEnabled = enabled
	if err := s.save(next); err != nil {
		return err
	}
	s.file = next
	return nil
}

// Writes values to the settings file under the lock file. The file is
// replaced atomically.
func (s *Store) save(values Settings) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, paths.DefaultDirMode); err != nil {
		return saveError(s.path, err)
	}

	lock := flock.New(s.path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil || !locked {
		return errors.Wrapf(ErrLocked, "%s", s.path)
	}
	defer lock.Unlock()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(values); err != nil {
		return saveError(s.path, err)
	}
	enc.Close()

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return saveError(s.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return saveError(s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return saveError(s.path, err)
	}
	if err := os.Chmod(tmp.Name(), paths.DefaultFileMode); err != nil {
		return saveError(s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return saveError(s.path, err)
	}

	slog.Debug("settings saved", "path", s.path)
	return nil
}

func saveError(path string, err error) error {
	return errors.Wrapf(ErrSettings, "save %s: %v", path, err)
}
