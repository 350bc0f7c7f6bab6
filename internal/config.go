package internal

import (
	"log/slog"
	"strconv"
	"sync/atomic"
)

var (
	quietMode      atomic.Bool // Warnings and errors only.
	debugMode      atomic.Bool // Debug records enabled.
	verboseMode    atomic.Bool // Source locations in log records.
	crashReporting atomic.Bool // Build default for crash reporting.
)

// Seeds the runtime flags from linker-provided strings. Unparseable values
// leave the flag at its zero value, except crash reporting, which stays on.
func init() {
	crashReporting.Store(true)
	seed(&quietMode, rawQuiet)
	seed(&debugMode, rawDebug)
	seed(&verboseMode, rawVerbose)
	seed(&crashReporting, rawCrashReporting)
}

func seed(flag *atomic.Bool, raw string) {
	if v, err := strconv.ParseBool(raw); err == nil {
		flag.Store(v)
	}
}

func SetQuiet(enabled bool)   { quietMode.Store(enabled) }
func IsQuiet() bool           { return quietMode.Load() }
func SetDebug(enabled bool)   { debugMode.Store(enabled) }
func IsDebug() bool           { return debugMode.Load() }
func SetVerbose(enabled bool) { verboseMode.Store(enabled) }
func IsVerbose() bool         { return verboseMode.Load() }

// Returns the crash reporting default baked into the binary. The persisted
// settings file takes precedence once it exists.
func CrashReportingDefault() bool {
	return crashReporting.Load()
}

// Returns the log level implied by the current flags. Debug wins over quiet.
func LogLevel() slog.Level {
	if IsDebug() {
		return slog.LevelDebug
	}
	if IsQuiet() {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}
