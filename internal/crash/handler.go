package crash

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// Name of the file fatal runtime errors are mirrored to.
const runtimeLogName = "runtime.log"

// Persisted enablement flag.
type Toggle interface {
	Enabled() bool
	SetEnabled(enabled bool) error
}

// Holds handler configuration.
type Options struct {
	Version      string // Build identifier recorded in every report.
	Dir          string // Crash report directory. Empty writes to the working directory.
	MaxFrames    int    // Bound on captured frames. Zero uses [MaxFrames].
	PanicOnFault bool   // Turn memory faults in guarded goroutines into reportable panics.
	Toggle       Toggle // Enablement source. Nil means always enabled.
}

// The process-wide crash reporting facility.
//
// A Handler is safe for concurrent use. Metadata setters never block.
type Handler struct {
	opts   Options
	plat   platform
	meta   *store
	insp   *inspector
	stack  *stackCapturer
	writer *reportWriter
	ic     *interceptor

	initialized atomic.Bool
	enabled     atomic.Bool
	lastReport  atomic.Pointer[string]
	mu          sync.Mutex // Serializes Init, Shutdown and SetEnabled.
}

// Creates a handler. Nothing is installed until [Handler.Init].
func New(opts Options) *Handler {
	return newHandler(opts, osPlatform{})
}

func newHandler(opts Options, plat platform) *Handler {
	h := &Handler{
		opts:   opts,
		plat:   plat,
		meta:   newStore(),
		insp:   newInspector(plat.now()),
		stack:  newStackCapturer(opts.MaxFrames),
		writer: newReportWriter(opts.Dir, plat.stderr()),
	}
	h.ic = newInterceptor(plat, h.report)
	return h
}

// Initializes metadata and, when enabled, installs the signal handlers.
// Calling Init on an initialized handler only logs a notice.
func (h *Handler) Init() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized.Load() {
		slog.Info("crash handler already initialized")
		return
	}

	slog.Info("initializing server crash reporting")

	enabled := h.toggleEnabled()
	h.meta.reset(h.opts.Version, h.insp.collectStatic(context.Background()))
	h.enabled.Store(enabled)
	h.initialized.Store(true)

	if enabled {
		h.install()
	}

	slog.Info("crash handler initialized", "enabled", enabled, "dir", h.reportDir())
}

// Marks the handler disabled and uninitialized. Installed signal handlers
// stay in place; with the handler disabled they only chain.
func (h *Handler) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.initialized.Store(false)
	h.enabled.Store(false)
}

// Enables or disables reporting and persists the choice. Enabling an
// initialized handler installs the signal handlers if needed.
func (h *Handler) SetEnabled(enabled bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.enabled.Store(enabled)

	var err error
	if h.opts.Toggle != nil {
		err = h.opts.Toggle.SetEnabled(enabled)
	}

	if enabled && h.initialized.Load() && h.ic.current() == stateUninitialized {
		h.install()
	}

	slog.Info("crash reporting toggled", "enabled", enabled)
	return err
}

// Returns true if the handler is initialized and enabled.
func (h *Handler) IsEnabled() bool {
	return h.enabled.Load() && h.initialized.Load()
}

// Records the current map.
func (h *Handler) SetCurrentMap(name string) { h.meta.setMap(name) }

// Records the current game mode.
func (h *Handler) SetGameMode(mode string) { h.meta.setGameMode(mode) }

// Records the number of connected players.
func (h *Handler) SetPlayerCount(n int) { h.meta.setPlayerCount(n) }

// Records the server tick rate.
func (h *Handler) SetTickRate(n int) { h.meta.setTickRate(n) }

// Returns a snapshot of the current metadata.
func (h *Handler) Metadata() Metadata {
	return h.meta.snapshot()
}

// Returns the interceptor state as a lowercase word.
func (h *Handler) State() string {
	return h.ic.current().String()
}

// Returns the path of the last report written by this process, if any.
func (h *Handler) LastReport() string {
	if p := h.lastReport.Load(); p != nil {
		return *p
	}
	return ""
}

// Returns the primary crash report directory.
func (h *Handler) Dir() string {
	return h.reportDir()
}

func (h *Handler) reportDir() string {
	if h.opts.Dir == "" {
		return "."
	}
	return h.opts.Dir
}

func (h *Handler) toggleEnabled() bool {
	if h.opts.Toggle == nil {
		return true
	}
	return h.opts.Toggle.Enabled()
}

// Installs the signal handlers and mirrors runtime crash output to disk.
func (h *Handler) install() {
	if !h.ic.install() {
		return
	}

	if err := os.MkdirAll(h.reportDir(), reportDirMode); err != nil {
		slog.Warn("failed to create crash directory", "dir", h.reportDir(), "error", err)
		return
	}
	path := filepath.Join(h.reportDir(), runtimeLogName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, reportFileMode)
	if err != nil {
		slog.Warn("failed to open runtime crash log", "path", path, "error", err)
		return
	}
	if err := h.plat.crashOutput(f); err != nil {
		slog.Warn("failed to mirror runtime crash output", "path", path, "error", err)
		f.Close()
	}
}

// Captures and writes a report for sig. Runs with the re-entrancy guard
// held; every step is best-effort.
func (h *Handler) report(f fault) {
	name := signalName(f.sig)
	if !h.IsEnabled() {
		fmt.Fprintf(h.plat.stderr(), "\n*** SERVER CRASH: %s (crash reporting disabled) ***\n\n", name)
		return
	}

	now := h.plat.now()
	h.meta.setSignal(name)
	h.meta.stamp(now)
	h.meta.setDynamic(h.insp.collectDynamic(now))

	frames := h.stack.capture(1)

	path, _ := h.writer.write(now, f, h.meta.snapshot(), frames)
	if path != "" {
		h.lastReport.Store(&path)
	}
}
