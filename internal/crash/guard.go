package crash

import (
	"log/slog"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Implemented by runtime errors raised for memory faults under
// debug.SetPanicOnFault.
type faultAddresser interface {
	Addr() uintptr
}

// Reports a panic in progress as a crash, then re-panics with the same
// value. Must be deferred directly:
//
//	defer h.Guard()
//
// A panic that arrives while another crash is being handled terminates the
// process without a report.
func (h *Handler) Guard() {
	r := recover()
	if r == nil {
		return
	}
	h.recovered(r)
	panic(r)
}

// Runs fn on a new goroutine under [Handler.Guard]. When the handler was
// created with PanicOnFault, memory faults in fn become panics carrying the
// fault address.
func (h *Handler) Go(fn func()) {
	go func() {
		if h.opts.PanicOnFault {
			debug.SetPanicOnFault(true)
		}
		defer h.Guard()
		fn()
	}()
}

func (h *Handler) recovered(r any) {
	if !h.IsEnabled() {
		return
	}
	sig, addr := classifyPanic(r)
	if !h.ic.enter() {
		h.plat.exit(exitCode(sig))
		return
	}
	h.ic.run(fault{sig: sig, addr: addr})
	h.ic.state.Store(int32(stateTerminated))
}

// Maps a panic value to the signal the equivalent native fault would raise.
func classifyPanic(r any) (syscall.Signal, uintptr) {
	err, ok := r.(runtime.Error)
	if !ok {
		return unix.SIGABRT, 0
	}

	var fa faultAddresser
	if errors.As(err, &fa) {
		return unix.SIGSEGV, fa.Addr()
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "invalid memory address"), strings.Contains(msg, "nil pointer dereference"):
		return unix.SIGSEGV, 0
	case strings.Contains(msg, "divide by zero"):
		return unix.SIGFPE, 0
	}
	return unix.SIGABRT, 0
}

// Target of the deliberate fault. Always nil.
var faultTarget *int32

// Deliberately faults to exercise the whole reporting pipeline.
//
// The crash ID is generated up front and logged so that it can be matched
// against the report. This function does not return.
func (h *Handler) TestCrash() {
	h.meta.stamp(h.plat.now())
	meta := h.meta.snapshot()

	slog.Warn("triggering test crash",
		"crash_id", meta.CrashID,
		"map", orDefault(meta.Map, "(none)"),
	)

	defer h.Guard()
	*faultTarget = 42
}
