package crash

import (
	"runtime"
	"strings"

	"github.com/ianlancetaylor/demangle"
)

const (

	// Default bound on captured frames.
	MaxFrames = 64

	// Upper bound accepted from configuration.
	maxFramesLimit = 256

	// Extra return addresses captured beyond the limit so that runtime
	// panic frames can be trimmed without shortening the useful stack.
	trimSlack = 16

	// Symbol fragment shared by the interceptor's methods.
	interceptorFrame = "/crash.(*interceptor)."
)

// A single symbolized stack frame, innermost first.
type Frame struct {
	Index        int     // Position in the trace, 0 is the faulting frame.
	PC           uintptr // Program counter.
	Symbol       string  // Demangled function name, empty when unresolved.
	Offset       uintptr // PC minus the function entry, zero when unresolved.
	Module       string  // Path of the mapped object containing PC, may be empty.
	ModuleOffset uintptr // PC relative to the module's load base.
	File         string  // Source file, when the runtime knows it.
	Line         int     // Source line, when the runtime knows it.
}

// Returns true when the frame's PC was mapped to a symbol.
func (f Frame) Resolved() bool {
	return f.Symbol != ""
}

// Collects and symbolizes return addresses.
//
// The program counter buffer and module table are prepared when the
// capturer is created, so capture itself only allocates the frames it
// returns.
type stackCapturer struct {
	max     int
	pcs     []uintptr
	modules moduleTable
}

func newStackCapturer(max int) *stackCapturer {
	if max <= 0 {
		max = MaxFrames
	}
	if max > maxFramesLimit {
		max = maxFramesLimit
	}
	return &stackCapturer{
		max:     max,
		pcs:     make([]uintptr, max+trimSlack),
		modules: loadModules(),
	}
}

// Captures the calling goroutine's stack.
//
// skip counts frames above the caller of capture to omit. When the stack
// contains a panic in progress, every frame up to and including the
// runtime's panic machinery is dropped, so the first frame is the one that
// faulted. The result holds at most max frames.
func (c *stackCapturer) capture(skip int) []Frame {
	n := runtime.Callers(skip+2, c.pcs)
	if n == 0 {
		return nil
	}

	frames := make([]Frame, 0, n)
	iter := runtime.CallersFrames(c.pcs[:n])
	for {
		rf, more := iter.Next()
		frames = append(frames, c.resolve(rf))
		if !more {
			break
		}
	}

	frames = trimHandler(trimPanic(frames))
	if len(frames) > c.max {
		frames = frames[:c.max]
	}
	for i := range frames {
		frames[i].Index = i
	}
	return frames
}

func (c *stackCapturer) resolve(rf runtime.Frame) Frame {
	f := Frame{
		PC:   rf.PC,
		File: rf.File,
		Line: rf.Line,
	}
	if rf.Function != "" {
		f.Symbol = demangle.Filter(rf.Function)
		if rf.Entry != 0 && rf.PC >= rf.Entry {
			f.Offset = rf.PC - rf.Entry
		}
	}
	if m, ok := c.modules.lookup(rf.PC); ok {
		f.Module = m.path
		f.ModuleOffset = rf.PC - m.base
	}
	return f
}

// Drops the interceptor's own frames from the top of an asynchronously
// delivered signal's stack, together with the runtime frames that start a
// goroutine. What remains, if anything, is caller code.
func trimHandler(frames []Frame) []Frame {
	i := 0
	for i < len(frames) && strings.Contains(frames[i].Symbol, interceptorFrame) {
		i++
	}
	if i == 0 {
		return frames
	}
	frames = frames[i:]
	for _, f := range frames {
		if !strings.HasPrefix(f.Symbol, "runtime.") {
			return frames
		}
	}
	return nil
}

// Drops the frames leading into runtime.gopanic and the runtime frames that
// raised the panic.
func trimPanic(frames []Frame) []Frame {
	start := -1
	for i, f := range frames {
		if f.Symbol == "runtime.gopanic" {
			start = i
		}
	}
	if start < 0 {
		return frames
	}
	i := start + 1
	for i < len(frames) && strings.HasPrefix(frames[i].Symbol, "runtime.") {
		i++
	}
	if i == len(frames) {
		return frames[start+1:]
	}
	return frames[i:]
}
