// Package crash records fatal crashes of a dedicated server.
//
// A [Handler] intercepts the fatal signals SIGSEGV, SIGABRT, SIGFPE, SIGILL
// and SIGBUS, captures a symbolized stack and a snapshot of server metadata,
// and writes a plain-text report to the crash directory before handing the
// signal back to whatever disposition was installed before it. Runtime
// faults inside Go code arrive as panics rather than signals; goroutines
// started with [Handler.Go], or that defer [Handler.Guard], route those
// panics through the same reporting path and then re-panic.
//
// Game logic pushes the facts worth recording (map, game mode, player count)
// through lock-free setters at any time. Only the values visible when the
// crash is detected end up in the report.
//
// Handling a crash is best-effort. A failure to write the report never stops
// the signal from being re-delivered, and a second fatal signal that arrives
// while the first is still being handled terminates the process immediately
// without attempting another report.
//
// The package targets Unix platforms.
//
// Example usage:
//
//	h := crash.New(crash.Options{
//	    Version: internal.BuildID(),
//	    Dir:     paths.CrashDir(),
//	    Toggle:  store,
//	})
//	crash.SetDefault(h)
//	h.Init()
//	defer h.Shutdown()
//
//	crash.SetCurrentMap("ctf_2fort")
//	crash.SetPlayerCount(12)
package crash
