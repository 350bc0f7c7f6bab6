package crash

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
)

// Lifecycle of the interceptor. It never returns to an earlier state.
type state int32

const (
	stateUninitialized state = iota
	stateInstalled
	stateHandling
	stateTerminated
)

func (s state) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateInstalled:
		return "installed"
	case stateHandling:
		return "handling"
	case stateTerminated:
		return "terminated"
	}
	return "unknown"
}

// How long the interceptor waits for a re-raised signal to take effect
// before it terminates the process itself.
const raiseGrace = 2 * time.Second

// One intercepted signal and the disposition it had before installation.
type registration struct {
	sig     syscall.Signal
	ignored bool
}

// Intercepts fatal signals, runs the report pipeline once, then chains to
// the prior disposition.
//
// A single re-entrancy guard covers every signal kind: whichever fatal
// signal or guarded panic arrives first gets the report, and every later
// one takes the minimal exit.
type interceptor struct {
	plat   platform
	report func(f fault)                   // Best-effort pipeline.
	regs   map[syscall.Signal]registration // Written once by install.
	ch     chan os.Signal
	guard  atomic.Bool
	state  atomic.Int32
}

func newInterceptor(plat platform, report func(fault)) *interceptor {
	return &interceptor{plat: plat, report: report}
}

func (i *interceptor) current() state {
	return state(i.state.Load())
}

// Records the prior disposition of each fatal signal and starts relaying
// them to the interceptor. Returns false if already installed.
func (i *interceptor) install() bool {
	if !i.state.CompareAndSwap(int32(stateUninitialized), int32(stateInstalled)) {
		slog.Info("crash signal handlers already installed", "state", i.current())
		return false
	}

	i.regs = make(map[syscall.Signal]registration, len(fatalSignals))
	sigs := make([]os.Signal, 0, len(fatalSignals))
	names := make([]string, 0, len(fatalSignals))
	for _, sig := range fatalSignals {
		i.regs[sig] = registration{sig: sig, ignored: i.plat.ignored(sig)}
		sigs = append(sigs, sig)
		names = append(names, sig.String())
	}

	i.ch = make(chan os.Signal, len(fatalSignals))
	i.plat.notify(i.ch, sigs...)
	go i.loop()

	slog.Info("crash signal handlers installed", "signals", strings.Join(names, ", "))
	return true
}

func (i *interceptor) loop() {
	for sig := range i.ch {
		s, ok := sig.(syscall.Signal)
		if !ok {
			continue
		}
		// The address of an externally sent signal is not observable.
		go i.deliver(s, 0)
	}
}

// Handles one fatal signal. On a real platform this never returns.
func (i *interceptor) deliver(sig syscall.Signal, addr uintptr) {
	if !i.enter() {
		i.plat.exit(exitCode(sig))
		return
	}
	defer i.chain(sig)
	i.run(fault{sig: sig, addr: addr, async: true})
}

// Claims the re-entrancy guard. Only the first caller succeeds.
func (i *interceptor) enter() bool {
	if !i.guard.CompareAndSwap(false, true) {
		return false
	}
	i.state.Store(int32(stateHandling))
	return true
}

// Runs the report pipeline, containing any panic it raises.
func (i *interceptor) run(f fault) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(i.plat.stderr(), "crash: report for %s aborted: %v\n", f.sig, r)
		}
	}()
	i.report(f)
}

// Restores the prior disposition of sig and re-delivers it. If the process
// survives, for instance because the prior disposition ignores sig, it
// exits with the signal's status after a grace period.
func (i *interceptor) chain(sig syscall.Signal) {
	i.state.Store(int32(stateTerminated))

	reg, ok := i.regs[sig]
	i.plat.restore(sig, ok && reg.ignored)
	if err := i.plat.raise(sig); err != nil {
		fmt.Fprintf(i.plat.stderr(), "crash: %v\n", err)
	}

	i.plat.sleep(raiseGrace)
	i.plat.exit(exitCode(sig))
}
