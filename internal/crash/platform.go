package crash

import (
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Operating system operations the handler depends on. Tests substitute a
// recording implementation so that no signal is raised and no process exits.
type platform interface {

	// Starts relaying sigs to c.
	notify(c chan<- os.Signal, sigs ...os.Signal)

	// Reports whether sig was ignored before the handler was installed.
	ignored(sig os.Signal) bool

	// Puts back the disposition recorded at install time.
	restore(sig os.Signal, ignored bool)

	// Delivers sig to the current process.
	raise(sig syscall.Signal) error

	// Terminates the process immediately with code. Does not return on a
	// real platform.
	exit(code int)

	// Pauses the calling goroutine.
	sleep(d time.Duration)

	// Mirrors fatal runtime errors to f.
	crashOutput(f *os.File) error

	// Current wall clock time.
	now() time.Time

	// Destination for last-resort notices.
	stderr() *os.File
}

type osPlatform struct{}

func (osPlatform) notify(c chan<- os.Signal, sigs ...os.Signal) {
	signal.Notify(c, sigs...)
}

func (osPlatform) ignored(sig os.Signal) bool {
	return signal.Ignored(sig)
}

func (osPlatform) restore(sig os.Signal, ignored bool) {
	if ignored {
		signal.Ignore(sig)
		return
	}
	signal.Reset(sig)
}

func (osPlatform) raise(sig syscall.Signal) error {
	if err := unix.Kill(unix.Getpid(), sig); err != nil {
		return errors.Wrapf(err, "raise %s", sig)
	}
	return nil
}

// Calls exit_group directly so that no deferred function, finalizer or
// buffered writer runs on the way out.
func (osPlatform) exit(code int) {
	unix.Exit(code)
}

func (osPlatform) sleep(d time.Duration) {
	time.Sleep(d)
}

func (osPlatform) crashOutput(f *os.File) error {
	return debug.SetCrashOutput(f, debug.CrashOptions{})
}

func (osPlatform) now() time.Time {
	return time.Now()
}

func (osPlatform) stderr() *os.File {
	return os.Stderr
}
