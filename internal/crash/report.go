package crash

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

const (
	reportDirMode  os.FileMode = 0755
	reportFileMode os.FileMode = 0644

	// Filename layout, always in UTC.
	reportNameLayout = "20060102_150405"

	reportTitle = "Linux Dedicated Server Crash Report"

	asyncNote = "Signal delivered asynchronously; the faulting stack is in the goroutine dump below."

	// Bound on the goroutine dump appended to each report.
	goroutineDumpSize = 256 << 10
)

var (
	banner = strings.Repeat("=", 61)
	rule   = strings.Repeat("-", 61)
)

// What was caught. Faults relayed by os/signal are async: the handling
// goroutine is not the one that faulted.
type fault struct {
	sig   syscall.Signal
	addr  uintptr
	async bool
}

// Serializes crash reports to disk.
//
// Targets are tried in order: the crash directory, then the working
// directory. The first target that opens wins.
type reportWriter struct {
	dir      string   // Primary directory, created on demand.
	fallback string   // Directory used when dir is unusable. Empty means ".".
	dump     []byte   // Scratch space for the goroutine dump.
	stderr   *os.File // Destination for notices.
}

func newReportWriter(dir string, stderr *os.File) *reportWriter {
	return &reportWriter{
		dir:    dir,
		dump:   make([]byte, goroutineDumpSize),
		stderr: stderr,
	}
}

// Returns "crash_YYYYMMDD_HHMMSS.log" for t in UTC.
func reportName(t time.Time) string {
	return "crash_" + t.UTC().Format(reportNameLayout) + ".log"
}

// Ordered write targets for a report named name.
func (w *reportWriter) candidates(name string) []string {
	var paths []string
	if w.dir != "" {
		paths = append(paths, filepath.Join(w.dir, name))
	}
	return append(paths, filepath.Join(w.fallback, name))
}

// Opens the first usable target.
func (w *reportWriter) open(name string) (*os.File, error) {
	if w.dir != "" {
		if err := os.MkdirAll(w.dir, reportDirMode); err != nil && !os.IsExist(err) {
			fmt.Fprintf(w.stderr, "crash: cannot create %s: %v\n", w.dir, err)
		}
	}

	var errs []string
	for _, path := range w.candidates(name) {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, reportFileMode)
		if err == nil {
			return f, nil
		}
		errs = append(errs, err.Error())
	}
	return nil, errors.Wrap(ErrNoReportTarget, strings.Join(errs, "; "))
}

// Writes a complete report and returns its path.
//
// Failures are announced on stderr in addition to being returned; the
// caller is in no position to do anything else with them.
func (w *reportWriter) write(now time.Time, ft fault, meta Metadata, frames []Frame) (string, error) {
	signal, addr := signalName(ft.sig), formatAddress(ft.addr)

	f, err := w.open(reportName(now))
	if err != nil {
		fmt.Fprintf(w.stderr, "\n*** SERVER CRASH: %s at %s ***\n*** Unable to write crash log: %v ***\n\n",
			signal, addr, err)
		return "", err
	}
	path := f.Name()

	bw := bufio.NewWriter(f)
	w.render(bw, ft, meta, frames)
	err = bw.Flush()
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(w.stderr, "\n*** SERVER CRASH: %s at %s ***\n*** Crash log %s is incomplete: %v ***\n\n",
			signal, addr, path, err)
		return path, errors.Wrapf(ErrReport, "write %s: %v", path, err)
	}

	fmt.Fprintf(w.stderr, "\n*** SERVER CRASH: %s at %s ***\n*** Crash log written to: %s ***\n\n",
		signal, addr, path)
	return path, nil
}

// Writes the report body. Write errors surface through the caller's flush.
func (w *reportWriter) render(out io.Writer, ft fault, meta Metadata, frames []Frame) {
	fmt.Fprintf(out, "%s\n%s\n%s\n\n", banner, reportTitle, banner)

	fmt.Fprintf(out, "Crash ID: %s\n", meta.CrashID)
	fmt.Fprintf(out, "Version: %s\n", meta.Version)
	fmt.Fprintf(out, "Timestamp: %s\n", meta.Timestamp)
	fmt.Fprintf(out, "Map: %s\n", orDefault(meta.Map, "(none)"))
	fmt.Fprintf(out, "Game Mode: %s\n", orDefault(meta.GameMode, "(unknown)"))
	fmt.Fprintf(out, "Players: %d\n", meta.PlayerCount)
	fmt.Fprintf(out, "Uptime: %d seconds\n", meta.Uptime)
	fmt.Fprintf(out, "Memory: %d MB\n", meta.MemoryMB)
	fmt.Fprintf(out, "OS: %s\n", orDefault(meta.OS, unknown))
	fmt.Fprintf(out, "Tick Rate: %d\n\n", meta.TickRate)

	fmt.Fprintf(out, "Signal: %s\n", signalName(ft.sig))
	fmt.Fprintf(out, "Fault Address: %s\n", formatAddress(ft.addr))
	if ft.async {
		fmt.Fprintln(out, asyncNote)
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Stack Trace (%d frames):\n%s\n", len(frames), rule)
	if len(frames) == 0 && !ft.async {
		fmt.Fprintln(out, "Failed to get symbol names")
	}
	for _, fr := range frames {
		writeFrame(out, fr)
	}
	fmt.Fprintf(out, "\n%s\n", rule)

	fmt.Fprintln(out, "\nTo get source file and line numbers, run these commands:")
	fmt.Fprintln(out, "(Requires debug symbols - do not strip the binary)")
	fmt.Fprintln(out)
	for _, fr := range frames {
		if fr.Module != "" {
			fmt.Fprintf(out, "addr2line -e %s -f -C %#x\n", fr.Module, fr.ModuleOffset)
		}
	}

	if n := runtime.Stack(w.dump, true); n > 0 {
		fmt.Fprintf(out, "\n%s\nGoroutines:\n%s\n", rule, rule)
		out.Write(w.dump[:n])
	}

	fmt.Fprintf(out, "\n%s\nEnd of crash report\n%s\n", banner, banner)
}

// Writes one numbered frame line and its module continuation line.
func writeFrame(out io.Writer, fr Frame) {
	if !fr.Resolved() {
		fmt.Fprintf(out, "#%-2d %#x in ?? (%s)\n", fr.Index, fr.PC, orDefault(fr.Module, unknown))
		return
	}
	fmt.Fprintf(out, "#%-2d %#x in %s+%#x\n", fr.Index, fr.PC, fr.Symbol, fr.Offset)
	if fr.File != "" {
		fmt.Fprintf(out, "    at %s (%s:%d)\n", orDefault(fr.Module, unknown), fr.File, fr.Line)
		return
	}
	fmt.Fprintf(out, "    at %s\n", orDefault(fr.Module, unknown))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
