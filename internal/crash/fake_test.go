package crash

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

// Records platform calls instead of acting on them.
type fakePlatform struct {
	mu       sync.Mutex
	notified []os.Signal
	ignores  map[os.Signal]bool
	restored map[os.Signal]bool
	raised   []syscall.Signal
	exits    []int
	clock    time.Time
	errOut   *os.File
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "stderr"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return &fakePlatform{
		ignores:  make(map[os.Signal]bool),
		restored: make(map[os.Signal]bool),
		clock:    time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		errOut:   f,
	}
}

func (p *fakePlatform) notify(c chan<- os.Signal, sigs ...os.Signal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notified = append(p.notified, sigs...)
}

func (p *fakePlatform) ignored(sig os.Signal) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ignores[sig]
}

func (p *fakePlatform) restore(sig os.Signal, ignored bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.restored[sig] = ignored
}

func (p *fakePlatform) raise(sig syscall.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raised = append(p.raised, sig)
	return nil
}

func (p *fakePlatform) exit(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exits = append(p.exits, code)
}

func (p *fakePlatform) sleep(time.Duration)        {}
func (p *fakePlatform) crashOutput(*os.File) error { return nil }
func (p *fakePlatform) now() time.Time             { return p.clock }
func (p *fakePlatform) stderr() *os.File           { return p.errOut }

func (p *fakePlatform) stderrText(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(p.errOut.Name())
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// In-memory enablement flag.
type fakeToggle struct {
	mu      sync.Mutex
	enabled bool
	saves   int
}

func (t *fakeToggle) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *fakeToggle) SetEnabled(enabled bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	t.saves++
	return nil
}

// Lists crash_*.log files in dir.
func reportFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "crash_*.log"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

func readReport(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	return string(data)
}

// Returns the report lines that start a numbered frame.
func frameLines(report string) []string {
	var lines []string
	for _, l := range strings.Split(report, "\n") {
		if strings.HasPrefix(l, "#") {
			lines = append(lines, l)
		}
	}
	return lines
}
