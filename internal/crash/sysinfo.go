package crash

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// Bound on the init-time host query.
const inspectTimeout = 2 * time.Second

// Queries the operating environment. Every query is best-effort: failures
// fall back to a cheaper source and finally to "unknown" or zero.
type inspector struct {
	proc    *process.Process // Nil when the process table is unavailable.
	started time.Time
}

func newInspector(now time.Time) *inspector {
	return &inspector{started: now}
}

// Describes the host as "<sysname> <release> <machine>", plus the
// distribution when gopsutil can identify one. Also resolves the process
// handle and start time used later by collectDynamic.
func (in *inspector) collectStatic(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, inspectTimeout)
	defer cancel()

	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		in.proc = p
		if ms, err := p.CreateTimeWithContext(ctx); err == nil && ms > 0 {
			in.started = time.UnixMilli(ms)
		}
	}

	if info, err := host.InfoWithContext(ctx); err == nil && info.KernelVersion != "" {
		desc := fmt.Sprintf("%s %s %s", osTitle(info.OS), info.KernelVersion, info.KernelArch)
		if info.Platform != "" {
			desc += fmt.Sprintf(" (%s %s)", info.Platform, info.PlatformVersion)
		}
		return strings.TrimSpace(desc)
	}

	var u unix.Utsname
	if err := unix.Uname(&u); err == nil {
		return fmt.Sprintf("%s %s %s",
			unix.ByteSliceToString(u.Sysname[:]),
			unix.ByteSliceToString(u.Release[:]),
			unix.ByteSliceToString(u.Machine[:]))
	}

	return osTitle(runtime.GOOS) + " (" + unknown + ")"
}

// Returns seconds since process start and resident memory in MiB.
func (in *inspector) collectDynamic(now time.Time) (uptime, memoryMB int64) {
	uptime = int64(now.Sub(in.started) / time.Second)
	if uptime < 0 {
		uptime = 0
	}
	return uptime, in.residentMB()
}

func (in *inspector) residentMB() int64 {
	if in.proc != nil {
		if mem, err := in.proc.MemoryInfo(); err == nil && mem.RSS > 0 {
			return int64(mem.RSS >> 20)
		}
	}

	// Peak rather than current RSS, but available without /proc.
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err == nil {
		if runtime.GOOS == "darwin" {
			return int64(ru.Maxrss) >> 20 // bytes
		}
		return int64(ru.Maxrss) >> 10 // KiB
	}
	return 0
}

func osTitle(goos string) string {
	switch goos {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "freebsd":
		return "FreeBSD"
	case "":
		return unknown
	}
	return goos
}
