package crash

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// Signals intercepted by the handler, in installation order.
var fatalSignals = []syscall.Signal{
	unix.SIGSEGV,
	unix.SIGABRT,
	unix.SIGFPE,
	unix.SIGILL,
	unix.SIGBUS,
}

var signalNames = map[syscall.Signal]string{
	unix.SIGSEGV: "SIGSEGV (Segmentation Fault)",
	unix.SIGABRT: "SIGABRT (Abort)",
	unix.SIGFPE:  "SIGFPE (Floating Point Exception)",
	unix.SIGILL:  "SIGILL (Illegal Instruction)",
	unix.SIGBUS:  "SIGBUS (Bus Error)",
}

// Returns the descriptor written to reports for sig.
func signalName(sig syscall.Signal) string {
	if name, ok := signalNames[sig]; ok {
		return name
	}
	return "Unknown Signal"
}

// Exit status used when the process terminates itself on behalf of sig.
func exitCode(sig syscall.Signal) int {
	return 128 + int(sig)
}

func formatAddress(addr uintptr) string {
	return fmt.Sprintf("%#x", addr)
}
