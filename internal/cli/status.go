package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Represents the 'crashd status' command.
type StatusCmd struct{}

// Executes the status command.
func (c *StatusCmd) Run(ctx context.Context) error {
	status, err := daemon().Status(ctx)
	if err != nil {
		return err
	}

	reporting := "disabled"
	if status.Enabled {
		reporting = "enabled"
	}

	m := status.Metadata
	fmt.Printf("crashd %s (pid %d), up %s\n", status.Version, status.Pid, time.Duration(status.Uptime)*time.Second)
	fmt.Printf("Crash reporting: %s (%s)\n", reporting, status.State)
	fmt.Printf("Crash directory: %s\n", status.CrashDir)
	if status.LastReport != "" {
		fmt.Printf("Last report:     %s\n", status.LastReport)
	}
	fmt.Printf("Map:             %s\n", orNone(m.Map))
	fmt.Printf("Game mode:       %s\n", orNone(m.GameMode))
	fmt.Printf("Players:         %d\n", m.PlayerCount)
	fmt.Printf("Tick rate:       %d\n", m.TickRate)
	if m.MemoryMB > 0 {
		fmt.Printf("Memory:          %s\n", humanize.IBytes(uint64(m.MemoryMB)<<20))
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
