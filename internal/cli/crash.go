package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// Represents the 'crashd crash' command group.
type CrashCmd struct {
	Enable  CrashEnableCmd  `cmd:"" help:"Enable crash reporting and save the choice."`
	Disable CrashDisableCmd `cmd:"" help:"Disable crash reporting and save the choice."`
	Test    CrashTestCmd    `cmd:"" help:"Crash the daemon deliberately to verify reporting."`
	Reports CrashReportsCmd `cmd:"" help:"List written crash reports, newest first."`
}

// Represents the 'crashd crash enable' command.
type CrashEnableCmd struct{}

func (c *CrashEnableCmd) Run(ctx context.Context) error {
	return toggle(ctx, true)
}

// Represents the 'crashd crash disable' command.
type CrashDisableCmd struct{}

func (c *CrashDisableCmd) Run(ctx context.Context) error {
	return toggle(ctx, false)
}

func toggle(ctx context.Context, enabled bool) error {
	res, err := daemon().SetEnabled(ctx, enabled)
	if err != nil {
		return err
	}
	if res.Warning != "" {
		slog.Warn("setting applied but not saved", "error", res.Warning)
	}
	slog.Info("crash reporting updated", "enabled", res.Enabled)
	return nil
}

// Represents the 'crashd crash test' command.
type CrashTestCmd struct {
	Yes bool `short:"y" help:"Confirm that the daemon should crash."`
}

// Executes the crash test command. The daemon terminates after writing its
// report.
func (c *CrashTestCmd) Run(ctx context.Context) error {
	if !c.Yes {
		return errors.New("refusing to crash the daemon without --yes")
	}
	if err := daemon().CrashTest(ctx); err != nil {
		return err
	}
	slog.Warn("crash test triggered, the daemon is terminating")
	return nil
}

// Represents the 'crashd crash reports' command.
type CrashReportsCmd struct{}

// Executes the reports command.
func (c *CrashReportsCmd) Run(ctx context.Context) error {
	res, err := daemon().Reports(ctx)
	if err != nil {
		return err
	}

	if len(res.Reports) == 0 {
		fmt.Printf("No crash reports in %s\n", res.Dir)
		return nil
	}

	for _, r := range res.Reports {
		fmt.Printf("%-28s %8s  %s\n", r.Name, humanize.Bytes(uint64(r.Size)), humanize.Time(time.Unix(r.ModTime, 0)))
	}
	return nil
}
