package cli

import (
	"context"
	"log/slog"
)

// Represents the 'crashd stop' command.
type StopCmd struct{}

// Executes the stop command.
func (c *StopCmd) Run(ctx context.Context) error {
	if err := daemon().Shutdown(ctx); err != nil {
		return err
	}
	slog.Info("shutdown requested")
	return nil
}
