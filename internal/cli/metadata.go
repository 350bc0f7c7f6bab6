package cli

import (
	"context"
	"log/slog"

	"github.com/customfortress/crashd/internal/protocol"
)

// Represents the 'crashd metadata' command.
//
// Only the flags given on the command line are sent; the daemon keeps its
// current value for the rest.
type MetadataCmd struct {
	Map      *string `help:"Current map name." placeholder:"NAME"`
	GameMode *string `help:"Current game mode." placeholder:"MODE"`
	Players  *int    `help:"Current player count."`
	TickRate *int    `help:"Server tick rate."`
}

// Executes the metadata command.
func (c *MetadataCmd) Run(ctx context.Context) error {
	err := daemon().Metadata(ctx, &protocol.MetadataRequest{
		Map:         c.Map,
		GameMode:    c.GameMode,
		PlayerCount: c.Players,
		TickRate:    c.TickRate,
	})
	if err != nil {
		return err
	}

	slog.Info("metadata updated")
	return nil
}
