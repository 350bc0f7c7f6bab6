package cli

import (
	"context"
	"fmt"

	"github.com/customfortress/crashd/internal"
)

// Represents the 'crashd version' command.
type VersionCmd struct {
	Build bool `short:"b" help:"Print the build identifier recorded in crash reports."`
}

// Executes the version command.
func (c *VersionCmd) Run(ctx context.Context) error {
	if !c.Build {
		fmt.Println(internal.VersionString())
		return nil
	}
	fmt.Println(internal.BuildID())
	return nil
}
