package cli

import (
	"context"
	"log/slog"

	"github.com/customfortress/crashd/internal"
	"github.com/customfortress/crashd/internal/crash"
	"github.com/customfortress/crashd/internal/paths"
	"github.com/customfortress/crashd/internal/server"
	"github.com/customfortress/crashd/internal/settings"
)

// Represents the 'crashd start' command.
type StartCmd struct {
	Map      string `help:"Initial map name." placeholder:"NAME"`
	GameMode string `help:"Initial game mode." placeholder:"MODE"`
	Players  int    `help:"Initial player count."`
	TickRate int    `help:"Server tick rate." default:"66"`
}

// Executes the start command.
//
// Loads settings, installs crash reporting, starts the control socket and
// blocks until the context is cancelled (e.g. via SIGINT or SIGTERM) or a
// shutdown command arrives.
func (c *StartCmd) Run(ctx context.Context) error {
	store := settings.Open(settingsPath())
	cfg := store.Get()

	handler := crash.New(crash.Options{
		Version:      internal.BuildID(),
		Dir:          cfg.CrashDir,
		MaxFrames:    cfg.MaxFrames,
		PanicOnFault: cfg.PanicOnFault,
		Toggle:       store,
	})
	crash.SetDefault(handler)
	handler.Init()
	defer handler.Shutdown()

	handler.SetCurrentMap(c.Map)
	handler.SetGameMode(c.GameMode)
	handler.SetPlayerCount(c.Players)
	handler.SetTickRate(c.TickRate)

	srv, err := server.New(server.Config{
		SocketPath: RootCmd.Socket,
		Version:    internal.VersionString(),
		Reporter:   handler,
	})
	if err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}

	slog.Info("crashd is running",
		"crash_reporting", handler.IsEnabled(),
		"crash_dir", handler.Dir(),
		"settings", store.Path(),
	)

	select {
	case <-ctx.Done():
	case <-srv.Done():
	}

	slog.Info("shutting down")
	return srv.Stop()
}

func settingsPath() string {
	if RootCmd.Settings != "" {
		return RootCmd.Settings
	}
	return paths.SettingsFile()
}
