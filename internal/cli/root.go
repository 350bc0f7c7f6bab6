package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/customfortress/crashd/internal"
	"github.com/customfortress/crashd/internal/client"
)

// Represents the root command for the crashd binary.
var RootCmd struct {
	Quiet    bool        `short:"q" help:"Suppress informational output."`
	Verbose  bool        `short:"v" help:"Enable verbose output."`
	Debug    bool        `short:"d" help:"Enable debug output."`
	Socket   string      `short:"s" help:"Override the default Unix socket path." placeholder:"PATH"`
	Settings string      `help:"Override the default settings file path." placeholder:"PATH"`
	Start    StartCmd    `cmd:"" help:"Start the daemon."`
	Status   StatusCmd   `cmd:"" help:"Show daemon and crash reporting status."`
	Metadata MetadataCmd `cmd:"" help:"Update the crash metadata of a running daemon."`
	Crash    CrashCmd    `cmd:"" help:"Manage crash reporting."`
	Stop     StopCmd     `cmd:"" help:"Stop a running daemon."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("The "+internal.Product+" crash reporting daemon.\n\nWrites a crash report for every fatal signal and accepts game metadata over a Unix domain socket."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Configures the global logger based on CLI flags.
func configureLogger() {
	if RootCmd.Debug {
		internal.SetDebug(true)
	}
	if RootCmd.Quiet {
		internal.SetQuiet(true)
	}
	if RootCmd.Verbose {
		internal.SetVerbose(true)
	}

	slog.SetDefault(NewLogger(os.Stderr))
}

// Builds a logger writing to f at the level implied by the current flags.
//
// Terminals get human-readable text; anything else gets one JSON object per
// line. Verbose output includes source locations.
func NewLogger(f *os.File) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     internal.LogLevel(),
		AddSource: internal.IsVerbose(),
	}

	var handler slog.Handler
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		handler = slog.NewTextHandler(f, opts)
	} else {
		handler = slog.NewJSONHandler(f, opts)
	}
	return slog.New(handler.WithGroup(internal.Name))
}

// Returns a client for the daemon selected by the socket flag.
func daemon() *client.Client {
	return client.New(RootCmd.Socket)
}
