// Parses flags and configures logging for the crashd daemon and its
// operator commands.
//
// The binary accepts the following global flags:
//
//	-q, --quiet     Suppress informational output.
//	-v, --verbose   Enable verbose output.
//	-d, --debug     Enable debug output.
//	-s, --socket    Unix socket path.
//	    --settings  Settings file path.
//
// Flags override build-time defaults set via linker flags. After parsing, the
// global logger is reconfigured to reflect the final level and verbosity before
// any command runs.
//
// The start command runs the daemon with crash reporting installed. Every
// other command except version is a client of a running daemon.
package cli
