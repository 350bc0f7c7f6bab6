// Provides platform-appropriate paths for the daemon.
//
// Paths follow XDG conventions on Linux and platform-native conventions on
// macOS. Every path lives under a "crashd" subdirectory of its base. Crash
// reports go to the state directory so they survive cache cleanups.
package paths
