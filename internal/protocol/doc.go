// Package protocol defines the messages exchanged over the daemon socket.
//
// Every message is a single line of JSON holding an [Envelope]: a command
// name and an optional command-specific payload. Requests carry the command
// to run; responses carry [CmdOK] or [CmdError] and a result payload.
package protocol
