// Package server implements the crashd daemon's control socket.
//
// The daemon listens on a Unix domain socket for JSON-encoded commands from
// operators and from game-logic collaborators. Each connection carries a
// single request-response exchange: the client sends a newline-delimited
// JSON envelope, the server dispatches the command, and writes the result
// back before closing the connection.
//
// Commands report daemon status, push crash metadata (map, game mode,
// player count, tick rate), toggle crash reporting, list written crash
// reports, trigger a deliberate crash, and shut the daemon down.
//
// Example usage:
//
//	srv, err := server.New(server.Config{Reporter: handler})
//	if err != nil {
//	    return err
//	}
//
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Stop()
//
//	srv.Wait()
package server
