// Package client talks to a running crashd daemon over its control socket.
//
// Every call dials the socket, sends one command and reads one response.
// Error responses from the daemon come back as Go errors wrapping
// [ErrDaemon].
//
//	c := client.New("")
//	status, err := c.Status(ctx)
//	if errors.Is(err, client.ErrNotRunning) {
//	    fmt.Println("crashd is not running")
//	}
package client
