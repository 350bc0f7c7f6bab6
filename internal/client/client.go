package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/customfortress/crashd/internal/paths"
	"github.com/customfortress/crashd/internal/protocol"
)

// Default deadline for a single exchange when the context carries none.
const defaultTimeout = 5 * time.Second

// Sends commands to the daemon.
type Client struct {
	socketPath string
}

// Returns a client for the daemon listening on socketPath. An empty path
// uses the default socket.
func New(socketPath string) *Client {
	if socketPath == "" {
		socketPath = paths.Socket()
	}
	return &Client{socketPath: socketPath}
}

// Returns the daemon's status.
func (c *Client) Status(ctx context.Context) (*protocol.StatusResult, error) {
	return call[protocol.StatusResult](ctx, c, protocol.CmdStatus, nil)
}

// Pushes the non-nil fields of req into the daemon's crash metadata.
func (c *Client) Metadata(ctx context.Context, req *protocol.MetadataRequest) error {
	_, err := call[struct{}](ctx, c, protocol.CmdMetadata, req)
	return err
}

// Enables or disables crash reporting.
func (c *Client) SetEnabled(ctx context.Context, enabled bool) (*protocol.ToggleResult, error) {
	cmd := protocol.CmdDisable
	if enabled {
		cmd = protocol.CmdEnable
	}
	return call[protocol.ToggleResult](ctx, c, cmd, nil)
}

// Asks the daemon to crash itself through the crash reporting pipeline.
func (c *Client) CrashTest(ctx context.Context) error {
	_, err := call[struct{}](ctx, c, protocol.CmdCrashTest, nil)
	return err
}

// Lists the crash reports the daemon has written, newest first.
func (c *Client) Reports(ctx context.Context) (*protocol.ReportsResult, error) {
	return call[protocol.ReportsResult](ctx, c, protocol.CmdReports, nil)
}

// Asks the daemon to stop.
func (c *Client) Shutdown(ctx context.Context) error {
	_, err := call[struct{}](ctx, c, protocol.CmdShutdown, nil)
	return err
}

// Performs one request-response exchange and decodes the result as T.
func call[T any](ctx context.Context, c *Client, cmd protocol.Command, payload any) (*T, error) {
	raw, err := c.exchange(ctx, cmd, payload)
	if err != nil {
		return nil, err
	}
	return protocol.DecodePayload[T](raw)
}

func (c *Client) exchange(ctx context.Context, cmd protocol.Command, payload any) (json.RawMessage, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, errors.Wrapf(ErrNotRunning, "dial %s: %v", c.socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	data, err := protocol.Encode(cmd, payload)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return nil, errors.Wrapf(ErrResponse, "send %s: %v", cmd, err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, errors.Wrapf(ErrResponse, "read %s response: %v", cmd, err)
	}

	env, raw, err := protocol.Decode(line)
	if err != nil {
		return nil, err
	}

	switch env.Command {
	case protocol.CmdOK:
		return raw, nil
	case protocol.CmdError:
		res, err := protocol.DecodePayload[protocol.ErrorResult](raw)
		if err != nil {
			return nil, err
		}
		return nil, errors.Wrap(ErrDaemon, res.Message)
	default:
		return nil, errors.Wrapf(ErrResponse, "%s", env.Command)
	}
}
