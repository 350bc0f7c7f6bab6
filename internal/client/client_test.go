package client

import (
	"bufio"
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/customfortress/crashd/internal/protocol"
)

// Serves exactly one connection with the given response line.
func serveOnce(t *testing.T, response string) string {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "test.sock")
	ln, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		bufio.NewReader(conn).ReadBytes('\n')
		conn.Write([]byte(response + "\n"))
	}()

	return socket
}

func TestNotRunning(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "missing.sock"))

	if _, err := c.Status(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Status = %v, want ErrNotRunning", err)
	}
}

func TestDaemonError(t *testing.T) {
	socket := serveOnce(t, `{"command":"error","payload":{"message":"boom"}}`)

	_, err := New(socket).Reports(context.Background())
	if !errors.Is(err, ErrDaemon) {
		t.Fatalf("Reports = %v, want ErrDaemon", err)
	}
	if err.Error() != "boom: daemon error" {
		t.Fatalf("error = %q", err.Error())
	}
}

func TestUnexpectedResponse(t *testing.T) {
	socket := serveOnce(t, `{"command":"status"}`)

	if err := New(socket).Shutdown(context.Background()); !errors.Is(err, ErrResponse) {
		t.Fatalf("Shutdown = %v, want ErrResponse", err)
	}
}

func TestGarbageResponse(t *testing.T) {
	socket := serveOnce(t, `not json`)

	if err := New(socket).CrashTest(context.Background()); !errors.Is(err, protocol.ErrProtocol) {
		t.Fatalf("CrashTest = %v, want ErrProtocol", err)
	}
}

func TestToggleResult(t *testing.T) {
	socket := serveOnce(t, `{"command":"ok","payload":{"enabled":false,"warning":"read-only"}}`)

	res, err := New(socket).SetEnabled(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Enabled || res.Warning != "read-only" {
		t.Fatalf("result = %+v", res)
	}
}
