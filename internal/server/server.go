package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/customfortress/crashd/internal/crash"
	"github.com/customfortress/crashd/internal/paths"
	"github.com/customfortress/crashd/internal/protocol"
)

const (

	// Group name used to grant socket access. Members of this group can
	// push metadata and run operator commands without owning the process.
	socketGroup = "crashd"

	// File mode applied to the Unix socket. Owner and group get read-write
	// (required for connect); others get no access.
	socketMode = 0660
)

// The crash handler operations exposed over the socket.
type Reporter interface {
	Metadata() crash.Metadata
	SetCurrentMap(name string)
	SetGameMode(mode string)
	SetPlayerCount(n int)
	SetTickRate(n int)
	SetEnabled(enabled bool) error
	IsEnabled() bool
	State() string
	Dir() string
	LastReport() string
	TestCrash()
	Go(fn func())
}

// Holds server configuration.
type Config struct {
	SocketPath string   // Override for the Unix socket path. Empty uses the default.
	RuntimeDir string   // Directory for the PID and lock files. Empty uses the default.
	Version    string   // Version string reported by status.
	Reporter   Reporter // Crash handler the commands operate on.
}

// Listens on a Unix domain socket and dispatches commands.
type Server struct {
	socketPath string        // Path to the Unix socket file.
	pidPath    string        // Path to the PID file.
	lockPath   string        // Path to the daemon lock file.
	version    string        // Version string reported by status.
	reporter   Reporter      // Crash handler.
	lock       *flock.Flock  // Held while the server runs.
	listener   net.Listener  // Listener for incoming connections.
	startedAt  time.Time     // Timestamp when the server started.
	done       chan struct{} // Closed on shutdown.
	stopOnce   sync.Once
	mu         sync.Mutex // Protects listener.
}

// Creates a new server instance.
//
// The socket is not opened until [Server.Start] is called.
func New(cfg Config) (*Server, error) {
	if cfg.Reporter == nil {
		return nil, errors.Wrap(ErrServer, "no crash reporter configured")
	}

	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = paths.Socket()
	}

	pidPath, lockPath := paths.PIDFile(), paths.LockFile()
	if cfg.RuntimeDir != "" {
		pidPath = filepath.Join(cfg.RuntimeDir, filepath.Base(pidPath))
		lockPath = filepath.Join(cfg.RuntimeDir, filepath.Base(lockPath))
	}

	return &Server{
		socketPath: socketPath,
		pidPath:    pidPath,
		lockPath:   lockPath,
		version:    cfg.Version,
		reporter:   cfg.Reporter,
		done:       make(chan struct{}),
	}, nil
}

// Claims the daemon lock, opens the Unix socket and begins accepting
// connections.
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), paths.DefaultDirMode); err != nil {
		return errors.Wrap(ErrServer, err.Error())
	}

	lock := flock.New(s.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return errors.Wrapf(ErrServer, "acquire lock: %v", err)
	}
	if !locked {
		return errors.Wrapf(ErrAlreadyRunning, "lock held on %s", lock.Path())
	}
	s.lock = lock

	listener, err := listen(s.socketPath)
	if err != nil {
		lock.Unlock()
		return err
	}

	s.mu.Lock()
	s.listener = listener
	s.startedAt = time.Now()
	s.mu.Unlock()

	if err := s.writePID(); err != nil {
		slog.Warn("failed to write PID file", "error", err)
	}

	slog.Info("server listening on socket", "path", s.socketPath)

	go s.accept()
	return nil
}

// Creates the Unix socket listener, removes any stale socket from a previous
// run, and applies permissions.
func listen(socketPath string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), paths.DefaultDirMode); err != nil {
		return nil, errors.Wrap(ErrServer, err.Error())
	}

	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, errors.Wrapf(ErrServer, "failed to listen on %s: %v", socketPath, err)
	}

	if err := setSocketPermissions(socketPath); err != nil {
		listener.Close()
		return nil, err
	}

	return listener, nil
}

// Restricts socket access to owner and group.
func setSocketPermissions(socketPath string) error {
	if err := os.Chmod(socketPath, socketMode); err != nil {
		return errors.Wrapf(ErrServer, "failed to chmod socket %s", socketPath)
	}

	if g, err := user.LookupGroup(socketGroup); err == nil {
		if gid, err := strconv.Atoi(g.Gid); err == nil {
			if err := os.Chown(socketPath, -1, gid); err != nil {
				slog.Warn("failed to chgrp socket", "group", socketGroup, "error", err)
			}
		}
	} else {
		slog.Debug("socket group not found, socket accessible to owner only", "group", socketGroup)
	}

	return nil
}

// Shuts down the server and cleans up resources. Safe to call more than
// once.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Unlock()

		os.Remove(s.socketPath)
		os.Remove(s.pidPath)

		if s.lock != nil {
			s.lock.Unlock()
		}

		close(s.done)
	})
	return nil
}

// Blocks until the server stops.
func (s *Server) Wait() {
	<-s.done
}

// Returns a channel closed when the server stops.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Accepts connections in a loop until the server shuts down. Each
// connection is served on a goroutine guarded by the crash reporter.
func (s *Server) accept() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Error("accept error", "error", err)
			continue
		}

		s.reporter.Go(func() { s.handle(conn) })
	}
}

// Processes a single connection.
//
// Reads one newline-delimited JSON message, dispatches the command, and
// writes the response. The connection is closed after one exchange.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		slog.Error("read error", "error", err)
		return
	}

	env, payload, err := protocol.Decode(line)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	slog.Debug("command received", "command", env.Command)

	s.dispatch(conn, env.Command, payload)
}

// Routes a command to the appropriate handler.
func (s *Server) dispatch(conn net.Conn, cmd protocol.Command, payload json.RawMessage) {
	switch cmd {
	case protocol.CmdStatus:
		s.handleStatus(conn)
	case protocol.CmdMetadata:
		s.handleMetadata(conn, payload)
	case protocol.CmdEnable:
		s.handleToggle(conn, true)
	case protocol.CmdDisable:
		s.handleToggle(conn, false)
	case protocol.CmdCrashTest:
		s.handleCrashTest(conn)
	case protocol.CmdReports:
		s.handleReports(conn)
	case protocol.CmdShutdown:
		s.handleShutdown(conn)
	default:
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{
			Message: fmt.Sprintf("unknown command: %s", cmd),
		})
	}
}

// Writes a JSON envelope response to the connection.
func (s *Server) respond(conn net.Conn, cmd protocol.Command, payload any) {
	data, err := protocol.Encode(cmd, payload)
	if err != nil {
		slog.Error("encode response failed", "error", err)
		return
	}
	data = append(data, '\n')
	conn.Write(data)
}

// Writes the daemon PID so that operators can find the process.
func (s *Server) writePID() error {
	return os.WriteFile(s.pidPath, []byte(strconv.Itoa(os.Getpid())), paths.DefaultFileMode)
}
