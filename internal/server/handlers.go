package server

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/customfortress/crashd/internal/protocol"
)

// Handles a status command.
func (s *Server) handleStatus(conn net.Conn) {
	s.mu.Lock()
	startedAt := s.startedAt
	s.mu.Unlock()

	s.respond(conn, protocol.CmdOK, &protocol.StatusResult{
		Running:    true,
		Version:    s.version,
		Pid:        os.Getpid(),
		Uptime:     int64(time.Since(startedAt) / time.Second),
		Enabled:    s.reporter.IsEnabled(),
		State:      s.reporter.State(),
		CrashDir:   s.reporter.Dir(),
		LastReport: s.reporter.LastReport(),
		Metadata:   s.reporter.Metadata(),
	})
}

// Handles a metadata push. Only the fields present in the payload change.
func (s *Server) handleMetadata(conn net.Conn, payload json.RawMessage) {
	req, err := protocol.DecodePayload[protocol.MetadataRequest](payload)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	if req.Map != nil {
		s.reporter.SetCurrentMap(*req.Map)
	}
	if req.GameMode != nil {
		s.reporter.SetGameMode(*req.GameMode)
	}
	if req.PlayerCount != nil {
		s.reporter.SetPlayerCount(*req.PlayerCount)
	}
	if req.TickRate != nil {
		s.reporter.SetTickRate(*req.TickRate)
	}

	s.respond(conn, protocol.CmdOK, nil)
}

// Handles an enable or disable command. A failure to persist the toggle is
// reported as a warning; the new value is in effect either way.
func (s *Server) handleToggle(conn net.Conn, enabled bool) {
	result := &protocol.ToggleResult{Enabled: enabled}
	if err := s.reporter.SetEnabled(enabled); err != nil {
		slog.Warn("failed to persist crash reporting toggle", "error", err)
		result.Warning = err.Error()
	}
	s.respond(conn, protocol.CmdOK, result)
}

// Handles a crash-test command. The response is sent before the fault so
// the operator sees confirmation.
func (s *Server) handleCrashTest(conn net.Conn) {
	s.respond(conn, protocol.CmdOK, nil)
	slog.Warn("crash test requested")

	go s.reporter.TestCrash()
}

// Handles a reports command.
func (s *Server) handleReports(conn net.Conn) {
	dir := s.reporter.Dir()
	reports, err := listReports(dir)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}
	s.respond(conn, protocol.CmdOK, &protocol.ReportsResult{Dir: dir, Reports: reports})
}

// Returns the crash reports in dir, newest first. A missing directory has
// no reports.
func listReports(dir string) ([]protocol.Report, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []protocol.Report{}, nil
	}
	if err != nil {
		return nil, err
	}

	reports := make([]protocol.Report, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "crash_") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		reports = append(reports, protocol.Report{
			Name:    name,
			Path:    filepath.Join(dir, name),
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		})
	}

	// Names embed the UTC timestamp, so reverse name order is newest first.
	sort.Slice(reports, func(i, j int) bool { return reports[i].Name > reports[j].Name })
	return reports, nil
}

// Handles a shutdown command.
func (s *Server) handleShutdown(conn net.Conn) {
	s.respond(conn, protocol.CmdOK, nil)
	slog.Info("shutdown requested")

	go s.Stop()
}
