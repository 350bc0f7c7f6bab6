package protocol

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/customfortress/crashd/internal/crash"
)

// Names a request or response kind.
type Command string

const (
	CmdOK    Command = "ok"
	CmdError Command = "error"

	CmdStatus    Command = "status"
	CmdMetadata  Command = "metadata"
	CmdEnable    Command = "enable"
	CmdDisable   Command = "disable"
	CmdCrashTest Command = "crash-test"
	CmdReports   Command = "reports"
	CmdShutdown  Command = "shutdown"
)

// Wire format of every message.
type Envelope struct {
	Command Command         `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload of a [CmdError] response.
type ErrorResult struct {
	Message string `json:"message"`
}

// Payload of a [CmdMetadata] request. Nil fields are left unchanged.
type MetadataRequest struct {
	Map         *string `json:"map,omitempty"`
	GameMode    *string `json:"game_mode,omitempty"`
	PlayerCount *int    `json:"player_count,omitempty"`
	TickRate    *int    `json:"tick_rate,omitempty"`
}

// Payload of a [CmdStatus] response.
type StatusResult struct {
	Running    bool           `json:"running"`
	Version    string         `json:"version"`
	Pid        int            `json:"pid"`
	Uptime     int64          `json:"uptime"`
	Enabled    bool           `json:"enabled"`
	State      string         `json:"state"`
	CrashDir   string         `json:"crash_dir"`
	LastReport string         `json:"last_report,omitempty"`
	Metadata   crash.Metadata `json:"metadata"`
}

// Payload of a [CmdEnable] or [CmdDisable] response.
type ToggleResult struct {
	Enabled bool   `json:"enabled"`
	Warning string `json:"warning,omitempty"`
}

// One report file in a [CmdReports] response.
type Report struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mod_time"` // Unix seconds.
}

// Payload of a [CmdReports] response, newest first.
type ReportsResult struct {
	Dir     string   `json:"dir"`
	Reports []Report `json:"reports"`
}

// Encodes a command and payload as one JSON line, without the newline.
func Encode(cmd Command, payload any) ([]byte, error) {
	env := Envelope{Command: cmd}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrapf(ErrProtocol, "encode %s payload: %v", cmd, err)
		}
		env.Payload = raw
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrapf(ErrProtocol, "encode %s: %v", cmd, err)
	}
	return data, nil
}

// Decodes one JSON line into its envelope and raw payload.
func Decode(line []byte) (*Envelope, json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, nil, errors.Wrapf(ErrProtocol, "decode envelope: %v", err)
	}
	if env.Command == "" {
		return nil, nil, errors.Wrap(ErrProtocol, "missing command")
	}
	return &env, env.Payload, nil
}

// Decodes a payload into a value of type T. An empty payload yields the
// zero value.
func DecodePayload[T any](payload json.RawMessage) (*T, error) {
	var v T
	if len(payload) == 0 {
		return &v, nil
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, errors.Wrapf(ErrProtocol, "decode payload: %v", err)
	}
	return &v, nil
}
