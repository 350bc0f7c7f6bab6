package crash

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Capacities of the text fields, in bytes. Longer values are truncated.
const (
	versionCap   = 64
	mapCap       = 128
	gameModeCap  = 64
	timestampCap = 64
	crashIDCap   = 40
	osCap        = 128
	signalCap    = 64
)

// Layout of the crash timestamp written to reports.
const timestampLayout = "2006-01-02 15:04:05 UTC"

// Placeholder for facts that could not be determined.
const unknown = "unknown"

// Snapshot of the facts recorded alongside a crash.
type Metadata struct {
	Version     string `json:"version"`      // Build identifier, set at init.
	Map         string `json:"map"`          // Current map.
	GameMode    string `json:"game_mode"`    // Current game mode (ctf, pl, koth, ...).
	PlayerCount int    `json:"player_count"` // Connected players.
	TickRate    int    `json:"tick_rate"`    // Server tick rate.
	Timestamp   string `json:"timestamp"`    // UTC time the crash was detected.
	CrashID     string `json:"crash_id"`     // Unique crash identifier.
	Uptime      int64  `json:"uptime"`       // Seconds since process start.
	MemoryMB    int64  `json:"memory_mb"`    // Resident memory at crash time.
	OS          string `json:"os"`           // Operating system description.
	Signal      string `json:"signal"`       // Signal descriptor, set while handling.
	Dedicated   bool   `json:"dedicated"`    // Always true for the server.
}

// A text field with a fixed capacity. Writes replace the whole value
// atomically, so a reader never observes a torn string.
type fixedText struct {
	limit int
	value atomic.Pointer[string]
}

func (t *fixedText) set(s string) {
	s = truncate(s, t.limit)
	t.value.Store(&s)
}

func (t *fixedText) get() string {
	if p := t.value.Load(); p != nil {
		return *p
	}
	return ""
}

// Cuts s to at most limit bytes without splitting a UTF-8 sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// Process-wide mutable metadata.
//
// Gameplay fields are last-write-wins and may change at any time. Timestamp
// and crash ID are written once per crash cycle by stamp. The store takes no
// locks; a snapshot reflects whatever each field held when it was read.
type store struct {
	version   fixedText
	mapName   fixedText
	gameMode  fixedText
	timestamp fixedText
	crashID   fixedText
	os        fixedText
	signal    fixedText

	players  atomic.Int64
	tickRate atomic.Int64
	uptime   atomic.Int64
	memoryMB atomic.Int64

	stamped atomic.Bool
}

func newStore() *store {
	s := &store{}
	s.version.limit = versionCap
	s.mapName.limit = mapCap
	s.gameMode.limit = gameModeCap
	s.timestamp.limit = timestampCap
	s.crashID.limit = crashIDCap
	s.os.limit = osCap
	s.signal.limit = signalCap
	return s
}

// Clears every field and records the values fixed at init.
func (s *store) reset(version, osDescription string) {
	for _, t := range []*fixedText{&s.mapName, &s.gameMode, &s.timestamp, &s.crashID, &s.signal} {
		t.set("")
	}
	s.version.set(version)
	s.os.set(osDescription)
	s.players.Store(0)
	s.tickRate.Store(0)
	s.uptime.Store(0)
	s.memoryMB.Store(0)
	s.stamped.Store(false)
}

func (s *store) setMap(name string)      { s.mapName.set(name) }
func (s *store) setGameMode(mode string) { s.gameMode.set(mode) }
func (s *store) setPlayerCount(n int)    { s.players.Store(int64(n)) }
func (s *store) setTickRate(n int)       { s.tickRate.Store(int64(n)) }
func (s *store) setSignal(name string)   { s.signal.set(name) }

func (s *store) setDynamic(uptime, memoryMB int64) {
	s.uptime.Store(uptime)
	s.memoryMB.Store(memoryMB)
}

// Generates the crash timestamp and identifier. Only the first call in a
// crash cycle has any effect, so an identifier announced before a
// deliberate fault matches the one in the report.
func (s *store) stamp(now time.Time) {
	if !s.stamped.CompareAndSwap(false, true) {
		return
	}
	now = now.UTC()
	s.timestamp.set(now.Format(timestampLayout))
	s.crashID.set(newCrashID(now))
}

func (s *store) snapshot() Metadata {
	return Metadata{
		Version:     s.version.get(),
		Map:         s.mapName.get(),
		GameMode:    s.gameMode.get(),
		PlayerCount: int(s.players.Load()),
		TickRate:    int(s.tickRate.Load()),
		Timestamp:   s.timestamp.get(),
		CrashID:     s.crashID.get(),
		Uptime:      s.uptime.Load(),
		MemoryMB:    s.memoryMB.Load(),
		OS:          s.os.get(),
		Signal:      s.signal.get(),
		Dedicated:   true,
	}
}

// Formats "srv_<unix seconds>_<random>" with both parts in hex.
func newCrashID(now time.Time) string {
	var suffix uint16
	if id, err := uuid.NewRandom(); err == nil {
		suffix = binary.BigEndian.Uint16(id[:2])
	}
	return fmt.Sprintf("srv_%08x_%04x", uint32(now.Unix()), suffix)
}
