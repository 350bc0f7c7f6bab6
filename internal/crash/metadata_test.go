package crash

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestStoreLastWriteWins(t *testing.T) {
	s := newStore()
	s.reset("1.0", "Linux")

	s.setMap("cp_dustbowl")
	s.setGameMode("cp")
	s.setPlayerCount(3)
	s.setMap("ctf_2fort")
	s.setPlayerCount(12)
	s.setGameMode("ctf")
	s.setPlayerCount(11)

	m := s.snapshot()
	if m.Map != "ctf_2fort" {
		t.Fatalf("Map = %q, want ctf_2fort", m.Map)
	}
	if m.GameMode != "ctf" {
		t.Fatalf("GameMode = %q, want ctf", m.GameMode)
	}
	if m.PlayerCount != 11 {
		t.Fatalf("PlayerCount = %d, want 11", m.PlayerCount)
	}
	if m.Version != "1.0" || m.OS != "Linux" {
		t.Fatalf("Version, OS = %q, %q, want 1.0, Linux", m.Version, m.OS)
	}
	if !m.Dedicated {
		t.Fatal("Dedicated = false, want true")
	}
}

func TestStoreTruncatesText(t *testing.T) {
	s := newStore()
	s.setMap(strings.Repeat("m", mapCap+50))
	if got := len(s.snapshot().Map); got != mapCap {
		t.Fatalf("len(Map) = %d, want %d", got, mapCap)
	}
}

func TestTruncateKeepsRunes(t *testing.T) {
	got := truncate("abé", 3) // é is two bytes
	if got != "ab" {
		t.Fatalf("truncate = %q, want %q", got, "ab")
	}
	if truncate("short", 64) != "short" {
		t.Fatal("short string was modified")
	}
}

func TestStampOnlyOnce(t *testing.T) {
	s := newStore()
	s.reset("v", "os")

	if m := s.snapshot(); m.CrashID != "" || m.Timestamp != "" {
		t.Fatalf("crash id %q or timestamp %q set before stamp", m.CrashID, m.Timestamp)
	}

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.stamp(first)
	m := s.snapshot()
	if m.Timestamp != "2026-01-02 03:04:05 UTC" {
		t.Fatalf("Timestamp = %q", m.Timestamp)
	}

	s.stamp(first.Add(time.Hour))
	if again := s.snapshot(); again.CrashID != m.CrashID || again.Timestamp != m.Timestamp {
		t.Fatal("second stamp changed crash id or timestamp")
	}

	s.reset("v", "os")
	if s.snapshot().CrashID != "" {
		t.Fatal("reset kept the crash id")
	}
}

func TestCrashIDFormat(t *testing.T) {
	id := newCrashID(time.Unix(0x65f2a1b3, 0))
	if !regexp.MustCompile(`^srv_65f2a1b3_[0-9a-f]{4}$`).MatchString(id) {
		t.Fatalf("crash id = %q, want srv_65f2a1b3_xxxx", id)
	}
}
