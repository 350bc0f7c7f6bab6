package crash

import (
	"bufio"
	"runtime"
	"strings"
	"testing"
)

const sampleMaps = `00400000-00452000 r-xp 00000000 08:02 173521     /srv/cf2/server
00651000-00652000 rw-p 00051000 08:02 173521     /srv/cf2/server
7f2c4e000000-7f2c4e021000 r--p 00000000 08:01 131090  /usr/lib/libc.so.6
7f2c4e021000-7f2c4e1b6000 r-xp 00021000 08:01 131090  /usr/lib/libc.so.6
7ffd1e5d0000-7ffd1e5f1000 rw-p 00000000 00:00 0      [stack]
7ffd1e5f8000-7ffd1e5fa000 r-xp 00000000 00:00 0      [vdso]
`

func TestParseMaps(t *testing.T) {
	table := parseMaps(bufio.NewScanner(strings.NewReader(sampleMaps)))
	if len(table) != 2 {
		t.Fatalf("len(table) = %d, want 2 executable file mappings", len(table))
	}

	m, ok := table.lookup(0x7f2c4e021100)
	if !ok {
		t.Fatal("libc address not found")
	}
	if m.path != "/usr/lib/libc.so.6" {
		t.Fatalf("path = %q, want /usr/lib/libc.so.6", m.path)
	}
	if off := uintptr(0x7f2c4e021100) - m.base; off != 0x21100 {
		t.Fatalf("module offset = %#x, want 0x21100", off)
	}

	if _, ok := table.lookup(0x7ffd1e5f8010); ok {
		t.Fatal("vdso address resolved to a file")
	}
}

func TestParseMapsKeepsWholePath(t *testing.T) {
	const maps = `00400000-00452000 r-xp 00000000 08:02 173521     /srv/cf 2/server (deleted)
7f2c4e021000-7f2c4e1b6000 r-xp 00021000 08:01 131090  /opt/game libs/libphysics.so
`
	table := parseMaps(bufio.NewScanner(strings.NewReader(maps)))
	if len(table) != 2 {
		t.Fatalf("len(table) = %d, want 2", len(table))
	}
	if table[0].path != "/srv/cf 2/server (deleted)" {
		t.Fatalf("path = %q, want the full pathname column", table[0].path)
	}
	if table[1].path != "/opt/game libs/libphysics.so" {
		t.Fatalf("path = %q, want the full pathname column", table[1].path)
	}
}

func TestMappedPath(t *testing.T) {
	cases := map[string]string{
		"00400000-00452000 r-xp 00000000 08:02 173521     /srv/cf2/server": "/srv/cf2/server",
		"7ffd1e5d0000-7ffd1e5f1000 rw-p 00000000 00:00 0      [stack]":     "[stack]",
		"7ffd1e5d0000-7ffd1e5f1000 rw-p 00000000 00:00 0":                  "",
	}
	for line, want := range cases {
		if got := mappedPath(line); got != want {
			t.Fatalf("mappedPath(%q) = %q, want %q", line, got, want)
		}
	}
}

func TestLoadModulesFindsTestBinary(t *testing.T) {
	pc, _, _, _ := runtime.Caller(0)
	if _, ok := loadModules().lookup(pc); !ok {
		t.Fatalf("pc %#x not inside any loaded module", pc)
	}
}
