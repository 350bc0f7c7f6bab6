package crash

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

const procMaps = "/proc/self/maps"

// Reads the executable mappings of the current process.
func loadModules() moduleTable {
	f, err := os.Open(procMaps)
	if err != nil {
		return executableOnly()
	}
	defer f.Close()

	t := parseMaps(bufio.NewScanner(f))
	if len(t) == 0 {
		return executableOnly()
	}
	return t
}

// Parses /proc/<pid>/maps lines of the form
//
//	7f2c4e1d2000-7f2c4e1f4000 r-xp 00022000 08:01 131090  /usr/lib/libc.so.6
//
// keeping executable, file-backed mappings. The base of an object is the
// start of its lowest mapping, or zero when the object is loaded at a
// fixed address.
func parseMaps(sc *bufio.Scanner) moduleTable {
	var t moduleTable
	lowest := make(map[string]uintptr)
	fixed := make(map[string]bool)

	for sc.Scan() {
		line := sc.Text()
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		path := mappedPath(line)
		if !strings.HasPrefix(path, "/") {
			continue
		}
		lo, hi, ok := strings.Cut(fields[0], "-")
		if !ok {
			continue
		}
		start, err1 := strconv.ParseUint(lo, 16, 64)
		end, err2 := strconv.ParseUint(hi, 16, 64)
		offset, err3 := strconv.ParseUint(fields[2], 16, 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}

		if b, seen := lowest[path]; !seen || uintptr(start-offset) < b {
			lowest[path] = uintptr(start - offset)
		}
		if strings.Contains(fields[1], "x") {
			t = append(t, module{path: path, start: uintptr(start), end: uintptr(end)})
		}
	}

	for i := range t {
		p := t[i].path
		if _, ok := fixed[p]; !ok {
			fixed[p] = fixedAddress(p)
		}
		if !fixed[p] {
			t[i].base = lowest[p]
		}
	}
	return t
}

// Returns the pathname column of a maps line: everything after the fifth
// field, inner spaces and any " (deleted)" suffix included.
func mappedPath(line string) string {
	for range 5 {
		line = strings.TrimLeft(line, " \t")
		i := strings.IndexAny(line, " \t")
		if i < 0 {
			return ""
		}
		line = line[i:]
	}
	return strings.TrimSpace(line)
}
