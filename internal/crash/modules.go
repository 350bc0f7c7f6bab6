package crash

import (
	"debug/elf"
	"os"
)

// A mapped object and the range of addresses it occupies.
type module struct {
	path       string
	start, end uintptr
	base       uintptr // Subtracted from a PC to get an addr2line address.
}

type moduleTable []module

func (t moduleTable) lookup(pc uintptr) (module, bool) {
	for _, m := range t {
		if pc >= m.start && pc < m.end {
			return m, true
		}
	}
	return module{}, false
}

// Reports whether the object at path is loaded at a fixed address, in which
// case addr2line expects absolute addresses rather than load offsets.
func fixedAddress(path string) bool {
	f, err := elf.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	return f.Type == elf.ET_EXEC
}

// Module table covering the whole address space with the executable.
// Used when the platform offers no mapping list.
func executableOnly() moduleTable {
	exe, err := os.Executable()
	if err != nil {
		return nil
	}
	return moduleTable{{path: exe, start: 0, end: ^uintptr(0)}}
}
