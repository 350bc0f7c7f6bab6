//go:build !linux

package crash

func loadModules() moduleTable {
	return executableOnly()
}
