package crash

import "sync/atomic"

var defaultHandler atomic.Pointer[Handler]

// Makes h the handler used by the package-level setters.
func SetDefault(h *Handler) {
	defaultHandler.Store(h)
}

// Returns the handler set by [SetDefault], or nil.
func Default() *Handler {
	return defaultHandler.Load()
}

// The package-level setters let game logic push metadata without holding a
// reference to the handler. They do nothing before SetDefault is called.

func SetCurrentMap(name string) {
	if h := Default(); h != nil {
		h.SetCurrentMap(name)
	}
}

func SetGameMode(mode string) {
	if h := Default(); h != nil {
		h.SetGameMode(mode)
	}
}

func SetPlayerCount(n int) {
	if h := Default(); h != nil {
		h.SetPlayerCount(n)
	}
}

func SetTickRate(n int) {
	if h := Default(); h != nil {
		h.SetTickRate(n)
	}
}
