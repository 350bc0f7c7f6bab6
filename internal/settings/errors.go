package settings

import "errors"

var (
	ErrSettings = errors.New("settings error")
	ErrLocked   = errors.New("settings file is locked")
)
