package client

import "errors"

var (
	ErrNotRunning = errors.New("daemon not running")
	ErrDaemon     = errors.New("daemon error")
	ErrResponse   = errors.New("unexpected response")
)
