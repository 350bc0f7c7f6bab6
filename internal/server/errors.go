package server

import "errors"

var (
	ErrServer         = errors.New("server error")
	ErrAlreadyRunning = errors.New("daemon already running")
)
