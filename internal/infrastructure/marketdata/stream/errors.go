package stream

import "errors"

var (
	ErrConnectionFailed = errors.New("failed to connect to market stream")
	ErrAlreadyRunning   = errors.New("market stream trigger already running")
	ErrMalformedMessage = errors.New("malformed market stream message")
	ErrNotConnected     = errors.New("market stream not connected")
)
