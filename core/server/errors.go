package server

import "errors"

var (
	ErrInvalidPort          = errors.New("server port must be within 0-65535")
	ErrIncompleteTLS        = errors.New("both TLS certificate and key files are required")
	ErrFailedLoadCert       = errors.New("failed to load certificate")
	ErrPortInUse            = errors.New("address already in use")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrHTTPServer           = errors.New("HTTP server error")
)
