package core

import "github.com/callfork/audiofork/internal/domain"

// CloseGoingDown is the close reason sent when a fork shuts its connection.
const CloseGoingDown = 1011

// Transport opens duplex binary-frame connections to the remote consumer.
// Pure mechanism: retry policy lives with the worker.
type Transport interface {
	Connect(endpoint string, sec *domain.TLSBundle) (Conn, error)
}

// Conn is a connected duplex stream. Owned exclusively by one worker.
type Conn interface {
	// WriteFrame sends one binary frame, whole frame or error.
	WriteFrame(p []byte) error

	// Close performs a best-effort graceful close with the given reason
	// code. Safe on an already broken connection.
	Close(code int) error
}
