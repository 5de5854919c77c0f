package core

import "github.com/callfork/audiofork/internal/domain"

// End reasons carried by the terminal event.
const (
	EndCompleted        = "completed"
	EndConnectFailed    = "connect-failed"
	EndRetriesExhausted = "retries-exhausted"
	EndWriteFailed      = "write-failed"
)

// EndEvent fires exactly once per fork, when the worker reaches Stopped.
// This is the only place the terminal fate of a running fork is observable.
type EndEvent struct {
	ID         domain.SessionID
	Endpoint   string
	Direction  domain.Direction
	FramesSent int
	Reason     string
}

// EndSink receives terminal events. Called from the worker goroutine.
type EndSink interface {
	ForkEnded(EndEvent)
}
