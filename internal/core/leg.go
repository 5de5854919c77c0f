package core

import (
	"time"

	"github.com/callfork/audiofork/internal/domain"
)

// CallLeg is one side of an active call. The leg owns the audio source a
// fork reads from; a fork holds a non-owning reference and must never touch
// the leg after its teardown released the session (see Session.SignalRelease
// and Session.LegGone).
type CallLeg interface {
	Name() string

	// Attach allocates the frame hook that feeds a fork.
	Attach(d domain.Direction) (Attachment, error)

	// Leg-scoped variable storage, used to publish the session id and to
	// expand post-process command substitutions.
	SetVariable(name, value string)
	GetVariable(name string) (string, bool)

	// Audible cues, fire and forget. Presentation only, never part of the
	// relay's correctness.
	PlayCue(name string)
	StartPeriodicCue(name string, interval time.Duration) (string, error)
	StopPeriodicCue(id string)
}

// Attachment is a live frame hook on a call leg. Owned by exactly one
// worker.
type Attachment interface {
	// ReadFrame returns the next audio frame, blocking up to wait. ok is
	// false on timeout or wake; the caller re-checks session status.
	ReadFrame(wait time.Duration) (f Frame, ok bool)

	// Wake unblocks a pending ReadFrame without delivering a frame.
	Wake()

	Detach()
}

// LegProvider resolves call legs by name for the management surface.
type LegProvider interface {
	Lookup(name string) (CallLeg, bool)
}
