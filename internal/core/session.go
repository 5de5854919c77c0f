package core

import (
	"sync"
	"time"

	"github.com/callfork/audiofork/internal/domain"
)

// Status is the single authoritative terminal signal observed by the worker
// loop. Transitions are monotonic: Running -> ShuttingDown -> Done.
type Status int

const (
	StatusRunning Status = iota
	StatusShuttingDown
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusShuttingDown:
		return "shutting-down"
	}
	return "done"
}

// Session is the shared record of one relay instance. All mutable fields are
// guarded by a single lock; the worker and the control surface both go
// through it. The leg reference is non-owning: the leg's teardown path (or a
// Stop) calls SignalRelease, and the worker waits for that release before its
// final cleanup. That two-phase handshake is what keeps the worker from
// touching leg-owned state after the leg reclaimed it.
type Session struct {
	ID  domain.SessionID
	Cfg domain.ForkConfig

	// PostProcess is the command executed once after the worker finishes,
	// with leg variables already substituted at creation time.
	PostProcess string

	att Attachment // owned by the worker, set once at creation

	mu            sync.Mutex
	status        Status
	leg           CallLeg
	muteRead      bool
	muteWrite     bool
	readVol       int
	writeVol      int
	beepCue       string
	workerStarted bool

	released    chan struct{}
	releaseOnce sync.Once
}

func NewSession(leg CallLeg, att Attachment, cfg domain.ForkConfig, postProcess string) *Session {
	return &Session{
		ID:          domain.NewSessionID(),
		Cfg:         cfg,
		PostProcess: postProcess,
		att:         att,
		leg:         leg,
		readVol:     cfg.ReadVolume,
		writeVol:    cfg.WriteVolume,
		released:    make(chan struct{}),
	}
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// RequestShutdown moves a running session to ShuttingDown. Later states are
// never rewound.
func (s *Session) RequestShutdown() {
	s.mu.Lock()
	if s.status == StatusRunning {
		s.status = StatusShuttingDown
	}
	s.mu.Unlock()
}

func (s *Session) markDone() {
	s.mu.Lock()
	s.status = StatusDone
	s.mu.Unlock()
}

// Wake pokes the worker out of a blocking frame read so a shutdown request
// is observed without waiting out the read timeout.
func (s *Session) Wake() {
	s.att.Wake()
}

// markWorkerStarted enforces the at-most-one-worker invariant.
func (s *Session) markWorkerStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workerStarted {
		return false
	}
	s.workerStarted = true
	return true
}

func (s *Session) SetMute(d domain.MuteDirection, on bool) {
	s.mu.Lock()
	switch d {
	case domain.MuteRead:
		s.muteRead = on
	case domain.MuteWrite:
		s.muteWrite = on
	case domain.MuteBoth:
		s.muteRead = on
		s.muteWrite = on
	}
	s.mu.Unlock()
}

func (s *Session) SetVolume(d domain.MuteDirection, level int) {
	s.mu.Lock()
	switch d {
	case domain.MuteRead:
		s.readVol = level
	case domain.MuteWrite:
		s.writeVol = level
	case domain.MuteBoth:
		s.readVol = level
		s.writeVol = level
	}
	s.mu.Unlock()
}

// frameControls snapshots the mutable flags for one frame iteration. A
// bidirectional fork carries a single mixed stream, so it is silenced only
// when both sides are muted, and the read gain wins when both are set.
func (s *Session) frameControls() (muted bool, gain int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.Cfg.Direction {
	case domain.DirectionIn:
		return s.muteRead, s.readVol
	case domain.DirectionOut:
		return s.muteWrite, s.writeVol
	}
	gain = s.readVol
	if gain == 0 {
		gain = s.writeVol
	}
	return s.muteRead && s.muteWrite, gain
}

// SetBeepCue records the periodic beep handle so Stop can cancel it.
func (s *Session) SetBeepCue(id string) {
	s.mu.Lock()
	s.beepCue = id
	s.mu.Unlock()
}

func (s *Session) TakeBeepCue() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.beepCue
	s.beepCue = ""
	return id
}

// LegPlayCue plays a cue if the leg is still reachable. Best effort.
func (s *Session) LegPlayCue(name string) {
	s.mu.Lock()
	leg := s.leg
	s.mu.Unlock()
	if leg != nil {
		leg.PlayCue(name)
	}
}

// SignalRelease is the leg-side half of the destruction handshake: the
// published handle has been removed (by Stop or by leg teardown) and the
// worker may finish its cleanup. Idempotent.
func (s *Session) SignalRelease() {
	s.releaseOnce.Do(func() { close(s.released) })
}

// LegGone drops the non-owning leg reference ahead of leg teardown. Cues
// become no-ops; the worker never dereferences the leg again.
func (s *Session) LegGone() {
	s.mu.Lock()
	s.leg = nil
	s.mu.Unlock()
}

// AwaitLegRelease is the worker-side half: block until the leg has released
// the session, or until the bound elapses. A false return means the worker
// proceeds without the handshake, which is logged by the caller.
func (s *Session) AwaitLegRelease(bound time.Duration) bool {
	select {
	case <-s.released:
		return true
	case <-time.After(bound):
		return false
	}
}
