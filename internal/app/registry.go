package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/callfork/audiofork/internal/core"
	"github.com/callfork/audiofork/internal/domain"
)

type sessionEntry struct {
	LegName string
	Session *core.Session
}

// Registry publishes live fork sessions so control operations can find them
// by id or by leg. Removing an entry doubles as the leg-side release of the
// destruction handshake: a session that is no longer published is a session
// the leg no longer accounts for.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.SessionID]*sessionEntry)}
}

func (r *Registry) Publish(legName string, s *core.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = &sessionEntry{LegName: legName, Session: s}
	log.Info().Str("module", "app.registry").Str("fork", string(s.ID)).Str("leg", legName).Msg("published fork")
}

func (r *Registry) Get(id domain.SessionID) (*core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[id]; ok {
		return e.Session, true
	}
	return nil, false
}

// AnyOnLeg returns some live session on the leg, for Stop calls that omit
// the id.
func (r *Registry) AnyOnLeg(legName string) (*core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.sessions {
		if e.LegName == legName {
			return e.Session, true
		}
	}
	return nil, false
}

func (r *Registry) OnLeg(legName string) []*core.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*core.Session, 0, len(r.sessions))
	for _, e := range r.sessions {
		if e.LegName == legName {
			out = append(out, e.Session)
		}
	}
	return out
}

// Unpublish removes the handle so later lookups fail cleanly, and signals
// the session's destruction handshake.
func (r *Registry) Unpublish(id domain.SessionID) (*core.Session, bool) {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	e.Session.SignalRelease()
	log.Info().Str("module", "app.registry").Str("fork", string(id)).Msg("unpublished fork")
	return e.Session, true
}

// TeardownLeg is the leg destruction sweep: every live session header on the
// leg is detached before the leg reclaims its own memory. Each worker is
// woken, told to shut down, and has its handshake completed.
func (r *Registry) TeardownLeg(legName string) int {
	r.mu.Lock()
	var swept []*core.Session
	for id, e := range r.sessions {
		if e.LegName == legName {
			swept = append(swept, e.Session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range swept {
		s.RequestShutdown()
		s.LegGone()
		s.Wake()
		s.SignalRelease()
	}
	if len(swept) > 0 {
		log.Info().Str("module", "app.registry").Str("leg", legName).Int("forks", len(swept)).Msg("swept forks on leg teardown")
	}
	return len(swept)
}
