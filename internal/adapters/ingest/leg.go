package ingest

import (
	"errors"
	"fmt"
	"time"

	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/callfork/audiofork/internal/core"
	"github.com/callfork/audiofork/internal/domain"
)

const cueWriteWait = 5 * time.Second

var errLegGone = errors.New("leg is gone")

// Leg implements core.CallLeg over a WebSocket feed. The feeder pushes one
// mixed slin stream; frame hooks fan it out to the forks attached here.
// Audible cues travel back to the feeder as JSON text messages, so the media
// gateway plays them into the call.
type Leg struct {
	name string
	conn *websocket.Conn

	writeMu sync.Mutex // serializes cue writes

	mu     sync.Mutex
	vars   map[string]string
	hooks  []*hook
	cues   map[string]chan struct{}
	closed bool

	queueDepth int
	maxHooks   int

	warnedSize bool // owned by the hub's read pump
}

func newLeg(name string, conn *websocket.Conn, queueDepth, maxHooks int) *Leg {
	return &Leg{
		name:       name,
		conn:       conn,
		vars:       make(map[string]string),
		cues:       make(map[string]chan struct{}),
		queueDepth: queueDepth,
		maxHooks:   maxHooks,
	}
}

func (l *Leg) Name() string { return l.name }

// Attach allocates a frame hook. The direction is recorded for diagnostics;
// the feed already carries the mix the gateway was asked to produce.
func (l *Leg) Attach(d domain.Direction) (core.Attachment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, errLegGone
	}
	if len(l.hooks) >= l.maxHooks {
		return nil, fmt.Errorf("frame hook limit (%d) reached", l.maxHooks)
	}
	hk := &hook{
		leg:    l,
		dir:    d,
		frames: make(chan core.Frame, l.queueDepth),
		wake:   make(chan struct{}, 1),
	}
	l.hooks = append(l.hooks, hk)
	return hk, nil
}

func (l *Leg) push(f core.Frame) {
	l.mu.Lock()
	hooks := make([]*hook, len(l.hooks))
	copy(hooks, l.hooks)
	l.mu.Unlock()

	for _, hk := range hooks {
		// Every fork gets its own copy: workers mutate payloads in place.
		buf := make(core.Frame, len(f))
		copy(buf, f)
		select {
		case hk.frames <- buf:
		default:
			// Drop when the fork is backed up.
		}
	}
}

func (l *Leg) SetVariable(name, value string) {
	l.mu.Lock()
	l.vars[name] = value
	l.mu.Unlock()
}

func (l *Leg) GetVariable(name string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.vars[name]
	return v, ok
}

func (l *Leg) PlayCue(name string) {
	l.sendCue(name)
}

func (l *Leg) StartPeriodicCue(name string, interval time.Duration) (string, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return "", errLegGone
	}
	id := uuid.NewString()
	stop := make(chan struct{})
	l.cues[id] = stop
	l.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.sendCue(name)
			case <-stop:
				return
			}
		}
	}()
	return id, nil
}

func (l *Leg) StopPeriodicCue(id string) {
	l.mu.Lock()
	stop, ok := l.cues[id]
	if ok {
		delete(l.cues, id)
	}
	l.mu.Unlock()
	if ok {
		close(stop)
	}
}

func (l *Leg) sendCue(name string) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_ = l.conn.SetWriteDeadline(time.Now().Add(cueWriteWait))
	if err := l.conn.WriteJSON(map[string]string{"cue": name}); err != nil {
		log.Warn().Err(err).Str("module", "ingest").Str("leg", l.name).Str("cue", name).Msg("cue write failed")
	}
}

func (l *Leg) detach(hk *hook) {
	l.mu.Lock()
	for i, cur := range l.hooks {
		if cur == hk {
			l.hooks = append(l.hooks[:i], l.hooks[i+1:]...)
			break
		}
	}
	l.mu.Unlock()
}

func (l *Leg) close() {
	l.mu.Lock()
	l.closed = true
	hooks := l.hooks
	l.hooks = nil
	cues := l.cues
	l.cues = make(map[string]chan struct{})
	l.mu.Unlock()

	for _, stop := range cues {
		close(stop)
	}
	for _, hk := range hooks {
		hk.Wake()
	}
	_ = l.conn.Close()
}

// hook is one live frame attachment, owned by exactly one worker.
type hook struct {
	leg    *Leg
	dir    domain.Direction
	frames chan core.Frame
	wake   chan struct{}
}

func (hk *hook) ReadFrame(wait time.Duration) (core.Frame, bool) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case f := <-hk.frames:
		return f, true
	case <-hk.wake:
		return nil, false
	case <-timer.C:
		return nil, false
	}
}

func (hk *hook) Wake() {
	select {
	case hk.wake <- struct{}{}:
	default:
	}
}

func (hk *hook) Detach() {
	hk.leg.detach(hk)
}
