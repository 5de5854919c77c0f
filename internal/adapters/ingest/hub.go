// Package ingest provides WebSocket-fed call legs: an external media stack
// pushes raw slin frames into a feed endpoint, and forks relay them onward.
package ingest

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/callfork/audiofork/internal/core"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub owns the live call legs, keyed by name.
type Hub struct {
	mu   sync.RWMutex
	legs map[string]*Leg

	// onTeardown runs the fork sweep for a leg before the hub forgets it.
	onTeardown func(legName string)

	queueDepth int
	maxHooks   int

	// frameBytes is the expected payload size (samples * 2); feeds sending
	// other sizes are still relayed, but flagged once.
	frameBytes int
}

func NewHub(onTeardown func(string), queueDepth, maxHooks, frameBytes int) *Hub {
	if queueDepth <= 0 {
		queueDepth = 32
	}
	if maxHooks <= 0 {
		maxHooks = 8
	}
	return &Hub{
		legs:       make(map[string]*Leg),
		onTeardown: onTeardown,
		queueDepth: queueDepth,
		maxHooks:   maxHooks,
		frameBytes: frameBytes,
	}
}

// Lookup implements core.LegProvider.
func (h *Hub) Lookup(name string) (core.CallLeg, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	leg, ok := h.legs[name]
	return leg, ok
}

// HandleFeed upgrades the connection and pumps frames into a new leg until
// the feeder disconnects, then runs the teardown sweep.
func (h *Hub) HandleFeed(c *gin.Context) {
	name := c.Param("name")

	h.mu.RLock()
	_, exists := h.legs[name]
	h.mu.RUnlock()
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "leg already connected"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ingest").Str("leg", name).Msg("feed upgrade failed")
		return
	}

	leg := newLeg(name, ws, h.queueDepth, h.maxHooks)
	h.mu.Lock()
	h.legs[name] = leg
	h.mu.Unlock()

	log.Info().Str("module", "ingest").Str("leg", name).Msg("leg connected")
	h.readPump(leg)
}

func (h *Hub) readPump(leg *Leg) {
	defer h.teardown(leg)
	for {
		msgType, data, err := leg.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("module", "ingest").Str("leg", leg.name).Msg("feed read error")
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if h.frameBytes > 0 && len(data) != h.frameBytes && !leg.warnedSize {
			leg.warnedSize = true
			log.Warn().Str("module", "ingest").Str("leg", leg.name).Int("got", len(data)).Int("want", h.frameBytes).Msg("unexpected frame size")
		}
		leg.push(core.Frame(data))
	}
}

// teardown mirrors the call-leg destruction path: detach every live fork
// header first, then reclaim the leg's own state.
func (h *Hub) teardown(leg *Leg) {
	h.mu.Lock()
	delete(h.legs, leg.name)
	h.mu.Unlock()

	if h.onTeardown != nil {
		h.onTeardown(leg.name)
	}
	leg.close()
	log.Info().Str("module", "ingest").Str("leg", leg.name).Msg("leg gone")
}
