package app

import (
	"github.com/rs/zerolog/log"

	"github.com/callfork/audiofork/internal/core"
)

// LogSink is the default terminal-event sink: one structured log line per
// finished fork, carrying the endpoint and direction for diagnostics.
type LogSink struct{}

func (LogSink) ForkEnded(ev core.EndEvent) {
	log.Info().
		Str("module", "app.events").
		Str("fork", string(ev.ID)).
		Str("endpoint", ev.Endpoint).
		Str("direction", ev.Direction.String()).
		Int("frames_sent", ev.FramesSent).
		Str("reason", ev.Reason).
		Msg("fork ended")
}
