package core

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// WorkerConfig wires the collaborators of one relay worker.
type WorkerConfig struct {
	Transport Transport
	Clock     clock.Clock
	Sink      EndSink

	// PostRun executes the session's post-process command, if any.
	PostRun func(cmd string)

	// ReadWait bounds one blocking frame read.
	ReadWait time.Duration

	// ReleaseWait bounds the destruction handshake. The worker logs and
	// proceeds when the leg never signals within this window.
	ReleaseWait time.Duration
}

// Worker is the background task relaying frames from one call leg to one
// remote endpoint: Connecting -> Streaming -> Reconnecting -> Terminating ->
// Stopped. Exactly one worker ever runs per session.
type Worker struct {
	sess *Session
	cfg  WorkerConfig
	log  zerolog.Logger

	framesSent int
	endOnce    sync.Once
}

func NewWorker(sess *Session, cfg WorkerConfig) *Worker {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.ReadWait <= 0 {
		cfg.ReadWait = 100 * time.Millisecond
	}
	if cfg.ReleaseWait <= 0 {
		cfg.ReleaseWait = 5 * time.Second
	}
	logger := log.With().
		Str("module", "core.worker").
		Str("fork", string(sess.ID)).
		Str("endpoint", sess.Cfg.Endpoint).
		Str("direction", sess.Cfg.Direction.String()).
		Logger()
	return &Worker{sess: sess, cfg: cfg, log: logger}
}

// Run is the goroutine body. It never returns an error: the terminal fate is
// observable only through the end event and the post-process command.
func (w *Worker) Run() {
	if !w.sess.markWorkerStarted() {
		w.log.Error().Msg("refusing second worker for fork")
		return
	}

	w.log.Info().Msg("connecting")
	conn, err := w.cfg.Transport.Connect(w.sess.Cfg.Endpoint, w.sess.Cfg.TLS)
	if err != nil {
		// A fork that never connects never streams and is never retried.
		w.log.Error().Err(err).Msg("could not connect, abandoning fork")
		w.sess.att.Detach()
		w.sess.markDone()
		w.emitEnd(EndConnectFailed)
		return
	}

	metricActiveForks.Inc()
	defer metricActiveForks.Dec()

	w.log.Info().Msg("streaming")
	conn, reason := w.stream(conn)
	w.terminate(conn, reason)
}

func (w *Worker) stream(conn Conn) (Conn, string) {
	for w.sess.Status() == StatusRunning {
		fr, ok := w.sess.att.ReadFrame(w.cfg.ReadWait)
		if !ok {
			// Timeout or wake; loop to re-check status.
			continue
		}

		// Mute and volume are re-read every iteration, never cached.
		muted, gain := w.sess.frameControls()
		if muted {
			fr.Silence()
		} else {
			fr.AdjustVolume(gain)
		}

		if err := conn.WriteFrame(fr); err != nil {
			w.log.Error().Err(err).Msg("write failed, reconnecting")
			next, rerr := w.recover(conn)
			if rerr != nil {
				if errors.Is(rerr, ErrRetriesExhausted) {
					w.log.Error().Msg("reconnect retries exhausted")
					w.sess.RequestShutdown()
					return conn, EndRetriesExhausted
				}
				// Shutdown was requested mid-recovery.
				return conn, EndCompleted
			}
			conn = next

			// Re-send the frame that failed, exactly once.
			if err := conn.WriteFrame(fr); err != nil {
				w.log.Error().Err(err).Msg("re-send after reconnect failed")
				w.sess.RequestShutdown()
				return conn, EndWriteFailed
			}
			w.log.Info().Msg("streaming resumed")
		}

		w.framesSent++
		metricFramesRelayed.Inc()
		metricBytesRelayed.Add(float64(len(fr)))
	}
	return conn, EndCompleted
}

func (w *Worker) recover(broken Conn) (Conn, error) {
	_ = broken.Close(CloseGoingDown)
	policy := w.sess.Cfg.Reconnect
	dial := func() (Conn, error) {
		metricReconnects.Inc()
		conn, err := w.cfg.Transport.Connect(w.sess.Cfg.Endpoint, w.sess.Cfg.TLS)
		if err != nil {
			w.log.Warn().Err(err).Dur("retry_in", policy.Timeout).Msg("reconnect attempt failed")
		}
		return conn, err
	}
	abort := func() bool { return w.sess.Status() != StatusRunning }
	return reconnect(w.cfg.Clock, policy, dial, abort)
}

func (w *Worker) terminate(conn Conn, reason string) {
	w.log.Info().Str("reason", reason).Msg("terminating")

	if w.sess.Cfg.BeepOnStop {
		w.sess.LegPlayCue("beep")
	}
	_ = conn.Close(CloseGoingDown)
	w.sess.att.Detach()

	// Leg-owned state must not be assumed valid until the leg (or Stop)
	// completes the handshake.
	if !w.sess.AwaitLegRelease(w.cfg.ReleaseWait) {
		w.log.Warn().Msg("leg never released the fork, proceeding with cleanup")
	}

	if w.sess.PostProcess != "" && w.cfg.PostRun != nil {
		w.log.Info().Str("command", w.sess.PostProcess).Msg("running post process")
		w.cfg.PostRun(w.sess.PostProcess)
	}

	w.sess.markDone()
	w.log.Info().Int("frames_sent", w.framesSent).Msg("fork finished")
	w.emitEnd(reason)
}

func (w *Worker) emitEnd(reason string) {
	w.endOnce.Do(func() {
		if w.cfg.Sink == nil {
			return
		}
		w.cfg.Sink.ForkEnded(EndEvent{
			ID:         w.sess.ID,
			Endpoint:   w.sess.Cfg.Endpoint,
			Direction:  w.sess.Cfg.Direction,
			FramesSent: w.framesSent,
			Reason:     reason,
		})
	})
}
