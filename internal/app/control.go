package app

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/callfork/audiofork/internal/core"
	"github.com/callfork/audiofork/internal/domain"
)

// WSServerVariable is published on the leg at Start with the endpoint URL.
const WSServerVariable = "AUDIOFORK_WSSERVER"

const beepCue = "beep"

// Control is the management surface: start, stop, mute, query and list,
// acting on published sessions through the registry.
type Control struct {
	Registry  *Registry
	Transport core.Transport
	Sink      core.EndSink
	Clock     clock.Clock

	// Worker tuning; zero values fall back to worker defaults.
	ReadWait    time.Duration
	ReleaseWait time.Duration

	// PostRun executes post-process commands. Defaults to RunCommand.
	PostRun func(string)
}

func NewControl(reg *Registry, tr core.Transport, sink core.EndSink) *Control {
	return &Control{Registry: reg, Transport: tr, Sink: sink, PostRun: RunCommand}
}

// Start validates the configuration, attaches the frame hook, publishes the
// session and launches its relay worker. Returns the new session id; the
// worker's later fate is reported through the end event only.
func (c *Control) Start(leg core.CallLeg, cfg domain.ForkConfig, postProcess string) (domain.SessionID, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	// Leg variables are evaluated now, not when the command eventually runs.
	post := ""
	if postProcess != "" {
		post = SubstituteVariables(leg, postProcess)
	}

	att, err := leg.Attach(cfg.Direction)
	if err != nil {
		return "", fmt.Errorf("%w: attach on %s: %v", domain.ErrResourceExhausted, leg.Name(), err)
	}

	s := core.NewSession(leg, att, cfg, post)

	if cfg.BeepInterval > 0 {
		cueID, err := leg.StartPeriodicCue(beepCue, cfg.BeepInterval)
		if err != nil {
			att.Detach()
			return "", fmt.Errorf("%w: periodic beep: %v", domain.ErrResourceExhausted, err)
		}
		s.SetBeepCue(cueID)
	}

	leg.SetVariable(WSServerVariable, cfg.Endpoint)
	if cfg.IDVariable != "" {
		leg.SetVariable(cfg.IDVariable, string(s.ID))
	}
	if cfg.BeepOnStart {
		leg.PlayCue(beepCue)
	}

	c.Registry.Publish(leg.Name(), s)

	w := core.NewWorker(s, core.WorkerConfig{
		Transport:   c.Transport,
		Clock:       c.Clock,
		Sink:        c.Sink,
		PostRun:     c.PostRun,
		ReadWait:    c.ReadWait,
		ReleaseWait: c.ReleaseWait,
	})
	go w.Run()

	log.Info().Str("module", "app.control").Str("fork", string(s.ID)).Str("leg", leg.Name()).Str("endpoint", cfg.Endpoint).Msg("fork started")
	return s.ID, nil
}

// Stop shuts down one session: by id when given, else any session on the
// leg. It signals and returns, never waiting for the worker to finish.
// Stopping an unknown or already stopped fork reports ErrNotFound.
func (c *Control) Stop(leg core.CallLeg, id domain.SessionID) error {
	var (
		s  *core.Session
		ok bool
	)
	if id != "" {
		s, ok = c.Registry.Get(id)
	} else {
		s, ok = c.Registry.AnyOnLeg(leg.Name())
	}
	if !ok {
		return fmt.Errorf("%w: no fork %q on %s", domain.ErrNotFound, id, leg.Name())
	}

	s.RequestShutdown()
	s.Wake()
	if cueID := s.TakeBeepCue(); cueID != "" {
		leg.StopPeriodicCue(cueID)
	}
	c.Registry.Unpublish(s.ID)

	log.Info().Str("module", "app.control").Str("fork", string(s.ID)).Str("leg", leg.Name()).Msg("fork stopped")
	return nil
}

// Mute flips the mute flags of every fork on the leg. Workers observe the
// change at their next frame iteration.
func (c *Control) Mute(leg core.CallLeg, direction string, on bool) error {
	d, err := domain.ParseMuteDirection(direction)
	if err != nil {
		return err
	}
	sessions := c.Registry.OnLeg(leg.Name())
	if len(sessions) == 0 {
		return fmt.Errorf("%w: no forks on %s", domain.ErrNotFound, leg.Name())
	}
	for _, s := range sessions {
		s.SetMute(d, on)
	}
	log.Info().Str("module", "app.control").Str("leg", leg.Name()).Str("direction", direction).Bool("mute", on).Msg("mute updated")
	return nil
}

// SetVolume adjusts the gain levels of every fork on the leg.
func (c *Control) SetVolume(leg core.CallLeg, direction string, level int) error {
	d, err := domain.ParseMuteDirection(direction)
	if err != nil {
		return err
	}
	if level < domain.MinVolume || level > domain.MaxVolume {
		return fmt.Errorf("%w: volume must be between %d and %d, not %d", domain.ErrInvalidArgument, domain.MinVolume, domain.MaxVolume, level)
	}
	sessions := c.Registry.OnLeg(leg.Name())
	if len(sessions) == 0 {
		return fmt.Errorf("%w: no forks on %s", domain.ErrNotFound, leg.Name())
	}
	for _, s := range sessions {
		s.SetVolume(d, level)
	}
	return nil
}

// Query reads one attribute of a published session.
func (c *Control) Query(id domain.SessionID, key string) (string, error) {
	s, ok := c.Registry.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: fork %q", domain.ErrNotFound, id)
	}
	switch key {
	case "endpoint":
		return s.Cfg.Endpoint, nil
	case "direction":
		return s.Cfg.Direction.String(), nil
	}
	return "", fmt.Errorf("%w: unrecognized key %q", domain.ErrInvalidArgument, key)
}

// ForkInfo is a read-only listing row for the management surface.
type ForkInfo struct {
	ID        domain.SessionID `json:"id"`
	Endpoint  string           `json:"endpoint"`
	Direction string           `json:"direction"`
	Status    string           `json:"status"`
}

// List enumerates the live sessions on a leg.
func (c *Control) List(legName string) []ForkInfo {
	sessions := c.Registry.OnLeg(legName)
	out := make([]ForkInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, ForkInfo{
			ID:        s.ID,
			Endpoint:  s.Cfg.Endpoint,
			Direction: s.Cfg.Direction.String(),
			Status:    s.Status().String(),
		})
	}
	return out
}
