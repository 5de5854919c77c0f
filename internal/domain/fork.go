// Package domain contains the fork configuration entities, no lifecycle logic.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	MinVolume = -4
	MaxVolume = 4

	DefaultReconnectTimeout  = 5 * time.Second
	DefaultReconnectAttempts = 5
	DefaultBeepInterval      = 15 * time.Second
)

// SessionID is the opaque identifier of one fork, assigned at creation.
type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// TLSBundle configures transport security for wss endpoints.
type TLSBundle struct {
	CertFile string
	KeyFile  string
	Ciphers  string
	CAFile   string
	CAPath   string
}

// ReconnectPolicy bounds the mid-stream recovery loop.
type ReconnectPolicy struct {
	Timeout     time.Duration
	MaxAttempts int
}

func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{Timeout: DefaultReconnectTimeout, MaxAttempts: DefaultReconnectAttempts}
}

// ForkConfig is the validated configuration of one fork. Everything here is
// immutable after Start except the volume levels and mute flags, which live
// on the session.
type ForkConfig struct {
	Endpoint  string
	Direction Direction

	// Gain levels in [-4, 4]; 0 is unity.
	ReadVolume  int
	WriteVolume int

	TLS       *TLSBundle
	Reconnect ReconnectPolicy

	BeepOnStart  bool
	BeepOnStop   bool
	BeepInterval time.Duration // 0 disables the periodic beep

	// IDVariable names the leg variable that receives the session id.
	IDVariable string
}

func (c *ForkConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("%w: endpoint required", ErrInvalidArgument)
	}
	if err := validVolume(c.ReadVolume); err != nil {
		return err
	}
	if err := validVolume(c.WriteVolume); err != nil {
		return err
	}
	if c.Reconnect.MaxAttempts < 0 || c.Reconnect.Timeout < 0 {
		return fmt.Errorf("%w: reconnect policy must be non-negative", ErrInvalidArgument)
	}
	return nil
}

func validVolume(v int) error {
	if v < MinVolume || v > MaxVolume {
		return fmt.Errorf("%w: volume must be between %d and %d, not %d", ErrInvalidArgument, MinVolume, MaxVolume, v)
	}
	return nil
}
