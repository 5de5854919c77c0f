package core

import (
	"errors"

	"github.com/benbjohnson/clock"

	"github.com/callfork/audiofork/internal/domain"
)

// ErrRetriesExhausted means every reconnect attempt failed. Fatal for the
// session.
var ErrRetriesExhausted = errors.New("reconnect retries exhausted")

// errReconnectAborted means the session left Running mid-recovery.
var errReconnectAborted = errors.New("reconnect aborted")

// reconnect retries the dial with at least policy.Timeout between successive
// attempts and at most policy.MaxAttempts attempts. Blocking by design:
// frame relaying is paused for the whole retry window.
func reconnect(clk clock.Clock, policy domain.ReconnectPolicy, dial func() (Conn, error), abort func() bool) (Conn, error) {
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			clk.Sleep(policy.Timeout)
		}
		if abort() {
			return nil, errReconnectAborted
		}
		conn, err := dial()
		if err == nil {
			return conn, nil
		}
	}
	return nil, ErrRetriesExhausted
}
