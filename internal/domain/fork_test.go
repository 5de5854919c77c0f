package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForkConfigValidate(t *testing.T) {
	good := ForkConfig{Endpoint: "ws://host/path", Reconnect: DefaultReconnectPolicy()}
	require.NoError(t, good.Validate())

	tests := []struct {
		name   string
		mutate func(*ForkConfig)
	}{
		{"missing endpoint", func(c *ForkConfig) { c.Endpoint = "" }},
		{"read volume too high", func(c *ForkConfig) { c.ReadVolume = MaxVolume + 1 }},
		{"write volume too low", func(c *ForkConfig) { c.WriteVolume = MinVolume - 1 }},
		{"negative attempts", func(c *ForkConfig) { c.Reconnect.MaxAttempts = -1 }},
		{"negative timeout", func(c *ForkConfig) { c.Reconnect.Timeout = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := good
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidArgument)
		})
	}
}

func TestParseDirectionRoundTrip(t *testing.T) {
	for _, s := range []string{"in", "out", "both"} {
		d, err := ParseDirection(s)
		require.NoError(t, err)
		require.Equal(t, s, d.String())
	}

	d, err := ParseDirection("")
	require.NoError(t, err)
	require.Equal(t, DirectionBoth, d)

	_, err = ParseDirection("up")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParseMuteDirection(t *testing.T) {
	for s, want := range map[string]MuteDirection{
		"read":  MuteRead,
		"write": MuteWrite,
		"both":  MuteBoth,
	} {
		d, err := ParseMuteDirection(s)
		require.NoError(t, err)
		require.Equal(t, want, d)
	}

	_, err := ParseMuteDirection("")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewSessionIDsAreUnique(t *testing.T) {
	seen := make(map[SessionID]bool)
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		require.NotEmpty(t, id)
		require.False(t, seen[id])
		seen[id] = true
	}
}
