package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubstituteVariables(t *testing.T) {
	leg := newStubLeg("chan-1")
	leg.SetVariable("RECORDING", "/var/spool/rec-42.raw")
	leg.SetVariable("CALLER", "alice")

	tests := []struct {
		name    string
		command string
		want    string
	}{
		{"no markers", "archive.sh done", "archive.sh done"},
		{"single", "archive.sh ^{RECORDING}", "archive.sh /var/spool/rec-42.raw"},
		{"multiple", "notify ^{CALLER} ^{RECORDING}", "notify alice /var/spool/rec-42.raw"},
		{"unknown expands empty", "notify ^{MISSING} end", "notify  end"},
		{"unterminated left as-is", "notify ^{CALLER", "notify ^{CALLER"},
		{"bare caret", "a ^ b", "a ^ b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, SubstituteVariables(leg, tt.command))
		})
	}
}
