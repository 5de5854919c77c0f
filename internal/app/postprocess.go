package app

import (
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/callfork/audiofork/internal/core"
)

// SubstituteVariables expands ^{NAME} sequences using leg variables. Done
// once at fork creation; unknown variables expand to the empty string.
func SubstituteVariables(leg core.CallLeg, command string) string {
	var b strings.Builder
	for i := 0; i < len(command); {
		if command[i] == '^' && i+1 < len(command) && command[i+1] == '{' {
			end := strings.IndexByte(command[i+2:], '}')
			if end >= 0 {
				name := command[i+2 : i+2+end]
				v, _ := leg.GetVariable(name)
				b.WriteString(v)
				i += end + 3
				continue
			}
		}
		b.WriteByte(command[i])
		i++
	}
	return b.String()
}

// RunCommand executes a post-process command through the shell, blocking the
// worker's final cleanup until it finishes.
func RunCommand(cmd string) {
	out, err := exec.Command("/bin/sh", "-c", cmd).CombinedOutput()
	if err != nil {
		log.Error().Err(err).Str("module", "app.post").Str("command", cmd).Str("output", string(out)).Msg("post process failed")
		return
	}
	log.Info().Str("module", "app.post").Str("command", cmd).Msg("post process finished")
}
