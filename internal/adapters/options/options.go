// Package options parses the dialplan-style option token string into a typed
// fork configuration, validated once at Start.
package options

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/callfork/audiofork/internal/domain"
)

// Parse converts an option token string, e.g. "pPv(2)D(in)R(10)n(3)", into a
// fork configuration. Endpoint and post-process command travel separately.
//
// Letters follow the original application: B(interval) periodic beep, p/P
// start/stop beeps, v/V/W volume levels, i(var) id variable, D(direction),
// T(cert,key,ciphers,cafile,capath) transport security, R(seconds) reconnect
// timeout, n(count) reconnect attempts. The file-recording letters (a, r, t,
// S) are recognized and rejected; b (bridged-only) is accepted and ignored.
func Parse(s string) (domain.ForkConfig, error) {
	cfg := domain.ForkConfig{Reconnect: domain.DefaultReconnectPolicy()}

	i := 0
	for i < len(s) {
		opt := s[i]
		i++

		arg := ""
		if i < len(s) && s[i] == '(' {
			end := strings.IndexByte(s[i:], ')')
			if end < 0 {
				return cfg, fmt.Errorf("%w: unterminated argument for option %q", domain.ErrInvalidArgument, string(opt))
			}
			arg = s[i+1 : i+end]
			i += end + 1
		}

		var err error
		switch opt {
		case 'b':
			log.Warn().Str("module", "options").Msg("bridged-only option is not supported, ignoring")
		case 'B':
			cfg.BeepInterval, err = parseSeconds(opt, arg, domain.DefaultBeepInterval)
		case 'p':
			cfg.BeepOnStart = true
		case 'P':
			cfg.BeepOnStop = true
		case 'v':
			cfg.ReadVolume, err = parseVolume(opt, arg)
		case 'V':
			cfg.WriteVolume, err = parseVolume(opt, arg)
		case 'W':
			var vol int
			vol, err = parseVolume(opt, arg)
			cfg.ReadVolume, cfg.WriteVolume = vol, vol
		case 'i':
			if arg == "" {
				err = fmt.Errorf("%w: option i requires a variable name", domain.ErrInvalidArgument)
			}
			cfg.IDVariable = arg
		case 'D':
			cfg.Direction, err = domain.ParseDirection(arg)
		case 'T':
			cfg.TLS = parseTLS(arg)
		case 'R':
			cfg.Reconnect.Timeout, err = parseSeconds(opt, arg, domain.DefaultReconnectTimeout)
		case 'n':
			cfg.Reconnect.MaxAttempts, err = parseCount(opt, arg, domain.DefaultReconnectAttempts)
		case 'a', 'r', 't', 'S':
			err = fmt.Errorf("%w: file recording option %q is not supported", domain.ErrInvalidArgument, string(opt))
		default:
			err = fmt.Errorf("%w: unrecognized option %q", domain.ErrInvalidArgument, string(opt))
		}
		if err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

func parseVolume(opt byte, arg string) (int, error) {
	if arg == "" {
		return 0, fmt.Errorf("%w: no volume level for option %q", domain.ErrInvalidArgument, string(opt))
	}
	v, err := strconv.Atoi(arg)
	if err != nil || v < domain.MinVolume || v > domain.MaxVolume {
		return 0, fmt.Errorf("%w: volume must be a number between %d and %d, not %q",
			domain.ErrInvalidArgument, domain.MinVolume, domain.MaxVolume, arg)
	}
	return v, nil
}

func parseSeconds(opt byte, arg string, def time.Duration) (time.Duration, error) {
	if arg == "" {
		return def, nil
	}
	secs, err := strconv.Atoi(arg)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("%w: option %q wants a number of seconds, not %q", domain.ErrInvalidArgument, string(opt), arg)
	}
	return time.Duration(secs) * time.Second, nil
}

func parseCount(opt byte, arg string, def int) (int, error) {
	if arg == "" {
		return def, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: option %q wants a count, not %q", domain.ErrInvalidArgument, string(opt), arg)
	}
	return n, nil
}

// parseTLS splits the comma separated bundle: cert, key, ciphers, CA file,
// CA path. Any field may be empty; a bare T() still enables security.
func parseTLS(arg string) *domain.TLSBundle {
	fields := strings.Split(arg, ",")
	get := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}
		return ""
	}
	return &domain.TLSBundle{
		CertFile: get(0),
		KeyFile:  get(1),
		Ciphers:  get(2),
		CAFile:   get(3),
		CAPath:   get(4),
	}
}
