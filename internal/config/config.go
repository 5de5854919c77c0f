package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode string `mapstructure:"mode"`
	Port int    `mapstructure:"port"`

	// Audio format of the reference deployment: 8 kHz slin, 160 samples
	// per frame.
	SampleRate   int `mapstructure:"sample_rate"`
	FrameSamples int `mapstructure:"frame_samples"`

	// Per-leg ingest limits.
	LegQueueDepth  int `mapstructure:"leg_queue_depth"`
	MaxForksPerLeg int `mapstructure:"max_forks_per_leg"`

	// Worker timing.
	FrameWait   time.Duration `mapstructure:"frame_wait"`
	ReleaseWait time.Duration `mapstructure:"release_wait"`
}

// FrameBytes is the expected binary payload size of one feed frame.
func (c *Config) FrameBytes() int {
	return c.FrameSamples * 2
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("sample_rate", 8000)
	v.SetDefault("frame_samples", 160)
	v.SetDefault("leg_queue_depth", 32)
	v.SetDefault("max_forks_per_leg", 8)
	v.SetDefault("frame_wait", "100ms")
	v.SetDefault("release_wait", "5s")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
