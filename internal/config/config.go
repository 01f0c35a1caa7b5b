// Package config loads process settings from PIANOCHORDS_* environment
// variables.
package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/cbegin/pianochords-go/internal/effects"
)

const Prefix = "pianochords"

type Config struct {
	SampleRate   int      `envconfig:"SAMPLE_RATE" default:"48000"`
	Volume       float64  `envconfig:"VOLUME" default:"0.6"`
	Tempo        float64  `envconfig:"TEMPO" default:"110"`
	Reverb       string   `envconfig:"REVERB" default:"convolution"`
	Limiter      bool     `envconfig:"LIMITER" default:"false"`
	LogLevel     string   `envconfig:"LOG_LEVEL" default:"info"`
	ListenAddr   string   `envconfig:"LISTEN_ADDR" default:":8080"`
	CatalogPath  string   `envconfig:"CATALOG"`
	AllowOrigins []string `envconfig:"ALLOW_ORIGINS" default:"*"`
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return cfg, errors.Wrap(err, "read environment")
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return errors.Errorf("sample rate %d out of range 8000..192000", c.SampleRate)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return errors.Errorf("volume %v out of range 0..1", c.Volume)
	}
	if c.Tempo <= 0 {
		return errors.Errorf("tempo must be positive, got %v", c.Tempo)
	}
	if _, err := effects.ParseReverbKind(c.Reverb); err != nil {
		return errors.Wrap(err, "reverb")
	}
	return nil
}

// ReverbKind is Reverb parsed; Validate has already rejected bad values.
func (c Config) ReverbKind() effects.ReverbKind {
	k, err := effects.ParseReverbKind(c.Reverb)
	if err != nil {
		return effects.ReverbConvolution
	}
	return k
}

// Usage prints the recognised environment variables.
func Usage() error {
	var cfg Config
	return envconfig.Usage(Prefix, &cfg)
}
