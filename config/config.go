// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/warp/renewal-crm/messaging"
)

// Config is everything the server and CLI read at startup.
type Config struct {
	Port      int    `env:"CRM_PORT"    envDefault:"8080"`
	DBPath    string `env:"CRM_DB_PATH" envDefault:"data/crm.db"`
	LogLevel  string `env:"LOG_LEVEL"   envDefault:"info"`
	SentryDSN string `env:"SENTRY_DSN"`
	Env       string `env:"APP_ENV"     envDefault:"development"`

	// Provider credentials; all-or-nothing, see messaging.Config.
	Twilio messaging.Config `envPrefix:"TWILIO_"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
