package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds the settings taken from the process environment.
type Env struct {
	ConfigPath string `env:"HEARTBEAT_MODULE_CONFIG" envDefault:"/etc/heartbeat-module/config.yaml"`
	LogLevel   string `env:"HEARTBEAT_MODULE_LOG_LEVEL"`
	LogJSON    *bool  `env:"HEARTBEAT_MODULE_LOG_JSON"`
}

func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Apply overrides file settings with the ones set in the environment.
func (e Env) Apply(c *Config) {
	if e.LogLevel != "" {
		c.Logging.Level = e.LogLevel
	}
	if e.LogJSON != nil {
		c.Logging.JSON = *e.LogJSON
	}
}
