package logging

import (
	"fmt"

	"go.uber.org/zap"
)

type Cfg struct {
	Level string
	JSON  bool
}

func New(c Cfg) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if !c.JSON {
		cfg.Encoding = "console"
	}
	if c.Level != "" {
		if err := cfg.Level.UnmarshalText([]byte(c.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", c.Level, err)
		}
	}
	return cfg.Build()
}

// ForResource scopes l to a single resource.
func ForResource(l *zap.Logger, name, model string) *zap.Logger {
	return l.Named(name).With(zap.String("resource", name), zap.String("model", model))
}
