package sdk

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Runtime is what the host hands a constructor next to its config and dependencies.
type Runtime interface {
	Log() *zap.Logger
	Bus() Bus
	Registerer() prometheus.Registerer
}
