package host

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/seanorg/heartbeat-module/pkg/sdk"
	"go.uber.org/zap"
)

type runtime struct {
	log *zap.Logger
	bus sdk.Bus
	reg prometheus.Registerer
}

// NewRuntime bundles what a constructor needs from the host.
func NewRuntime(log *zap.Logger, bus sdk.Bus, reg prometheus.Registerer) sdk.Runtime {
	return &runtime{log: log, bus: bus, reg: reg}
}

func (r *runtime) Log() *zap.Logger                  { return r.log }
func (r *runtime) Bus() sdk.Bus                      { return r.bus }
func (r *runtime) Registerer() prometheus.Registerer { return r.reg }
