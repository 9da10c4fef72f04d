// Package heartbeat implements the seanorg:generic:heart-beat component: a
// background counter that logs every tick and reports its count on command.
package heartbeat

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/seanorg/heartbeat-module/internal/metrics"
	"github.com/seanorg/heartbeat-module/internal/registry"
	"github.com/seanorg/heartbeat-module/pkg/sdk"
	"go.uber.org/zap"
)

var Model = sdk.Model{Family: "seanorg", Namespace: "generic", Name: "heart-beat"}

func init() {
	registry.Register(sdk.GenericAPI, Model, registry.Registration{
		Constructor: func(ctx context.Context, _ sdk.Dependencies, conf sdk.Config, rt sdk.Runtime) (sdk.Resource, error) {
			return New(conf, rt)
		},
		Validate: Validate,
	})
}

// HeartBeat owns one Loop, started on construction and joined on Close.
type HeartBeat struct {
	name sdk.Name
	log  *zap.Logger
	loop *Loop
}

var _ sdk.Resource = (*HeartBeat)(nil)

// Validate accepts any config whose optional interval attribute is a positive duration.
func Validate(conf sdk.Config, log *zap.Logger) ([]string, error) {
	log.Info("validating heartbeat config", zap.Any("attributes", conf.Attributes))
	interval, err := conf.Duration("interval", DefaultInterval)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, sdk.NewConfigError("interval", fmt.Sprintf("must be positive, got %s", interval))
	}
	return nil, nil
}

func New(conf sdk.Config, rt sdk.Runtime) (*HeartBeat, error) {
	if _, err := Validate(conf, rt.Log()); err != nil {
		return nil, err
	}
	interval, _ := conf.Duration("interval", DefaultInterval)

	name := conf.ResourceName()
	log := rt.Log()
	ticks := metrics.HeartbeatTicks(rt.Registerer()).WithLabelValues(conf.Name)

	hb := &HeartBeat{name: name, log: log}
	hb.loop = NewLoop(interval, log, tickReporter(name, rt.Bus(), ticks))
	hb.loop.Start()
	log.Info("heartbeat loop started", zap.Duration("interval", hb.loop.Interval()))
	return hb, nil
}

func tickReporter(name sdk.Name, bus sdk.Bus, ticks prometheus.Counter) func(int64) {
	return func(count int64) {
		ticks.Inc()
		bus.Publish(sdk.Event{
			Type: "heartbeat.tick",
			Data: map[string]any{
				"resource": name.String(),
				"count":    count,
			},
		})
	}
}

func (h *HeartBeat) Name() sdk.Name { return h.name }

// DoCommand ignores cmd and reports the current count.
func (h *HeartBeat) DoCommand(_ context.Context, _ map[string]any) (map[string]any, error) {
	count := h.loop.Count()
	h.log.Info("do_command", zap.Int64("count", count))
	return map[string]any{"count": count}, nil
}

// Count is the loop's current count.
func (h *HeartBeat) Count() int64 { return h.loop.Count() }

// Close stops the loop and waits for it. Safe to call more than once.
func (h *HeartBeat) Close(context.Context) error {
	h.log.Info("closing heartbeat")
	h.loop.Stop()
	return nil
}
