// Package host builds, reconfigures and closes the resources named in the configuration.
package host

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/seanorg/heartbeat-module/internal/config"
	"github.com/seanorg/heartbeat-module/internal/logging"
	"github.com/seanorg/heartbeat-module/internal/metrics"
	"github.com/seanorg/heartbeat-module/internal/registry"
	"github.com/seanorg/heartbeat-module/pkg/sdk"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type entry struct {
	conf sdk.Config
	res  sdk.Resource
	deps []string
}

// Host owns every running resource.
type Host struct {
	registry *registry.Registry
	log      *zap.Logger
	bus      sdk.Bus
	prom     prometheus.Registerer
	running  *prometheus.GaugeVec

	mu        sync.RWMutex
	resources map[sdk.Name]*entry
	order     []sdk.Name
	failures  map[sdk.Name]error
}

func New(reg *registry.Registry, log *zap.Logger, bus sdk.Bus, prom prometheus.Registerer) *Host {
	return &Host{
		registry:  reg,
		log:       log,
		bus:       bus,
		prom:      prom,
		running:   metrics.ResourcesRunning(prom),
		resources: make(map[sdk.Name]*entry),
		failures:  make(map[sdk.Name]error),
	}
}

// Apply brings the running set in line with rs. Resources are handled in
// order and a dependency must appear before its dependents. A resource that
// fails is logged, recorded in Failures and left out; the rest still run.
// The returned error combines every failure.
func (h *Host) Apply(ctx context.Context, rs []config.Resource) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs error
	fail := func(name sdk.Name, err error) {
		h.failures[name] = err
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
		h.log.Error("resource failed", zap.Stringer("name", name), zap.Error(err))
		h.publish("resource.failed", name, map[string]any{"error": err.Error()})
	}

	confs := make([]sdk.Config, 0, len(rs))
	wanted := make(map[sdk.Name]bool, len(rs))
	for _, r := range rs {
		conf, err := r.SDK()
		if err != nil {
			fail(sdk.Name{Name: r.Name}, err)
			continue
		}
		confs = append(confs, conf)
		wanted[conf.ResourceName()] = true
	}

	// names whose instance went away or changed; their dependents must re-resolve
	rebuilt := make(map[string]bool)
	for i := len(h.order) - 1; i >= 0; i-- {
		name := h.order[i]
		if !wanted[name] {
			rebuilt[name.Name] = true
			if err := h.remove(ctx, name); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}
	for name := range h.failures {
		if !wanted[name] {
			delete(h.failures, name)
		}
	}

	order := make([]sdk.Name, 0, len(confs))
	for _, conf := range confs {
		name := conf.ResourceName()
		changed, err := h.apply(ctx, conf, rebuilt)
		if err != nil {
			rebuilt[name.Name] = true
			fail(name, err)
			continue
		}
		delete(h.failures, name)
		if changed {
			rebuilt[name.Name] = true
		}
		order = append(order, name)
	}
	h.order = order
	h.updateGauge()

	h.publish("resources.reloaded", sdk.Name{}, map[string]any{
		"running": len(h.order),
		"failed":  len(h.failures),
	})
	return errs
}

// apply builds, reconfigures or keeps one resource and reports whether it changed.
func (h *Host) apply(ctx context.Context, conf sdk.Config, rebuilt map[string]bool) (bool, error) {
	name := conf.ResourceName()
	reg, ok := h.registry.Lookup(conf.API, conf.Model)
	if !ok {
		h.dropExisting(ctx, name)
		return false, fmt.Errorf("no registration for model %s on %s", conf.Model, conf.API)
	}

	log := logging.ForResource(h.log, conf.Name, conf.Model.String())
	depNames := append([]string(nil), conf.DependsOn...)
	if reg.Validate != nil {
		implicit, err := reg.Validate(conf, log)
		if err != nil {
			h.dropExisting(ctx, name)
			return false, err
		}
		depNames = append(depNames, implicit...)
	}
	deps := h.resolve(name, depNames)

	existing, ok := h.resources[name]
	if ok {
		depChanged := false
		for _, d := range depNames {
			if rebuilt[d] {
				depChanged = true
			}
		}
		if !depChanged && reflect.DeepEqual(existing.conf, conf) {
			return false, nil
		}
		if r, ok := existing.res.(sdk.Reconfigurable); ok && existing.conf.Model == conf.Model {
			if err := r.Reconfigure(ctx, deps, conf); err != nil {
				h.dropExisting(ctx, name)
				return false, err
			}
			existing.conf, existing.deps = conf, depNames
			h.log.Info("resource reconfigured", zap.Stringer("name", name))
			h.publish("resource.reconfigured", name, nil)
			return true, nil
		}
		h.dropExisting(ctx, name)
	}

	res, err := reg.Constructor(ctx, deps, conf, NewRuntime(log, h.bus, h.prom))
	if err != nil {
		return false, err
	}
	h.resources[name] = &entry{conf: conf, res: res, deps: depNames}
	h.log.Info("resource added", zap.Stringer("name", name), zap.Stringer("model", conf.Model))
	h.publish("resource.added", name, map[string]any{"model": conf.Model.String()})
	return true, nil
}

// resolve finds the running resources called by any of names, whatever their API.
func (h *Host) resolve(owner sdk.Name, names []string) sdk.Dependencies {
	deps := make(sdk.Dependencies, len(names))
	for _, want := range names {
		found := false
		for n, e := range h.resources {
			if n.Name == want && n != owner {
				deps[n] = e.res
				found = true
			}
		}
		if !found {
			h.log.Warn("dependency not running", zap.Stringer("name", owner), zap.String("dependency", want))
		}
	}
	return deps
}

func (h *Host) dropExisting(ctx context.Context, name sdk.Name) {
	if _, ok := h.resources[name]; !ok {
		return
	}
	if err := h.remove(ctx, name); err != nil {
		h.log.Warn("close failed", zap.Stringer("name", name), zap.Error(err))
	}
}

func (h *Host) remove(ctx context.Context, name sdk.Name) error {
	e, ok := h.resources[name]
	if !ok {
		return nil
	}
	delete(h.resources, name)
	h.publish("resource.removed", name, nil)
	if err := e.res.Close(ctx); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	h.log.Info("resource removed", zap.Stringer("name", name))
	return nil
}

func (h *Host) updateGauge() {
	h.running.Reset()
	for name := range h.resources {
		h.running.WithLabelValues(name.API.String()).Inc()
	}
}

func (h *Host) publish(typ string, name sdk.Name, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if name.Name != "" {
		data["name"] = name.String()
	}
	h.bus.Publish(sdk.Event{Type: typ, Data: data})
}

// Resource returns the running resource called name.
func (h *Host) Resource(name sdk.Name) (sdk.Resource, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.resources[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, sdk.ErrResourceNotFound)
	}
	return e.res, nil
}

// Vision returns the running vision service called name.
func (h *Host) Vision(name string) (sdk.Vision, error) {
	res, err := h.Resource(sdk.NewName(sdk.VisionAPI, name))
	if err != nil {
		return nil, err
	}
	v, ok := res.(sdk.Vision)
	if !ok {
		return nil, fmt.Errorf("%s does not implement the vision API", name)
	}
	return v, nil
}

// Status describes one configured resource.
type Status struct {
	Name      string   `json:"name"`
	API       string   `json:"api"`
	Model     string   `json:"model"`
	DependsOn []string `json:"depends_on,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Resources lists running resources in build order, then failed ones.
func (h *Host) Resources() []Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Status, 0, len(h.order)+len(h.failures))
	for _, name := range h.order {
		e := h.resources[name]
		out = append(out, Status{
			Name:      name.Name,
			API:       name.API.String(),
			Model:     e.conf.Model.String(),
			DependsOn: e.deps,
		})
	}
	for name, err := range h.failures {
		out = append(out, Status{Name: name.Name, API: name.API.String(), Error: err.Error()})
	}
	return out
}

// Failures returns a copy of the errors from the last Apply.
func (h *Host) Failures() map[sdk.Name]error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[sdk.Name]error, len(h.failures))
	for k, v := range h.failures {
		out[k] = v
	}
	return out
}

// Ready fails while any configured resource failed to build.
func (h *Host) Ready() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.failures) == 0 {
		return nil
	}
	var err error
	for name, ferr := range h.failures {
		err = multierr.Append(err, fmt.Errorf("%s: %w", name, ferr))
	}
	return fmt.Errorf("%d resources failed: %w", len(h.failures), err)
}

// Close closes every resource in reverse build order.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var errs error
	for i := len(h.order) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, h.remove(ctx, h.order[i]))
	}
	h.order = nil
	h.updateGauge()
	return errs
}
