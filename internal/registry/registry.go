// Package registry maps (API, model) pairs to the functions that build them.
// Models register themselves from init, the host looks them up when applying config.
package registry

import (
	"context"
	"fmt"
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/seanorg/heartbeat-module/pkg/sdk"
	"go.uber.org/zap"
)

// Constructor builds a running resource.
type Constructor func(ctx context.Context, deps sdk.Dependencies, conf sdk.Config, rt sdk.Runtime) (sdk.Resource, error)

// Validator checks a config before construction and returns the names of the
// dependencies it implies. log is the resource's own logger.
type Validator func(conf sdk.Config, log *zap.Logger) ([]string, error)

type Registration struct {
	API         sdk.API
	Model       sdk.Model
	Constructor Constructor
	Validate    Validator
}

type Registry struct {
	entries cmap.ConcurrentMap[string, Registration]
}

func New() *Registry {
	return &Registry{entries: cmap.New[Registration]()}
}

func key(api sdk.API, model sdk.Model) string {
	return api.String() + "/" + model.String()
}

// Register adds a model. Registering the same pair twice panics.
func (r *Registry) Register(api sdk.API, model sdk.Model, reg Registration) {
	if reg.Constructor == nil {
		panic(fmt.Sprintf("registry: %s %s has no constructor", api, model))
	}
	reg.API, reg.Model = api, model
	if !r.entries.SetIfAbsent(key(api, model), reg) {
		panic(fmt.Sprintf("registry: %s %s registered twice", api, model))
	}
}

func (r *Registry) Lookup(api sdk.API, model sdk.Model) (Registration, bool) {
	return r.entries.Get(key(api, model))
}

// Registered lists every registration sorted by API then model.
func (r *Registry) Registered() []Registration {
	out := make([]Registration, 0, r.entries.Count())
	for _, reg := range r.entries.Items() {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool {
		return key(out[i].API, out[i].Model) < key(out[j].API, out[j].Model)
	})
	return out
}

var global = New()

// Default is the registry models add themselves to from init.
func Default() *Registry { return global }

func Register(api sdk.API, model sdk.Model, reg Registration) {
	global.Register(api, model, reg)
}
