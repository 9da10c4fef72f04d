package host

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/seanorg/heartbeat-module/internal/config"
	"github.com/seanorg/heartbeat-module/internal/events"
	"github.com/seanorg/heartbeat-module/internal/fakevision"
	"github.com/seanorg/heartbeat-module/internal/heartbeat"
	"github.com/seanorg/heartbeat-module/internal/metrics"
	"github.com/seanorg/heartbeat-module/internal/registry"
	"github.com/seanorg/heartbeat-module/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	_ "github.com/seanorg/heartbeat-module/internal/fakecamera"
)

var (
	beatName   = sdk.NewName(sdk.GenericAPI, "beat")
	camName    = sdk.NewName(sdk.CameraAPI, "cam")
	visionName = sdk.NewName(sdk.VisionAPI, "eyes")
)

func beat(interval string) config.Resource {
	return config.Resource{
		Name:       "beat",
		API:        "rdk:component:generic",
		Model:      "seanorg:generic:heart-beat",
		Attributes: map[string]any{"interval": interval},
	}
}

func camera(width int) config.Resource {
	return config.Resource{
		Name:       "cam",
		API:        "rdk:component:camera",
		Model:      "rdk:builtin:fake",
		Attributes: map[string]any{"width": width, "height": 8, "mime_type": "image/png"},
	}
}

func vision(cameraName string) config.Resource {
	return config.Resource{
		Name:       "eyes",
		API:        "rdk:service:vision",
		Model:      "seanorg:vision:fake-vision",
		Attributes: map[string]any{"camera_name": cameraName},
	}
}

func newHost(t *testing.T) (*Host, *events.Bus, *prometheus.Registry) {
	t.Helper()
	bus := events.NewBus()
	prom := prometheus.NewRegistry()
	h := New(registry.Default(), zaptest.NewLogger(t), bus, prom)
	t.Cleanup(func() { _ = h.Close(context.Background()) })
	return h, bus, prom
}

func TestApplyBuildsEverything(t *testing.T) {
	h, _, prom := newHost(t)
	require.NoError(t, h.Apply(context.Background(), []config.Resource{beat("10ms"), camera(16), vision("cam")}))

	statuses := h.Resources()
	require.Len(t, statuses, 3)
	assert.Equal(t, "beat", statuses[0].Name)
	assert.Equal(t, "eyes", statuses[2].Name)
	assert.Equal(t, []string{"cam"}, statuses[2].DependsOn)
	assert.NoError(t, h.Ready())

	v, err := h.Vision("eyes")
	require.NoError(t, err)
	got, err := v.CaptureAllFromCamera(context.Background(), "cam", sdk.CaptureOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, sdk.MimeTypePNG, got.Image.MimeType)

	res, err := h.Resource(beatName)
	require.NoError(t, err)
	hb := res.(*heartbeat.HeartBeat)
	require.Eventually(t, func() bool { return hb.Count() >= 2 }, 2*time.Second, 5*time.Millisecond)

	running := metrics.ResourcesRunning(prom)
	assert.Equal(t, float64(1), testutil.ToFloat64(running.WithLabelValues("rdk:service:vision")))
}

func TestApplyMissingCameraFailsOnlyVision(t *testing.T) {
	h, _, _ := newHost(t)
	err := h.Apply(context.Background(), []config.Resource{beat("10ms"), vision("ghost")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `camera "ghost" not found in dependencies`)

	failures := h.Failures()
	require.Contains(t, failures, visionName)
	var cerr *sdk.ConfigError
	assert.ErrorAs(t, failures[visionName], &cerr)

	_, err = h.Vision("eyes")
	assert.ErrorIs(t, err, sdk.ErrResourceNotFound)
	_, err = h.Resource(beatName)
	assert.NoError(t, err)
	assert.Error(t, h.Ready())

	statuses := h.Resources()
	require.Len(t, statuses, 2)
	assert.NotEmpty(t, statuses[1].Error)
}

func TestApplyUnknownModel(t *testing.T) {
	h, _, _ := newHost(t)
	err := h.Apply(context.Background(), []config.Resource{{
		Name: "x", API: "rdk:component:generic", Model: "acme:generic:nope",
	}})
	assert.ErrorContains(t, err, "no registration")
}

func TestReapplyKeepsUnchanged(t *testing.T) {
	h, _, _ := newHost(t)
	rs := []config.Resource{beat("10ms"), camera(16), vision("cam")}
	require.NoError(t, h.Apply(context.Background(), rs))
	before, _ := h.Resource(beatName)
	cam, _ := h.Resource(camName)

	require.NoError(t, h.Apply(context.Background(), rs))
	after, _ := h.Resource(beatName)
	camAfter, _ := h.Resource(camName)
	assert.Same(t, before, after)
	assert.Same(t, cam, camAfter)
}

func TestReapplyRebuildsHeartbeat(t *testing.T) {
	h, _, _ := newHost(t)
	require.NoError(t, h.Apply(context.Background(), []config.Resource{beat("5ms")}))
	res, _ := h.Resource(beatName)
	old := res.(*heartbeat.HeartBeat)
	require.Eventually(t, func() bool { return old.Count() >= 2 }, 2*time.Second, time.Millisecond)

	require.NoError(t, h.Apply(context.Background(), []config.Resource{beat("1h")}))
	res, _ = h.Resource(beatName)
	assert.NotSame(t, old, res)

	stopped := old.Count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, old.Count())
}

func TestReapplyReconfiguresVision(t *testing.T) {
	h, _, _ := newHost(t)
	other := camera(32)
	other.Name = "other"
	require.NoError(t, h.Apply(context.Background(), []config.Resource{camera(16), other, vision("cam")}))
	before, _ := h.Resource(visionName)

	require.NoError(t, h.Apply(context.Background(), []config.Resource{camera(16), other, vision("other")}))
	after, _ := h.Resource(visionName)
	assert.Same(t, before, after)
	assert.Equal(t, "other", after.(*fakevision.FakeVision).CameraName())
}

func TestRebuiltDependencyIsReresolved(t *testing.T) {
	h, _, _ := newHost(t)
	require.NoError(t, h.Apply(context.Background(), []config.Resource{camera(16), vision("cam")}))

	require.NoError(t, h.Apply(context.Background(), []config.Resource{camera(24), vision("cam")}))
	v, err := h.Vision("eyes")
	require.NoError(t, err)
	got, err := v.CaptureAllFromCamera(context.Background(), "cam", sdk.CaptureOptions{}, nil)
	require.NoError(t, err)

	cam, _ := h.Resource(camName)
	want, err := cam.(sdk.Camera).Image(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, *got.Image)
}

func TestRemovingDependencyFailsDependent(t *testing.T) {
	h, _, _ := newHost(t)
	require.NoError(t, h.Apply(context.Background(), []config.Resource{camera(16), vision("cam")}))

	err := h.Apply(context.Background(), []config.Resource{vision("cam")})
	require.Error(t, err)
	_, err = h.Vision("eyes")
	assert.ErrorIs(t, err, sdk.ErrResourceNotFound)
	assert.Contains(t, h.Failures(), visionName)
}

func TestApplyPublishesEvents(t *testing.T) {
	h, bus, _ := newHost(t)
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	require.NoError(t, h.Apply(context.Background(), []config.Resource{camera(16)}))
	require.NoError(t, h.Apply(context.Background(), nil))

	var types []string
	for len(ch) > 0 {
		types = append(types, (<-ch).Type)
	}
	assert.Equal(t, []string{"resource.added", "resources.reloaded", "resource.removed", "resources.reloaded"}, types)
}

type closeErr struct{ name sdk.Name }

func (c closeErr) Name() sdk.Name { return c.name }
func (c closeErr) DoCommand(context.Context, map[string]any) (map[string]any, error) {
	return nil, nil
}
func (c closeErr) Close(context.Context) error { return errors.New("stuck") }

func TestCloseAggregatesErrors(t *testing.T) {
	reg := registry.New()
	model := sdk.Model{Family: "test", Namespace: "generic", Name: "stuck"}
	reg.Register(sdk.GenericAPI, model, registry.Registration{
		Constructor: func(_ context.Context, _ sdk.Dependencies, conf sdk.Config, _ sdk.Runtime) (sdk.Resource, error) {
			return closeErr{name: conf.ResourceName()}, nil
		},
	})
	h := New(reg, zaptest.NewLogger(t), events.NewBus(), prometheus.NewRegistry())
	require.NoError(t, h.Apply(context.Background(), []config.Resource{
		{Name: "a", API: "rdk:component:generic", Model: "test:generic:stuck"},
		{Name: "b", API: "rdk:component:generic", Model: "test:generic:stuck"},
	}))

	err := h.Close(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Empty(t, h.Resources())
}
