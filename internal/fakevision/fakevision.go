// Package fakevision implements seanorg:vision:fake-vision, a vision service that
// forwards its camera's image and supports nothing else.
package fakevision

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/seanorg/heartbeat-module/internal/metrics"
	"github.com/seanorg/heartbeat-module/internal/registry"
	"github.com/seanorg/heartbeat-module/pkg/sdk"
	"go.uber.org/zap"
)

var Model = sdk.Model{Family: "seanorg", Namespace: "vision", Name: "fake-vision"}

const cameraNameAttr = "camera_name"

func init() {
	registry.Register(sdk.VisionAPI, Model, registry.Registration{
		Constructor: func(ctx context.Context, deps sdk.Dependencies, conf sdk.Config, rt sdk.Runtime) (sdk.Resource, error) {
			return New(ctx, deps, conf, rt)
		},
		Validate: Validate,
	})
}

// Validate reports the configured camera as an implicit dependency. A missing
// camera_name is left for Reconfigure to reject.
func Validate(conf sdk.Config, log *zap.Logger) ([]string, error) {
	if name := conf.String(cameraNameAttr); name != "" {
		log.Debug("validating vision config", zap.String("camera", name))
		return []string{name}, nil
	}
	return nil, nil
}

type FakeVision struct {
	name     sdk.Name
	log      *zap.Logger
	captures *prometheus.CounterVec

	mu         sync.RWMutex
	cameraName string
	camera     sdk.Camera
}

var (
	_ sdk.Vision         = (*FakeVision)(nil)
	_ sdk.Reconfigurable = (*FakeVision)(nil)
)

func New(ctx context.Context, deps sdk.Dependencies, conf sdk.Config, rt sdk.Runtime) (*FakeVision, error) {
	v := &FakeVision{
		name:     conf.ResourceName(),
		log:      rt.Log(),
		captures: metrics.VisionCaptures(rt.Registerer()),
	}
	if err := v.Reconfigure(ctx, deps, conf); err != nil {
		return nil, err
	}
	return v, nil
}

// Reconfigure resolves camera_name in deps. On error the previous camera is kept.
func (v *FakeVision) Reconfigure(_ context.Context, deps sdk.Dependencies, conf sdk.Config) error {
	cameraName := conf.String(cameraNameAttr)
	if cameraName == "" {
		return sdk.NewConfigError(cameraNameAttr, "camera name is required but not provided")
	}
	cam, err := sdk.CameraFromDependencies(deps, cameraName)
	if err != nil {
		return &sdk.ConfigError{
			Field:  cameraNameAttr,
			Reason: fmt.Sprintf("camera %q not found in dependencies", cameraName),
			Err:    err,
		}
	}

	v.mu.Lock()
	v.cameraName = cameraName
	v.camera = cam
	v.mu.Unlock()

	v.log.Info("using camera", zap.String("camera", cameraName))
	return nil
}

func (v *FakeVision) Name() sdk.Name { return v.name }

// CameraName is the camera the service currently forwards.
func (v *FakeVision) CameraName() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cameraName
}

func (v *FakeVision) Properties(context.Context, map[string]any) (sdk.Properties, error) {
	return sdk.Properties{}, nil
}

// CaptureAllFromCamera returns the configured camera's image regardless of
// cameraName and opts, with no classifications or detections.
func (v *FakeVision) CaptureAllFromCamera(ctx context.Context, cameraName string, _ sdk.CaptureOptions, _ map[string]any) (sdk.CaptureAll, error) {
	v.mu.RLock()
	cam := v.camera
	v.mu.RUnlock()

	img, err := cam.Image(ctx)
	if err != nil {
		v.captures.WithLabelValues(v.name.Name, "error").Inc()
		return sdk.CaptureAll{}, fmt.Errorf("get image from camera %q: %w", v.CameraName(), err)
	}
	v.captures.WithLabelValues(v.name.Name, "ok").Inc()
	v.log.Debug("capture all",
		zap.String("requested_camera", cameraName),
		zap.String("mime_type", img.MimeType),
		zap.Int("bytes", len(img.Data)))

	return sdk.CaptureAll{
		Image:           &img,
		Classifications: []sdk.Classification{},
		Detections:      []sdk.Detection{},
	}, nil
}

func (v *FakeVision) Detections(context.Context, sdk.Image, map[string]any) ([]sdk.Detection, error) {
	return nil, sdk.ErrNotImplemented
}

func (v *FakeVision) DetectionsFromCamera(context.Context, string, map[string]any) ([]sdk.Detection, error) {
	return nil, sdk.ErrNotImplemented
}

func (v *FakeVision) Classifications(context.Context, sdk.Image, int, map[string]any) ([]sdk.Classification, error) {
	return nil, sdk.ErrNotImplemented
}

func (v *FakeVision) ClassificationsFromCamera(context.Context, string, int, map[string]any) ([]sdk.Classification, error) {
	return nil, sdk.ErrNotImplemented
}

func (v *FakeVision) ObjectPointClouds(context.Context, string, map[string]any) ([]sdk.PointCloudObject, error) {
	return nil, sdk.ErrNotImplemented
}

func (v *FakeVision) DoCommand(context.Context, map[string]any) (map[string]any, error) {
	return nil, sdk.ErrNotImplemented
}

func (v *FakeVision) Close(context.Context) error {
	v.log.Info("closing fake vision")
	return nil
}
