// Package fakecamera implements rdk:builtin:fake, a camera serving a generated test frame.
package fakecamera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/seanorg/heartbeat-module/internal/registry"
	"github.com/seanorg/heartbeat-module/pkg/sdk"
	"go.uber.org/zap"
)

var Model = sdk.Model{Family: "rdk", Namespace: "builtin", Name: "fake"}

const (
	defaultWidth  = 320
	defaultHeight = 240
	maxSide       = 4096
)

func init() {
	registry.Register(sdk.CameraAPI, Model, registry.Registration{
		Constructor: func(_ context.Context, _ sdk.Dependencies, conf sdk.Config, rt sdk.Runtime) (sdk.Resource, error) {
			return New(conf, rt.Log())
		},
		Validate: func(conf sdk.Config, _ *zap.Logger) ([]string, error) {
			_, err := parse(conf)
			return nil, err
		},
	})
}

type settings struct {
	width, height int
	mimeType      string
}

func parse(conf sdk.Config) (settings, error) {
	s := settings{mimeType: conf.String("mime_type")}
	var err error
	if s.width, err = conf.Int("width", defaultWidth); err != nil {
		return s, err
	}
	if s.height, err = conf.Int("height", defaultHeight); err != nil {
		return s, err
	}
	if s.width <= 0 || s.width > maxSide {
		return s, sdk.NewConfigError("width", fmt.Sprintf("must be in 1..%d, got %d", maxSide, s.width))
	}
	if s.height <= 0 || s.height > maxSide {
		return s, sdk.NewConfigError("height", fmt.Sprintf("must be in 1..%d, got %d", maxSide, s.height))
	}
	switch s.mimeType {
	case "":
		s.mimeType = sdk.MimeTypeJPEG
	case sdk.MimeTypeJPEG, sdk.MimeTypePNG:
	default:
		return s, sdk.NewConfigError("mime_type", fmt.Sprintf("unsupported %q", s.mimeType))
	}
	return s, nil
}

// Camera always returns the same encoded gradient.
type Camera struct {
	name  sdk.Name
	log   *zap.Logger
	frame sdk.Image
}

var _ sdk.Camera = (*Camera)(nil)

func New(conf sdk.Config, log *zap.Logger) (*Camera, error) {
	s, err := parse(conf)
	if err != nil {
		return nil, err
	}
	data, err := encode(gradient(s.width, s.height), s.mimeType)
	if err != nil {
		return nil, err
	}
	log.Info("fake camera ready",
		zap.Int("width", s.width),
		zap.Int("height", s.height),
		zap.String("mime_type", s.mimeType))
	return &Camera{
		name:  conf.ResourceName(),
		log:   log,
		frame: sdk.Image{MimeType: s.mimeType, Data: data},
	}, nil
}

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func encode(img image.Image, mimeType string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch mimeType {
	case sdk.MimeTypePNG:
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", mimeType, err)
	}
	return buf.Bytes(), nil
}

func (c *Camera) Name() sdk.Name { return c.name }

func (c *Camera) Image(ctx context.Context) (sdk.Image, error) {
	if err := ctx.Err(); err != nil {
		return sdk.Image{}, err
	}
	return sdk.Image{
		MimeType: c.frame.MimeType,
		Data:     bytes.Clone(c.frame.Data),
	}, nil
}

func (c *Camera) DoCommand(context.Context, map[string]any) (map[string]any, error) {
	return nil, sdk.ErrNotImplemented
}

func (c *Camera) Close(context.Context) error { return nil }
