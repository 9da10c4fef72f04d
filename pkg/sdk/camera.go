package sdk

import (
	"context"
	"fmt"
)

const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
)

// Image is an encoded frame tagged with its MIME type.
type Image struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Camera produces the current frame on request.
type Camera interface {
	Resource
	Image(ctx context.Context) (Image, error)
}

// CameraFromDependencies finds the camera called name in deps.
func CameraFromDependencies(deps Dependencies, name string) (Camera, error) {
	res, ok := deps[NewName(CameraAPI, name)]
	if !ok {
		return nil, fmt.Errorf("camera %q: %w", name, ErrResourceNotFound)
	}
	cam, ok := res.(Camera)
	if !ok {
		return nil, fmt.Errorf("resource %q is a %T, not a camera", name, res)
	}
	return cam, nil
}
