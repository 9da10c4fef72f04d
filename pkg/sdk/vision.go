package sdk

import "context"

// Properties reports which vision capabilities a service supports.
type Properties struct {
	ClassificationsSupported   bool `json:"classifications_supported"`
	DetectionsSupported        bool `json:"detections_supported"`
	ObjectPointCloudsSupported bool `json:"object_point_clouds_supported"`
}

// CaptureOptions selects what a capture-all request should return.
type CaptureOptions struct {
	ReturnImage             bool `json:"return_image"`
	ReturnClassifications   bool `json:"return_classifications"`
	ReturnDetections        bool `json:"return_detections"`
	ReturnObjectPointClouds bool `json:"return_object_point_clouds"`
}

type Classification struct {
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
}

// Detection is a labelled bounding box in pixel coordinates.
type Detection struct {
	XMin       int     `json:"x_min"`
	YMin       int     `json:"y_min"`
	XMax       int     `json:"x_max"`
	YMax       int     `json:"y_max"`
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
}

type PointCloudObject struct {
	Label      string `json:"label"`
	PointCloud []byte `json:"point_cloud"`
}

// CaptureAll is the combined answer to a capture-all request.
type CaptureAll struct {
	Image             *Image             `json:"image,omitempty"`
	Classifications   []Classification   `json:"classifications"`
	Detections        []Detection        `json:"detections"`
	ObjectPointClouds []PointCloudObject `json:"object_point_clouds,omitempty"`
}

// Vision is the vision service API.
type Vision interface {
	Resource
	Properties(ctx context.Context, extra map[string]any) (Properties, error)
	CaptureAllFromCamera(ctx context.Context, cameraName string, opts CaptureOptions, extra map[string]any) (CaptureAll, error)
	Detections(ctx context.Context, img Image, extra map[string]any) ([]Detection, error)
	DetectionsFromCamera(ctx context.Context, cameraName string, extra map[string]any) ([]Detection, error)
	Classifications(ctx context.Context, img Image, n int, extra map[string]any) ([]Classification, error)
	ClassificationsFromCamera(ctx context.Context, cameraName string, n int, extra map[string]any) ([]Classification, error)
	ObjectPointClouds(ctx context.Context, cameraName string, extra map[string]any) ([]PointCloudObject, error)
}
