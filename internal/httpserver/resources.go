package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/seanorg/heartbeat-module/pkg/sdk"
)

func (s *Server) doCommand(w http.ResponseWriter, r *http.Request) {
	api, err := sdk.ParseAPI(chi.URLParam(r, "api"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := s.res.Resource(sdk.NewName(api, chi.URLParam(r, "name")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	cmd := map[string]any{}
	if err := decodeBody(r, &cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "command must be a JSON object"})
		return
	}
	out, err := res.DoCommand(r.Context(), cmd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type cameraRequest struct {
	CameraName string         `json:"camera_name"`
	N          int            `json:"n"`
	Extra      map[string]any `json:"extra"`
}

type captureRequest struct {
	CameraName string `json:"camera_name"`
	sdk.CaptureOptions
	Extra map[string]any `json:"extra"`
}

func (s *Server) vision(w http.ResponseWriter, r *http.Request) (sdk.Vision, bool) {
	v, err := s.res.Vision(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return v, true
}

func (s *Server) visionProperties(w http.ResponseWriter, r *http.Request) {
	v, ok := s.vision(w, r)
	if !ok {
		return
	}
	props, err := v.Properties(r.Context(), nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (s *Server) captureAll(w http.ResponseWriter, r *http.Request) {
	v, ok := s.vision(w, r)
	if !ok {
		return
	}
	var req captureRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	out, err := v.CaptureAllFromCamera(r.Context(), req.CameraName, req.CaptureOptions, req.Extra)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) detectionsFromCamera(w http.ResponseWriter, r *http.Request) {
	s.cameraQuery(w, r, func(v sdk.Vision, req cameraRequest) (any, error) {
		return v.DetectionsFromCamera(r.Context(), req.CameraName, req.Extra)
	})
}

func (s *Server) classificationsFromCamera(w http.ResponseWriter, r *http.Request) {
	s.cameraQuery(w, r, func(v sdk.Vision, req cameraRequest) (any, error) {
		return v.ClassificationsFromCamera(r.Context(), req.CameraName, req.N, req.Extra)
	})
}

func (s *Server) objectPointClouds(w http.ResponseWriter, r *http.Request) {
	s.cameraQuery(w, r, func(v sdk.Vision, req cameraRequest) (any, error) {
		return v.ObjectPointClouds(r.Context(), req.CameraName, req.Extra)
	})
}

func (s *Server) cameraQuery(w http.ResponseWriter, r *http.Request, call func(sdk.Vision, cameraRequest) (any, error)) {
	v, ok := s.vision(w, r)
	if !ok {
		return
	}
	var req cameraRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	out, err := call(v, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
