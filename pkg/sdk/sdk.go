// Package sdk holds the contracts shared between the host and the resources it runs.
package sdk

import (
	"fmt"
	"strings"
)

// API identifies a resource interface as namespace:type:subtype, e.g. rdk:component:camera.
type API struct {
	Namespace string
	Type      string
	Subtype   string
}

func (a API) String() string {
	return a.Namespace + ":" + a.Type + ":" + a.Subtype
}

// Model identifies an implementation of an API as family:namespace:name.
type Model struct {
	Family    string
	Namespace string
	Name      string
}

func (m Model) String() string {
	return m.Family + ":" + m.Namespace + ":" + m.Name
}

// Name is the key under which the host stores a running resource.
type Name struct {
	API  API
	Name string
}

func (n Name) String() string {
	return n.API.String() + "/" + n.Name
}

var (
	GenericAPI = API{Namespace: "rdk", Type: "component", Subtype: "generic"}
	CameraAPI  = API{Namespace: "rdk", Type: "component", Subtype: "camera"}
	VisionAPI  = API{Namespace: "rdk", Type: "service", Subtype: "vision"}
)

// NewName builds the resource name of name under api.
func NewName(api API, name string) Name {
	return Name{API: api, Name: name}
}

// ParseAPI parses namespace:type:subtype.
func ParseAPI(s string) (API, error) {
	parts, err := triplet(s)
	if err != nil {
		return API{}, fmt.Errorf("parse api: %w", err)
	}
	return API{Namespace: parts[0], Type: parts[1], Subtype: parts[2]}, nil
}

// ParseModel parses family:namespace:name.
func ParseModel(s string) (Model, error) {
	parts, err := triplet(s)
	if err != nil {
		return Model{}, fmt.Errorf("parse model: %w", err)
	}
	return Model{Family: parts[0], Namespace: parts[1], Name: parts[2]}, nil
}

func triplet(s string) ([]string, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%q is not a colon-separated triplet", s)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%q has an empty segment", s)
		}
	}
	return parts, nil
}
