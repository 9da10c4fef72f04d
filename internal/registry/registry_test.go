package registry

import (
	"context"
	"testing"

	"github.com/seanorg/heartbeat-module/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	modelA = sdk.Model{Family: "test", Namespace: "x", Name: "a"}
	modelB = sdk.Model{Family: "test", Namespace: "x", Name: "b"}
)

func nopConstructor(context.Context, sdk.Dependencies, sdk.Config, sdk.Runtime) (sdk.Resource, error) {
	return nil, nil
}

func TestRegisterLookup(t *testing.T) {
	r := New()
	r.Register(sdk.GenericAPI, modelA, Registration{Constructor: nopConstructor})

	reg, ok := r.Lookup(sdk.GenericAPI, modelA)
	require.True(t, ok)
	assert.Equal(t, sdk.GenericAPI, reg.API)
	assert.Equal(t, modelA, reg.Model)
	assert.Nil(t, reg.Validate)

	_, ok = r.Lookup(sdk.CameraAPI, modelA)
	assert.False(t, ok)
}

func TestRegisterTwicePanics(t *testing.T) {
	r := New()
	r.Register(sdk.GenericAPI, modelA, Registration{Constructor: nopConstructor})
	assert.Panics(t, func() {
		r.Register(sdk.GenericAPI, modelA, Registration{Constructor: nopConstructor})
	})
}

func TestRegisterWithoutConstructorPanics(t *testing.T) {
	assert.Panics(t, func() {
		New().Register(sdk.GenericAPI, modelA, Registration{})
	})
}

func TestRegisteredIsSorted(t *testing.T) {
	r := New()
	r.Register(sdk.VisionAPI, modelB, Registration{Constructor: nopConstructor})
	r.Register(sdk.GenericAPI, modelB, Registration{Constructor: nopConstructor})
	r.Register(sdk.GenericAPI, modelA, Registration{Constructor: nopConstructor})

	got := r.Registered()
	require.Len(t, got, 3)
	assert.Equal(t, modelA, got[0].Model)
	assert.Equal(t, sdk.GenericAPI, got[1].API)
	assert.Equal(t, sdk.VisionAPI, got[2].API)
}
