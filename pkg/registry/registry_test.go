package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/registry"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

// stubView is a minimal view for registry tests.
type stubView struct {
	name     string
	priority int
	marker   string
}

func (v stubView) Name() string        { return v.name }
func (v stubView) DisplayName() string { return v.name }
func (v stubView) Priority() int       { return v.priority }
func (v stubView) Detect(string) int   { return 0 }
func (v stubView) Render(content string, _ types.Theme) (string, error) {
	return content, nil
}

// markedStub adds a content marker.
type markedStub struct{ stubView }

func (v markedStub) ContentMarker() string { return v.marker }

func TestRegisterAndGet(t *testing.T) {
	reg := registry.New()

	require.NoError(t, reg.Register(stubView{name: "text", priority: 1}))
	require.NoError(t, reg.Register(stubView{name: "json", priority: 10}))

	d, err := reg.Get("json")
	require.NoError(t, err)
	assert.Equal(t, "json", d.View.Name())
	assert.Equal(t, 2, reg.Count())
	assert.True(t, reg.Has("text"))
	assert.False(t, reg.Has("yaml"))
}

func TestGetUnknownView(t *testing.T) {
	reg := registry.New()

	_, err := reg.Get("nope")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrViewNotFound))
}

func TestRegisterNilView(t *testing.T) {
	reg := registry.New()

	err := reg.Register(nil)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestRegisterValidates(t *testing.T) {
	reg := registry.New()

	err := reg.Register(stubView{name: "Bad Name"})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrViewInvalid))
	assert.Zero(t, reg.Count())
}

func TestLastRegistrationWins(t *testing.T) {
	reg := registry.New()

	require.NoError(t, reg.Register(stubView{name: "json", priority: 10}))
	require.NoError(t, reg.Register(stubView{name: "text", priority: 1}))
	require.NoError(t, reg.Register(stubView{name: "json", priority: 50}))

	assert.Equal(t, 2, reg.Count())

	d, err := reg.Get("json")
	require.NoError(t, err)
	assert.Equal(t, 50, d.View.Priority())

	// Replacement keeps the original registration position.
	assert.Equal(t, []string{"json", "text"}, reg.Names())
}

func TestByPriorityStableOrder(t *testing.T) {
	reg := registry.New()

	require.NoError(t, reg.Register(stubView{name: "markdown", priority: 10}))
	require.NoError(t, reg.Register(stubView{name: "json", priority: 10}))
	require.NoError(t, reg.Register(stubView{name: "canvas", priority: 100}))
	require.NoError(t, reg.Register(stubView{name: "text", priority: 1}))

	views := reg.ByPriority()
	names := make([]string, len(views))
	for i, d := range views {
		names[i] = d.View.Name()
	}

	// Highest priority first; the 10s keep registration order.
	assert.Equal(t, []string{"canvas", "markdown", "json", "text"}, names)
}

func TestByMarker(t *testing.T) {
	reg := registry.New()

	require.NoError(t, reg.Register(markedStub{stubView{name: "object", priority: 5, marker: "$WAS_OBJECT$"}}))
	require.NoError(t, reg.Register(markedStub{stubView{name: "canvas", priority: 100, marker: "$WAS_CANVAS$"}}))

	d, ok := reg.ByMarker("$WAS_CANVAS$")
	require.True(t, ok)
	assert.Equal(t, "canvas", d.View.Name())

	_, ok = reg.ByMarker("$WAS_NOPE$")
	assert.False(t, ok)

	_, ok = reg.ByMarker("")
	assert.False(t, ok)
}

func TestByMarkerDuplicatePrefersPriority(t *testing.T) {
	reg := registry.New()

	require.NoError(t, reg.Register(markedStub{stubView{name: "low", priority: 5, marker: "$WAS_CANVAS$"}}))
	require.NoError(t, reg.Register(markedStub{stubView{name: "high", priority: 100, marker: "$WAS_CANVAS$"}}))

	d, ok := reg.ByMarker("$WAS_CANVAS$")
	require.True(t, ok)
	assert.Equal(t, "high", d.View.Name())
}

func TestMarkers(t *testing.T) {
	reg := registry.New()

	require.NoError(t, reg.Register(markedStub{stubView{name: "canvas", priority: 100, marker: "$WAS_CANVAS$"}}))
	require.NoError(t, reg.Register(stubView{name: "text", priority: 1}))
	require.NoError(t, reg.Register(markedStub{stubView{name: "object", priority: 5, marker: "$WAS_OBJECT$"}}))

	assert.Equal(t, []string{"$WAS_CANVAS$", "$WAS_OBJECT$"}, reg.Markers())
}

func TestRemoveAndClear(t *testing.T) {
	reg := registry.New()

	require.NoError(t, reg.Register(stubView{name: "text", priority: 1}))
	require.NoError(t, reg.Register(stubView{name: "json", priority: 10}))

	require.NoError(t, reg.Remove("text"))
	assert.Equal(t, []string{"json"}, reg.Names())

	err := reg.Remove("text")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrViewNotFound))

	reg.Clear()
	assert.Zero(t, reg.Count())
	assert.Empty(t, reg.Names())
}

func TestMustRegisterPanicsOnInvalid(t *testing.T) {
	reg := registry.New()

	assert.Panics(t, func() {
		registry.MustRegister(reg, stubView{name: ""})
	})
	assert.NotPanics(t, func() {
		registry.MustRegister(reg, stubView{name: "text", priority: 1})
	})
}
