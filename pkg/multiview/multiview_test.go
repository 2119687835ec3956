package multiview_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/multiview"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/registry"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

type stubView struct {
	name     string
	priority int
}

func (v stubView) Name() string        { return v.name }
func (v stubView) DisplayName() string { return v.name }
func (v stubView) Priority() int       { return v.priority }
func (v stubView) Detect(string) int   { return 0 }
func (v stubView) Render(content string, _ types.Theme) (string, error) {
	return content, nil
}

func newReg(t *testing.T, names ...string) registry.Registry {
	t.Helper()
	reg := registry.New()
	for i, name := range names {
		require.NoError(t, reg.Register(stubView{name: name, priority: 10 - i}))
	}
	return reg
}

const sampleEnvelope = `$WAS_MULTIVIEW$
{"type":"multiview","default_view":"json","views":[` +
	`{"name":"json","priority":10,"display_content":"{\"a\":1}","content_hash":"h1"},` +
	`{"name":"yaml","priority":10,"display_content":"a: 1","content_hash":"h2"},` +
	`{"name":"text","priority":1,"display_content":"{\"a\":1}","content_hash":"h1"}]}`

func TestIsMultiview(t *testing.T) {
	assert.True(t, multiview.IsMultiview(sampleEnvelope))
	assert.False(t, multiview.IsMultiview(`{"type":"multiview"}`))
	assert.False(t, multiview.IsMultiview("plain"))
}

func TestStripMarker(t *testing.T) {
	assert.Equal(t, "{}", multiview.StripMarker("$WAS_MULTIVIEW$\n{}"))
	assert.Equal(t, "plain", multiview.StripMarker("plain"))
}

func TestParse(t *testing.T) {
	reg := newReg(t, "json", "yaml", "text")

	env, err := multiview.Parse(sampleEnvelope, reg)
	require.NoError(t, err)
	require.Len(t, env.Views, 3)
	assert.Equal(t, "json", env.DefaultView)
	assert.Equal(t, "yaml", env.Views[1].Name)
	assert.Equal(t, "a: 1", env.Views[1].DisplayContent)
}

func TestParseDropsUnregisteredEntries(t *testing.T) {
	reg := newReg(t, "json", "text")

	env, err := multiview.Parse(sampleEnvelope, reg)
	require.NoError(t, err)
	require.Len(t, env.Views, 2)
	assert.Equal(t, "json", env.Views[0].Name)
	assert.Equal(t, "text", env.Views[1].Name)
}

func TestParseErrors(t *testing.T) {
	reg := newReg(t, "json")

	tests := []struct {
		name    string
		content string
	}{
		{name: "missing marker", content: `{"type":"multiview","views":[]}`},
		{name: "bad json", content: "$WAS_MULTIVIEW$\n{broken"},
		{name: "wrong type tag", content: `$WAS_MULTIVIEW$` + "\n" + `{"type":"object_viewer","views":[{"name":"json"}]}`},
		{name: "no views", content: `$WAS_MULTIVIEW$` + "\n" + `{"type":"multiview","views":[]}`},
		{name: "nothing resolves", content: `$WAS_MULTIVIEW$` + "\n" + `{"type":"multiview","views":[{"name":"ghost"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := multiview.Parse(tt.content, reg)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidEnvelope))
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	reg := newReg(t, "json", "yaml")
	env := &multiview.Envelope{
		DefaultView: "json",
		Views: []multiview.Entry{
			{Name: "json", Priority: 10, DisplayContent: "{}", ContentHash: "h"},
			{Name: "yaml", Priority: 10, DisplayContent: "a:", ContentHash: "h2"},
		},
	}

	wire, err := multiview.Encode(env)
	require.NoError(t, err)
	assert.True(t, multiview.IsMultiview(wire))

	back, err := multiview.Parse(wire, reg)
	require.NoError(t, err)
	assert.Equal(t, "json", back.DefaultView)
	assert.Equal(t, env.Views, back.Views)
}

func TestEncodeEmpty(t *testing.T) {
	_, err := multiview.Encode(nil)
	require.Error(t, err)
	_, err = multiview.Encode(&multiview.Envelope{})
	require.Error(t, err)
}

func TestBuild(t *testing.T) {
	results := []types.DetectionResult{
		{View: stubView{name: "json", priority: 10}, Score: 100},
		{View: stubView{name: "yaml", priority: 10}, Score: 3},
		{View: stubView{name: "canvas", priority: 100}, Score: 0},
		{View: stubView{name: "text", priority: 1}, Score: 1},
	}

	env := multiview.Build(`{"a": 1}`, results)
	require.NotNil(t, env)
	require.Len(t, env.Views, 3)

	// Priority order, zero scores excluded, first entry is default.
	assert.Equal(t, "json", env.Views[0].Name)
	assert.Equal(t, "yaml", env.Views[1].Name)
	assert.Equal(t, "text", env.Views[2].Name)
	assert.Equal(t, "json", env.DefaultView)

	// Every entry carries the same content and hash.
	for _, entry := range env.Views {
		assert.Equal(t, `{"a": 1}`, entry.DisplayContent)
		assert.Equal(t, env.Views[0].ContentHash, entry.ContentHash)
	}

	assert.Equal(t, "multiview_3_"+env.Views[0].ContentHash, env.Hash())
}

func TestBuildSingleMatchReturnsNil(t *testing.T) {
	results := []types.DetectionResult{
		{View: stubView{name: "text", priority: 1}, Score: 1},
		{View: stubView{name: "json", priority: 10}, Score: 0},
	}

	assert.Nil(t, multiview.Build("plain", results))
}

func TestOptionsDeduplicates(t *testing.T) {
	env := &multiview.Envelope{
		Views: []multiview.Entry{
			{Name: "json", Priority: 10},
			{Name: "yaml", Priority: 10},
			{Name: "json", Priority: 10},
		},
	}

	assert.Equal(t, []string{"json", "yaml"}, env.Options())
}

func TestActiveEntry(t *testing.T) {
	env := &multiview.Envelope{
		DefaultView: "yaml",
		Views: []multiview.Entry{
			{Name: "json", Priority: 10},
			{Name: "yaml", Priority: 10},
			{Name: "text", Priority: 1},
		},
	}

	assert.Equal(t, "json", env.ActiveEntry("json").Name)
	assert.Equal(t, "yaml", env.ActiveEntry("").Name)
	// Unknown override falls through to the default.
	assert.Equal(t, "yaml", env.ActiveEntry("ghost").Name)
}

func TestActiveEntryFallsBackToHighestPriority(t *testing.T) {
	env := &multiview.Envelope{
		DefaultView: "ghost",
		Views: []multiview.Entry{
			{Name: "text", Priority: 1},
			{Name: "json", Priority: 10},
		},
	}

	assert.Equal(t, "json", env.ActiveEntry("").Name)
}
