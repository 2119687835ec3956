package types_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

func TestDecodeHostMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want types.HostMessage
	}{
		{
			name: "content changed",
			raw:  `{"type":"content_changed","node_id":"42","data":{"content":"hello"}}`,
			want: types.ContentChanged{NodeID: "42", Content: "hello"},
		},
		{
			name: "view override",
			raw:  `{"type":"view_override","node_id":"7","data":{"view":"json"}}`,
			want: types.ViewOverride{NodeID: "7", View: "json"},
		},
		{
			name: "surface ready",
			raw:  `{"type":"surface_ready","node_id":"7","data":{"slot":"slot-1"}}`,
			want: types.SurfaceReady{NodeID: "7", Slot: "slot-1"},
		},
		{
			name: "state payload",
			raw:  `{"type":"state_payload","node_id":"9","data":{"view":"canvas","state":{"zoom":2}}}`,
			want: types.StatePayload{NodeID: "9", View: "canvas", State: json.RawMessage(`{"zoom":2}`)},
		},
		{
			name: "override with empty data",
			raw:  `{"type":"view_override","node_id":"7"}`,
			want: types.ViewOverride{NodeID: "7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.DecodeHostMessage([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeHostMessageThemeChanged(t *testing.T) {
	raw := `{"type":"theme_changed","data":{"theme":{"background":"#000","foreground":"#fff"}}}`
	got, err := types.DecodeHostMessage([]byte(raw))
	require.NoError(t, err)

	m, ok := got.(types.ThemeChanged)
	require.True(t, ok)
	assert.Equal(t, "#000", m.Theme.Background)
	assert.Equal(t, "#fff", m.Theme.Foreground)
}

func TestDecodeHostMessageErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "unknown type", raw: `{"type":"does_not_exist"}`},
		{name: "not json", raw: `{{{`},
		{name: "bad payload", raw: `{"type":"surface_ready","data":{"slot":7}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := types.DecodeHostMessage([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrUnknownMessage))
		})
	}
}

func TestEncodeCoreMessage(t *testing.T) {
	raw, err := types.EncodeCoreMessage(types.ItemToggled{NodeID: "42", Index: 2, Excluded: true})
	require.NoError(t, err)

	var env struct {
		Type   string          `json:"type"`
		NodeID string          `json:"node_id"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "item_toggled", env.Type)
	assert.Equal(t, "42", env.NodeID)
	assert.JSONEq(t, `{"index":2,"excluded":true}`, string(env.Data))
}

func TestEncodeCoreMessageTypes(t *testing.T) {
	tests := []struct {
		msg      types.CoreMessage
		wantType string
	}{
		{msg: types.CopyItem{NodeID: "1", Index: 0, Content: "x"}, wantType: "copy_item"},
		{msg: types.PersistState{NodeID: "1", View: "canvas", State: json.RawMessage(`{}`)}, wantType: "persist_state"},
		{msg: types.AssignOutput{NodeID: "1", Values: []string{"a"}}, wantType: "assign_output"},
		{msg: types.DependenciesChanged{NodeID: "1", Keys: []string{"katex"}}, wantType: "dependencies_changed"},
		{msg: types.RenderFailed{NodeID: "1", View: "svg", Reason: "boom"}, wantType: "render_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.wantType, func(t *testing.T) {
			raw, err := types.EncodeCoreMessage(tt.msg)
			require.NoError(t, err)

			var env struct {
				Type   string `json:"type"`
				NodeID string `json:"node_id"`
			}
			require.NoError(t, json.Unmarshal(raw, &env))
			assert.Equal(t, tt.wantType, env.Type)
			assert.Equal(t, "1", env.NodeID)
		})
	}
}
