package viewstate_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/viewstate"
)

func TestInputHashStable(t *testing.T) {
	a := viewstate.InputHash("hello world")
	b := viewstate.InputHash("hello world")
	c := viewstate.InputHash("hello worlds")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}

func TestInputHashEmpty(t *testing.T) {
	// FNV-64a offset basis, fixed by the algorithm.
	assert.Equal(t, "cbf29ce484222325", viewstate.InputHash(""))
}

// statefulView merges state by appending; it strips its previous
// suffix first so injection stays idempotent.
type statefulView struct{}

func (statefulView) Name() string        { return "canvas" }
func (statefulView) DisplayName() string { return "Canvas" }
func (statefulView) Priority() int       { return 100 }
func (statefulView) Detect(string) int   { return 0 }
func (statefulView) Render(content string, _ types.Theme) (string, error) {
	return content, nil
}
func (statefulView) InjectState(content string, state []byte) string {
	base, _, _ := cutSuffix(content)
	return base + "|state:" + string(state)
}

func cutSuffix(content string) (string, string, bool) {
	for i := 0; i < len(content); i++ {
		if content[i] == '|' {
			return content[:i], content[i+1:], true
		}
	}
	return content, "", false
}

// plainStateless has no state capability at all.
type plainStateless struct{}

func (plainStateless) Name() string        { return "text" }
func (plainStateless) DisplayName() string { return "Text" }
func (plainStateless) Priority() int       { return 1 }
func (plainStateless) Detect(string) int   { return 1 }
func (plainStateless) Render(content string, _ types.Theme) (string, error) {
	return content, nil
}

func TestInjectStateIdempotent(t *testing.T) {
	d, err := types.Describe(statefulView{})
	require.NoError(t, err)

	state := []byte(`{"zoom":2}`)
	once := viewstate.InjectState(d, "payload", state)
	twice := viewstate.InjectState(d, once, state)

	assert.Equal(t, once, twice)
	assert.Equal(t, `payload|state:{"zoom":2}`, once)
}

func TestInjectStateIgnoresInvalidBlobs(t *testing.T) {
	d, err := types.Describe(statefulView{})
	require.NoError(t, err)

	tests := []struct {
		name  string
		state []byte
	}{
		{name: "nil", state: nil},
		{name: "empty", state: []byte{}},
		{name: "array", state: []byte(`[1,2]`)},
		{name: "garbage", state: []byte(`{not json`)},
		{name: "scalar", state: []byte(`42`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "payload", viewstate.InjectState(d, "payload", tt.state))
		})
	}
}

func TestInjectStateWithoutCapability(t *testing.T) {
	d, err := types.Describe(plainStateless{})
	require.NoError(t, err)

	assert.Equal(t, "payload", viewstate.InjectState(d, "payload", []byte(`{"a":1}`)))
}

type stubStore struct {
	blobs map[string][]byte
}

func (s *stubStore) ViewState(nodeID, viewID string) ([]byte, error) {
	return s.blobs[nodeID+"/"+viewID], nil
}
func (s *stubStore) SetViewState(nodeID, viewID string, blob []byte) error {
	s.blobs[nodeID+"/"+viewID] = blob
	return nil
}
func (s *stubStore) Exclusions(string) ([]int, error)  { return nil, nil }
func (s *stubStore) SetExclusions(string, []int) error { return nil }
func (s *stubStore) PruneViewState(_, _ string) error  { return nil }

func TestExtractStateFromStore(t *testing.T) {
	store := &stubStore{blobs: map[string][]byte{
		"7/canvas": []byte(`{"zoom":3}`),
	}}
	hc := &types.HostContext{NodeID: "7", Store: store}

	d, err := types.Describe(statefulView{})
	require.NoError(t, err)

	assert.Equal(t, []byte(`{"zoom":3}`), viewstate.ExtractState(d, hc))
}

func TestExtractStateNilContext(t *testing.T) {
	d, err := types.Describe(statefulView{})
	require.NoError(t, err)

	assert.Nil(t, viewstate.ExtractState(d, nil))
}

func TestInvalidateStaleMatchingHashKeepsBlob(t *testing.T) {
	hash := viewstate.InputHash("content")
	blob := []byte(`{"_input_hash":"` + hash + `","canvas_output":"keep","zoom":2}`)

	got, changed := viewstate.InvalidateStale(blob, hash)
	assert.False(t, changed)
	assert.Equal(t, blob, got)
}

func TestInvalidateStaleDropsOutputKeys(t *testing.T) {
	blob := []byte(`{"_input_hash":"deadbeef","canvas_output":"x","composite_output":"y","zoom":2}`)
	newHash := viewstate.InputHash("fresh content")

	got, changed := viewstate.InvalidateStale(blob, newHash)
	require.True(t, changed)

	var state map[string]any
	require.NoError(t, json.Unmarshal(got, &state))
	assert.Equal(t, newHash, state["_input_hash"])
	assert.NotContains(t, state, "canvas_output")
	assert.NotContains(t, state, "composite_output")
	assert.Equal(t, float64(2), state["zoom"])
}

func TestInvalidateStaleMissingHashDropsOutputs(t *testing.T) {
	blob := []byte(`{"canvas_output":"x","zoom":2}`)
	newHash := viewstate.InputHash("content")

	got, changed := viewstate.InvalidateStale(blob, newHash)
	require.True(t, changed)

	var state map[string]any
	require.NoError(t, json.Unmarshal(got, &state))
	assert.NotContains(t, state, "canvas_output")
	assert.Equal(t, newHash, state["_input_hash"])
}

func TestInvalidateStaleUnparseableBlob(t *testing.T) {
	newHash := viewstate.InputHash("content")

	got, changed := viewstate.InvalidateStale([]byte(`{broken`), newHash)
	require.True(t, changed)
	assert.JSONEq(t, `{"_input_hash":"`+newHash+`"}`, string(got))
}

func TestInvalidateStaleEmptyBlob(t *testing.T) {
	newHash := viewstate.InputHash("content")

	got, changed := viewstate.InvalidateStale(nil, newHash)
	require.True(t, changed)
	assert.JSONEq(t, `{"_input_hash":"`+newHash+`"}`, string(got))
}
