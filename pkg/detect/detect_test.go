package detect_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/detect"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/registry"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

// fakeView scores content by a substring probe.
type fakeView struct {
	name     string
	priority int
	marker   string
	probe    string
	score    int
	panics   bool
}

func (v fakeView) Name() string        { return v.name }
func (v fakeView) DisplayName() string { return v.name }
func (v fakeView) Priority() int       { return v.priority }

func (v fakeView) Detect(content string) int {
	if v.panics {
		panic("detector exploded")
	}
	if v.probe == "" {
		return v.score
	}
	if strings.Contains(content, v.probe) {
		return v.score
	}
	return 0
}

func (v fakeView) Render(content string, _ types.Theme) (string, error) {
	return content, nil
}

// markedFake exposes a content marker.
type markedFake struct{ fakeView }

func (v markedFake) ContentMarker() string { return v.marker }

func newTestRegistry(t *testing.T, views ...types.View) registry.Registry {
	t.Helper()
	reg := registry.New()
	for _, v := range views {
		require.NoError(t, reg.Register(v))
	}
	return reg
}

func TestBestEmptyContentFallsBackToText(t *testing.T) {
	reg := newTestRegistry(t,
		fakeView{name: "json", priority: 10, probe: "{", score: 100},
		fakeView{name: "text", priority: 1, score: 1},
	)
	engine := detect.New(reg)

	got, err := engine.Best("")
	require.NoError(t, err)
	assert.Equal(t, "text", got.View.Name())
	assert.Equal(t, 1, got.Score)
	assert.False(t, got.ByMarker)
}

func TestBestMarkerShortCircuits(t *testing.T) {
	// The canvas payload is valid JSON, so the json heuristic would
	// claim it. The marker must win regardless.
	reg := newTestRegistry(t,
		fakeView{name: "json", priority: 10, probe: "{", score: 100},
		markedFake{fakeView{name: "canvas", priority: 100, marker: "$WAS_CANVAS$"}},
		fakeView{name: "text", priority: 1, score: 1},
	)
	engine := detect.New(reg)

	got, err := engine.Best("$WAS_CANVAS$\n{\"images\":[]}")
	require.NoError(t, err)
	assert.Equal(t, "canvas", got.View.Name())
	assert.Equal(t, detect.MarkerScore, got.Score)
	assert.True(t, got.ByMarker)
}

func TestBestLongestMarkerWins(t *testing.T) {
	reg := newTestRegistry(t,
		markedFake{fakeView{name: "canvas", priority: 100, marker: "$WAS_CANVAS$"}},
		markedFake{fakeView{name: "canvasout", priority: 100, marker: "$WAS_CANVAS_OUTPUT$"}},
		fakeView{name: "text", priority: 1, score: 1},
	)
	engine := detect.New(reg)

	got, err := engine.Best("$WAS_CANVAS_OUTPUT$\n{}")
	require.NoError(t, err)
	assert.Equal(t, "canvasout", got.View.Name())
}

func TestBestUnknownMarkerGoesHeuristic(t *testing.T) {
	reg := newTestRegistry(t,
		fakeView{name: "json", priority: 10, probe: "{", score: 100},
		fakeView{name: "text", priority: 1, score: 1},
	)
	engine := detect.New(reg)

	// Nobody registered this marker, so it is just text that happens
	// to contain a brace.
	got, err := engine.Best("$WAS_NOBODY$\n{\"a\":1}")
	require.NoError(t, err)
	assert.Equal(t, "json", got.View.Name())
	assert.False(t, got.ByMarker)
}

func TestBestHighestScoreWins(t *testing.T) {
	reg := newTestRegistry(t,
		fakeView{name: "weak", priority: 10, probe: "x", score: 3},
		fakeView{name: "strong", priority: 10, probe: "x", score: 90},
		fakeView{name: "text", priority: 1, score: 1},
	)
	engine := detect.New(reg)

	got, err := engine.Best("xxxx")
	require.NoError(t, err)
	assert.Equal(t, "strong", got.View.Name())
	assert.Equal(t, 90, got.Score)
}

func TestBestTieBreaksByPriorityThenRegistration(t *testing.T) {
	reg := newTestRegistry(t,
		fakeView{name: "early", priority: 10, probe: "x", score: 50},
		fakeView{name: "late", priority: 10, probe: "x", score: 50},
		fakeView{name: "vip", priority: 20, probe: "x", score: 50},
		fakeView{name: "text", priority: 1, score: 1},
	)
	engine := detect.New(reg)

	got, err := engine.Best("x")
	require.NoError(t, err)
	// Same score everywhere: priority 20 beats the tens.
	assert.Equal(t, "vip", got.View.Name())

	require.NoError(t, reg.Remove("vip"))

	got, err = engine.Best("x")
	require.NoError(t, err)
	// Equal score and priority: first registered wins.
	assert.Equal(t, "early", got.View.Name())
}

func TestBestAllZeroFallsBackToText(t *testing.T) {
	reg := newTestRegistry(t,
		fakeView{name: "json", priority: 10, probe: "{", score: 100},
		fakeView{name: "text", priority: 1, score: 1},
	)
	engine := detect.New(reg)

	got, err := engine.Best("plain words only")
	require.NoError(t, err)
	assert.Equal(t, "text", got.View.Name())
}

func TestBestNoFallbackRegistered(t *testing.T) {
	reg := newTestRegistry(t,
		fakeView{name: "json", priority: 10, probe: "{", score: 100},
	)
	engine := detect.New(reg)

	_, err := engine.Best("no braces here")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrViewNotFound))
}

func TestBestPanickingViewScoresZero(t *testing.T) {
	reg := newTestRegistry(t,
		fakeView{name: "bomb", priority: 50, panics: true},
		fakeView{name: "json", priority: 10, probe: "{", score: 100},
		fakeView{name: "text", priority: 1, score: 1},
	)
	engine := detect.New(reg)

	got, err := engine.Best("{\"a\":1}")
	require.NoError(t, err)
	assert.Equal(t, "json", got.View.Name())
}

func TestScoresFullScoreboard(t *testing.T) {
	reg := newTestRegistry(t,
		fakeView{name: "json", priority: 10, probe: "{", score: 100},
		fakeView{name: "yaml", priority: 10, probe: ":", score: 3},
		fakeView{name: "text", priority: 1, score: 1},
	)
	engine := detect.New(reg)

	results := engine.Scores("{\"key\": 1}")
	require.Len(t, results, 3)

	assert.Equal(t, "json", results[0].View.Name())
	assert.Equal(t, 100, results[0].Score)
	assert.Equal(t, "yaml", results[1].View.Name())
	assert.Equal(t, 3, results[1].Score)
	assert.Equal(t, "text", results[2].View.Name())
	assert.Equal(t, 1, results[2].Score)
}

func TestScoresMarkerContent(t *testing.T) {
	reg := newTestRegistry(t,
		markedFake{fakeView{name: "object", priority: 5, marker: "$WAS_OBJECT$"}},
		fakeView{name: "json", priority: 10, probe: "{", score: 100},
		fakeView{name: "text", priority: 1, score: 1},
	)
	engine := detect.New(reg)

	results := engine.Scores("$WAS_OBJECT$\n{\"objects\":[]}")
	require.NotEmpty(t, results)
	assert.Equal(t, "object", results[0].View.Name())
	assert.Equal(t, detect.MarkerScore, results[0].Score)
	assert.True(t, results[0].ByMarker)
}

func TestScoresEmptyContent(t *testing.T) {
	reg := newTestRegistry(t,
		fakeView{name: "text", priority: 1, score: 1},
	)
	engine := detect.New(reg)

	results := engine.Scores("")
	require.Len(t, results, 1)
	assert.Zero(t, results[0].Score)
}
