package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

func TestJoinSplitRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		items []string
	}{
		{
			name:  "single item",
			items: []string{"hello"},
		},
		{
			name:  "three items",
			items: []string{"item1", "item2", "item3"},
		},
		{
			name:  "items with internal newlines",
			items: []string{"line1\nline2", "second\n\nthird"},
		},
		{
			name:  "empty middle item",
			items: []string{"a", "", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			joined := types.JoinList(tt.items)
			assert.Equal(t, tt.items, types.SplitList(joined))
		})
	}
}

func TestSplitListToleratesBareSeparator(t *testing.T) {
	// Separator without the surrounding newlines still splits.
	got := types.SplitList("a---LIST_SEPARATOR---b")
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestSplitListNoSeparator(t *testing.T) {
	got := types.SplitList("just one blob\nwith lines")
	assert.Equal(t, []string{"just one blob\nwith lines"}, got)
}

func TestIsListContent(t *testing.T) {
	assert.True(t, types.IsListContent("a\n---LIST_SEPARATOR---\nb"))
	assert.False(t, types.IsListContent("plain text"))
}

func TestTrimMarker(t *testing.T) {
	tests := []struct {
		name    string
		content string
		marker  string
		want    string
	}{
		{
			name:    "marker with newline",
			content: "$WAS_OBJECT$\n{\"a\":1}",
			marker:  types.ObjectMarker,
			want:    "{\"a\":1}",
		},
		{
			name:    "marker without newline",
			content: "$WAS_CANVAS${}",
			marker:  types.CanvasMarker,
			want:    "{}",
		},
		{
			name:    "no marker",
			content: "plain",
			marker:  types.MultiviewMarker,
			want:    "plain",
		},
		{
			name:    "only first newline trimmed",
			content: "$WAS_MULTIVIEW$\n\npayload",
			marker:  types.MultiviewMarker,
			want:    "\npayload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, types.TrimMarker(tt.content, tt.marker))
		})
	}
}
