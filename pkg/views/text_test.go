package views_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/views"
)

func TestTextDetectAlwaysOne(t *testing.T) {
	v := views.NewTextView()

	assert.Equal(t, 1, v.Detect(""))
	assert.Equal(t, 1, v.Detect("anything"))
	assert.Equal(t, 1, v.Detect(`{"even": "json"}`))
}

func TestTextRenderEscapes(t *testing.T) {
	v := views.NewTextView()

	out, err := v.Render(`<script>alert("x")</script> & more`, types.DefaultTheme())
	require.NoError(t, err)

	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "&amp; more")
	assert.NotContains(t, out, "<script>")
}

func TestTextStylesUseTheme(t *testing.T) {
	v := views.NewTextView()
	theme := types.DefaultTheme()
	theme.Foreground = "#123456"

	assert.Contains(t, v.Styles(theme), "#123456")
}
