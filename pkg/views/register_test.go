package views_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/detect"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/views"
)

func TestManifestOrder(t *testing.T) {
	var names []string
	for _, v := range views.Manifest() {
		names = append(names, v.Name())
	}

	assert.Equal(t, []string{
		"canvas", "html", "svg", "markdown", "json", "csv", "yaml",
		"ansi", "python", "javascript", "css", "object", "text",
	}, names)
}

func TestNewDefaultRegistry(t *testing.T) {
	reg, err := views.NewDefaultRegistry()
	require.NoError(t, err)

	assert.Equal(t, 13, reg.Count())
	assert.True(t, reg.Has("text"))

	canvas, err := reg.Get("canvas")
	require.NoError(t, err)
	assert.Equal(t, "$WAS_CANVAS$", canvas.Marker)
	assert.True(t, canvas.Interactive)

	object, err := reg.Get("object")
	require.NoError(t, err)
	assert.Equal(t, "$WAS_OBJECT$", object.Marker)

	markdown, err := reg.Get("markdown")
	require.NoError(t, err)
	assert.Equal(t, []string{"highlight", "mermaid", "katex"}, markdown.Dependencies)
}

func TestNewRegistryFor(t *testing.T) {
	reg, err := views.NewRegistryFor([]string{"markdown", "json", "text"})
	require.NoError(t, err)

	assert.Equal(t, 3, reg.Count())
	assert.True(t, reg.Has("markdown"))
	assert.False(t, reg.Has("canvas"))
}

func TestNewRegistryForEmptyIsDefault(t *testing.T) {
	reg, err := views.NewRegistryFor(nil)
	require.NoError(t, err)
	assert.Equal(t, 13, reg.Count())
}

func TestNewRegistryForUnknownView(t *testing.T) {
	_, err := views.NewRegistryFor([]string{"markdown", "hologram"})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrViewNotFound))
	assert.Contains(t, err.Error(), "hologram")
}

// TestDetectionScenarios runs representative content through the full
// production registry and checks which view claims it.
func TestDetectionScenarios(t *testing.T) {
	reg, err := views.NewDefaultRegistry()
	require.NoError(t, err)
	engine := detect.New(reg)

	tests := []struct {
		name     string
		content  string
		wantView string
	}{
		{
			name:     "json object",
			content:  `{"a": 1}`,
			wantView: "json",
		},
		{
			name:     "markdown document",
			content:  "# Title\n\n- item",
			wantView: "markdown",
		},
		{
			name:     "svg image",
			content:  `<svg xmlns="http://www.w3.org/2000/svg"><circle cx="5" cy="5" r="4"/></svg>`,
			wantView: "svg",
		},
		{
			name:     "ansi colored output",
			content:  "\x1b[31mred\x1b[0m",
			wantView: "ansi",
		},
		{
			name:     "yaml mapping",
			content:  "name: demo\nversion: 2\nitems:\n  - one\n  - two",
			wantView: "yaml",
		},
		{
			name:     "csv table",
			content:  "name,age,city\nalice,30,berlin\nbob,25,tokyo",
			wantView: "csv",
		},
		{
			name:     "html fragment",
			content:  `<div><p>hello</p><ul><li>a</li></ul></div>`,
			wantView: "html",
		},
		{
			name:     "html document",
			content:  "<!DOCTYPE html><html><body>hi</body></html>",
			wantView: "html",
		},
		{
			name:     "python source",
			content:  "import os\n\ndef main():\n    print(os.getcwd())\n",
			wantView: "python",
		},
		{
			name:     "javascript source",
			content:  "const add = (a, b) => a + b;\nconsole.log(add(1, 2));\n",
			wantView: "javascript",
		},
		{
			name:     "css stylesheet",
			content:  "body { color: red; }\n.card { padding: 4px; margin: 0; }",
			wantView: "css",
		},
		{
			name:     "plain prose",
			content:  "Just a sentence about nothing in particular.",
			wantView: "text",
		},
		{
			name:     "object envelope via marker",
			content:  "$WAS_OBJECT$\n{\"type\":\"object_viewer\",\"objects\":[],\"count\":0}",
			wantView: "object",
		},
		{
			name:     "canvas envelope via marker",
			content:  "$WAS_CANVAS$\n{\"type\":\"canvas_composer\",\"images\":[],\"count\":0,\"session_id\":\"s\"}",
			wantView: "canvas",
		},
		{
			name:     "canvas output payload",
			content:  "$WAS_CANVAS_OUTPUT$\ndata:image/png;base64,AAAA",
			wantView: "canvas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Best(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.wantView, got.View.Name(),
				"content %q went to %s", tt.content, got.View.Name())
		})
	}
}

// TestRenderAllScenarios makes sure every production view renders its
// own detected content without error.
func TestRenderAllScenarios(t *testing.T) {
	reg, err := views.NewDefaultRegistry()
	require.NoError(t, err)
	theme := types.DefaultTheme()

	contents := map[string]string{
		"json":       `{"a": 1, "b": [true, null]}`,
		"markdown":   "# Title\n\nSome *emphasis* here.",
		"svg":        `<svg xmlns="http://www.w3.org/2000/svg"></svg>`,
		"ansi":       "\x1b[32mok\x1b[0m",
		"yaml":       "name: demo\ncount: 3",
		"csv":        "a,b\n1,2",
		"html":       "<p>hello <strong>world</strong></p>",
		"python":     "def f():\n    return 1\n",
		"javascript": "const x = 1;\n",
		"css":        "body { margin: 0; }",
		"object":     "$WAS_OBJECT$\n{\"type\":\"object_viewer\",\"objects\":[],\"count\":0}",
		"canvas":     "$WAS_CANVAS$\n{\"type\":\"canvas_composer\",\"images\":[],\"count\":0}",
		"text":       "plain",
	}

	for name, content := range contents {
		t.Run(name, func(t *testing.T) {
			d, err := reg.Get(name)
			require.NoError(t, err)

			out, err := d.View.Render(content, theme)
			require.NoError(t, err)
			assert.NotEmpty(t, out)
		})
	}
}
