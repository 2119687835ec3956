package export_test

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/export"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/views"
)

// exportPNG is a 2x3 pixel PNG, base64 encoded.
const exportPNG = "iVBORw0KGgoAAAANSUhEUgAAAAIAAAADCAYAAAC56t6BAAAAEUlEQVR4nGP4z8DwH4QZMBgAoXkL9U3EmgcAAAAASUVORK5CYII="

func TestPlanSingleFile(t *testing.T) {
	reg, err := views.NewDefaultRegistry()
	require.NoError(t, err)

	tests := []struct {
		name     string
		content  string
		wantName string
		wantData string
	}{
		{
			name:     "markdown",
			content:  "# Title\n\nbody",
			wantName: "content.md",
			wantData: "# Title\n\nbody",
		},
		{
			name:     "json",
			content:  `{"a": 1}`,
			wantName: "content.json",
			wantData: `{"a": 1}`,
		},
		{
			name:     "python",
			content:  "def main():\n    import os\n    print(os.name)",
			wantName: "content.py",
			wantData: "def main():\n    import os\n    print(os.name)",
		},
		{
			name:     "plain text",
			content:  "just words",
			wantName: "content.txt",
			wantData: "just words",
		},
		{
			name:     "svg",
			content:  `<svg xmlns="http://www.w3.org/2000/svg"><circle r="4"/></svg>`,
			wantName: "content.svg",
			wantData: `<svg xmlns="http://www.w3.org/2000/svg"><circle r="4"/></svg>`,
		},
		{
			name:     "object envelope stripped to payload",
			content:  "$WAS_OBJECT$\n" + `{"type":"object_viewer","objects":[],"count":0}`,
			wantName: "content.json",
			wantData: `{"type":"object_viewer","objects":[],"count":0}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := export.Plan(tt.content, reg)
			require.NoError(t, err)
			require.Len(t, files, 1)
			assert.Equal(t, tt.wantName, files[0].Name)
			assert.Equal(t, tt.wantData, string(files[0].Data))
		})
	}
}

func TestPlanStripsEscapeSequences(t *testing.T) {
	reg, err := views.NewDefaultRegistry()
	require.NoError(t, err)

	files, err := export.Plan("\x1b[31mred\x1b[0m plain", reg)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "content.txt", files[0].Name)
	assert.Equal(t, "red plain", string(files[0].Data))
}

func TestPlanCanvasComposite(t *testing.T) {
	reg, err := views.NewDefaultRegistry()
	require.NoError(t, err)

	files, err := export.Plan("$WAS_CANVAS_OUTPUT$\n"+exportPNG, reg)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "content.png", files[0].Name)
	// PNG magic bytes prove the base64 was decoded.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, files[0].Data[:4])
}

func TestPlanCanvasEnvelopeWithoutComposite(t *testing.T) {
	reg, err := views.NewDefaultRegistry()
	require.NoError(t, err)

	payload := `{"type":"canvas_composer","images":[],"count":0,"session_id":"s"}`
	files, err := export.Plan("$WAS_CANVAS$\n"+payload, reg)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "content.json", files[0].Name)
	assert.Equal(t, payload, string(files[0].Data))
}

func TestPlanMultiviewExportsDefaultEntry(t *testing.T) {
	reg, err := views.NewDefaultRegistry()
	require.NoError(t, err)

	content := "$WAS_MULTIVIEW$\n" + `{"type":"multiview","default_view":"json",` +
		`"views":[{"name":"markdown","priority":10,"display_content":"# md","content_hash":"h"},` +
		`{"name":"json","priority":10,"display_content":"{\"k\":true}","content_hash":"h"}]}`

	files, err := export.Plan(content, reg)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "content.json", files[0].Name)
	assert.Equal(t, `{"k":true}`, string(files[0].Data))
}

func TestPlanListZeroPaddedNames(t *testing.T) {
	reg, err := views.NewDefaultRegistry()
	require.NoError(t, err)

	content := "# Doc\n---LIST_SEPARATOR---\n{\"a\":1}\n---LIST_SEPARATOR---\nplain"
	files, err := export.Plan(content, reg)
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "item_000.md", files[0].Name)
	assert.Equal(t, "item_001.json", files[1].Name)
	assert.Equal(t, "item_002.txt", files[2].Name)

	assert.Equal(t, "# Doc", string(files[0].Data))
	assert.Equal(t, `{"a":1}`, string(files[1].Data))
	assert.Equal(t, "plain", string(files[2].Data))
}

func TestArchiveRoundTrip(t *testing.T) {
	files := []export.File{
		{Name: "item_000.md", Ext: "md", Data: []byte("# One")},
		{Name: "item_001.txt", Ext: "txt", Data: []byte("two")},
	}

	var buf bytes.Buffer
	require.NoError(t, export.Archive(&buf, files))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	assert.Equal(t, "item_000.md", zr.File[0].Name)
	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "# One", string(data))

	assert.Equal(t, "item_001.txt", zr.File[1].Name)
}
