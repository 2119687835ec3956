package views

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

const (
	SVGViewName     = "svg"
	SVGViewPriority = 10
)

// SVGView embeds an SVG document in a centered wrapper. The document
// displays inside the sandboxed surface, so it passes through without
// sanitization.
type SVGView struct{}

// NewSVGView creates the SVG view.
func NewSVGView() *SVGView {
	return &SVGView{}
}

// Name returns the unique name of this view.
func (v *SVGView) Name() string {
	return SVGViewName
}

// DisplayName returns the label shown in view selectors.
func (v *SVGView) DisplayName() string {
	return "SVG"
}

// Priority returns the detection tie-break priority.
func (v *SVGView) Priority() int {
	return SVGViewPriority
}

// Detect parses the document and scores a signature match when the
// root element is svg. Anything short of a real parse scores zero;
// "<svg" inside prose is not a vector image.
func (v *SVGView) Detect(content string) int {
	if svgRoot(content) != nil {
		return 100
	}
	return 0
}

// Render wraps the document for centered display.
func (v *SVGView) Render(content string, _ types.Theme) (string, error) {
	root := svgRoot(content)
	if root == nil {
		return "", errors.New(errors.ErrRenderFailed, "content is not an SVG document")
	}
	return fmt.Sprintf(`<div class="svg-view">%s</div>`, strings.TrimSpace(content)), nil
}

// Styles returns the wrapper styling.
func (v *SVGView) Styles(theme types.Theme) string {
	return fmt.Sprintf(`.svg-view {
  display: flex;
  justify-content: center;
  align-items: center;
  min-height: 100%%;
  padding: 16px;
  box-sizing: border-box;
}
.svg-view svg {
  max-width: 100%%;
  max-height: 90vh;
  background: %s;
  border-radius: 4px;
}`, theme.Surface)
}

// svgRoot parses content and returns the root element when it is an
// svg tag, nil otherwise. The quick prefix check keeps the XML parser
// off obviously unrelated content.
func svgRoot(content string) *etree.Element {
	trimmed := strings.TrimSpace(content)
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "<svg") && !strings.HasPrefix(lower, "<?xml") && !strings.HasPrefix(lower, "<!doctype svg") {
		return nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(trimmed); err != nil {
		return nil
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return nil
	}
	return root
}
