package views

import (
	"fmt"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

const (
	TextViewName     = "text"
	TextViewPriority = 1 // Lowest priority, catches what nothing else claims
)

// TextView renders any content as escaped preformatted text. It is the
// detection fallback: its score of one on every input guarantees some
// view always wins.
type TextView struct{}

// NewTextView creates the plain text fallback view.
func NewTextView() *TextView {
	return &TextView{}
}

// Name returns the unique name of this view.
func (v *TextView) Name() string {
	return TextViewName
}

// DisplayName returns the label shown in view selectors.
func (v *TextView) DisplayName() string {
	return "Text"
}

// Priority returns the detection tie-break priority.
func (v *TextView) Priority() int {
	return TextViewPriority
}

// Detect scores every input one so text always remains available.
func (v *TextView) Detect(content string) int {
	return 1
}

// Render escapes the content into a preformatted block.
func (v *TextView) Render(content string, _ types.Theme) (string, error) {
	return fmt.Sprintf(`<pre class="text-view">%s</pre>`, escape(content)), nil
}

// Styles returns the text block styling.
func (v *TextView) Styles(theme types.Theme) string {
	return fmt.Sprintf(`.text-view {
  margin: 0;
  padding: 12px;
  white-space: pre-wrap;
  word-break: break-word;
  font-family: ui-monospace, "Cascadia Code", Menlo, monospace;
  font-size: 13px;
  line-height: 1.5;
  color: %s;
}`, theme.Foreground)
}
