package views

import (
	"regexp"
	"strings"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

const (
	PythonViewName     = "python"
	PythonViewPriority = 10
)

var (
	pyDef       = regexp.MustCompile(`(?m)^\s*def \w+\s*\(`)
	pyClass     = regexp.MustCompile(`(?m)^\s*class \w+[(:\s]`)
	pyImport    = regexp.MustCompile(`(?m)^\s*(from\s+[\w.]+\s+import\s|import\s+[\w.]+(\s*,\s*[\w.]+)*\s*$)`)
	pyDecorator = regexp.MustCompile(`(?m)^\s*@\w+`)
	pySelf      = regexp.MustCompile(`\bself\.`)
	pyDunder    = regexp.MustCompile(`__\w+__`)
)

// PythonView highlights Python source.
type PythonView struct{}

// NewPythonView creates the Python code view.
func NewPythonView() *PythonView {
	return &PythonView{}
}

// Name returns the unique name of this view.
func (v *PythonView) Name() string {
	return PythonViewName
}

// DisplayName returns the label shown in view selectors.
func (v *PythonView) DisplayName() string {
	return "Python"
}

// Priority returns the detection tie-break priority.
func (v *PythonView) Priority() int {
	return PythonViewPriority
}

// Detect sums weighted Python hints. The import pattern requires the
// module list to end the line so JavaScript import-from syntax stays
// out.
func (v *PythonView) Detect(content string) int {
	score := 0
	score += scoreMatches(pyDef, content, 3, 15)
	score += scoreMatches(pyClass, content, 3, 9)
	score += scoreMatches(pyImport, content, 3, 12)
	score += scoreMatches(pyDecorator, content, 2, 6)
	score += scoreMatches(pySelf, content, 2, 10)
	score += scoreMatches(pyDunder, content, 2, 6)
	if strings.Contains(content, "print(") {
		score++
	}
	return clampScore(score, 90)
}

// Render highlights the source with the Python lexer.
func (v *PythonView) Render(content string, _ types.Theme) (string, error) {
	return renderCode(content, "python")
}

// Styles returns the shared code stylesheet.
func (v *PythonView) Styles(_ types.Theme) string {
	return codeCSS()
}
