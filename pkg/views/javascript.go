package views

import (
	"regexp"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

const (
	JavaScriptViewName     = "javascript"
	JavaScriptViewPriority = 10
)

var (
	jsFunction = regexp.MustCompile(`\bfunction\b\s*\w*\s*\(`)
	jsArrow    = regexp.MustCompile(`=>`)
	jsDecl     = regexp.MustCompile(`(?m)^\s*(const|let|var)\s+\w+`)
	jsConsole  = regexp.MustCompile(`\bconsole\.\w+\(`)
	jsStrictEq = regexp.MustCompile(`===|!==`)
	jsModule   = regexp.MustCompile(`(?m)^\s*(import\s.+\sfrom\s|module\.exports|require\()`)
)

// JavaScriptView highlights JavaScript source.
type JavaScriptView struct{}

// NewJavaScriptView creates the JavaScript code view.
func NewJavaScriptView() *JavaScriptView {
	return &JavaScriptView{}
}

// Name returns the unique name of this view.
func (v *JavaScriptView) Name() string {
	return JavaScriptViewName
}

// DisplayName returns the label shown in view selectors.
func (v *JavaScriptView) DisplayName() string {
	return "JavaScript"
}

// Priority returns the detection tie-break priority.
func (v *JavaScriptView) Priority() int {
	return JavaScriptViewPriority
}

// Detect sums weighted JavaScript hints.
func (v *JavaScriptView) Detect(content string) int {
	score := 0
	score += scoreMatches(jsFunction, content, 3, 12)
	score += scoreMatches(jsArrow, content, 2, 10)
	score += scoreMatches(jsDecl, content, 2, 10)
	score += scoreMatches(jsConsole, content, 2, 6)
	score += scoreMatches(jsStrictEq, content, 2, 6)
	score += scoreMatches(jsModule, content, 3, 9)
	return clampScore(score, 90)
}

// Render highlights the source with the JavaScript lexer.
func (v *JavaScriptView) Render(content string, _ types.Theme) (string, error) {
	return renderCode(content, "javascript")
}

// Styles returns the shared code stylesheet.
func (v *JavaScriptView) Styles(_ types.Theme) string {
	return codeCSS()
}
