package views

import (
	"regexp"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

const (
	CSSViewName     = "css"
	CSSViewPriority = 10
)

var (
	cssBlock       = regexp.MustCompile(`\{[^{}]*\}`)
	cssDeclaration = regexp.MustCompile(`[\w-]+\s*:\s*[^;{}]+;`)
	cssAtRule      = regexp.MustCompile(`@(media|import|keyframes|font-face|supports)\b`)
)

// CSSView highlights stylesheets.
type CSSView struct{}

// NewCSSView creates the CSS code view.
func NewCSSView() *CSSView {
	return &CSSView{}
}

// Name returns the unique name of this view.
func (v *CSSView) Name() string {
	return CSSViewName
}

// DisplayName returns the label shown in view selectors.
func (v *CSSView) DisplayName() string {
	return "CSS"
}

// Priority returns the detection tie-break priority.
func (v *CSSView) Priority() int {
	return CSSViewPriority
}

// Detect needs at least one rule block containing a terminated
// declaration; braces alone describe half the languages in existence.
func (v *CSSView) Detect(content string) int {
	blocks := scoreMatches(cssBlock, content, 3, 24)
	decls := scoreMatches(cssDeclaration, content, 1, 20)
	if blocks == 0 || decls == 0 {
		return 0
	}
	score := blocks + decls + scoreMatches(cssAtRule, content, 3, 9)
	return clampScore(score, 90)
}

// Render highlights the source with the CSS lexer.
func (v *CSSView) Render(content string, _ types.Theme) (string, error) {
	return renderCode(content, "css")
}

// Styles returns the shared code stylesheet.
func (v *CSSView) Styles(_ types.Theme) string {
	return codeCSS()
}
