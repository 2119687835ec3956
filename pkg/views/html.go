package views

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

const (
	HTMLViewName     = "html"
	HTMLViewPriority = 10
)

// htmlCommonTags are the elements counted by the density heuristic.
var htmlCommonTags = map[string]bool{
	"div": true, "span": true, "p": true, "a": true, "ul": true,
	"ol": true, "li": true, "table": true, "tr": true, "td": true,
	"th": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "img": true, "br": true, "hr": true,
	"section": true, "article": true, "header": true, "footer": true,
	"nav": true, "form": true, "input": true, "button": true,
	"strong": true, "em": true, "pre": true, "code": true,
	"blockquote": true,
}

// HTMLView renders HTML fragments after sanitization. Scripts, event
// handlers and styles are stripped; the survivors display inside the
// sandboxed surface.
type HTMLView struct {
	policy *bluemonday.Policy
}

// NewHTMLView creates the sanitizing HTML view.
func NewHTMLView() *HTMLView {
	return &HTMLView{
		policy: bluemonday.UGCPolicy(),
	}
}

// Name returns the unique name of this view.
func (v *HTMLView) Name() string {
	return HTMLViewName
}

// DisplayName returns the label shown in view selectors.
func (v *HTMLView) DisplayName() string {
	return "HTML"
}

// Priority returns the detection tie-break priority.
func (v *HTMLView) Priority() int {
	return HTMLViewPriority
}

// Detect scores document signatures just below the decisive parses so
// an SVG document keeps beating an HTML wrapper around it. Fragments
// without a signature are scored by tag density from a real tokenizer,
// requiring at least two known elements.
func (v *HTMLView) Detect(content string) int {
	lower := strings.ToLower(strings.TrimSpace(content))
	if lower == "" {
		return 0
	}
	if strings.HasPrefix(lower, "<!doctype html") ||
		strings.Contains(lower, "<html") ||
		strings.Contains(lower, "<body") ||
		strings.Contains(lower, "<head>") {
		return 95
	}

	total, distinct := countHTMLTags(content)
	if total < 2 || distinct < 2 {
		return 0
	}
	return clampScore(2*total, 40)
}

// Render sanitizes the fragment and wraps it.
func (v *HTMLView) Render(content string, _ types.Theme) (string, error) {
	return fmt.Sprintf(`<div class="html-view">%s</div>`, v.policy.Sanitize(content)), nil
}

// Styles returns baseline typography for sanitized fragments.
func (v *HTMLView) Styles(theme types.Theme) string {
	return fmt.Sprintf(`.html-view {
  padding: 16px;
  line-height: 1.6;
  color: %s;
}
.html-view a { color: %s; }
.html-view table { border-collapse: collapse; }
.html-view th, .html-view td {
  border: 1px solid %s;
  padding: 6px 12px;
}
.html-view img { max-width: 100%%; }
.html-view pre {
  background: %s;
  padding: 12px;
  border-radius: 6px;
  overflow-x: auto;
}`, theme.Foreground, theme.Accent, theme.Border, theme.Surface)
}

// countHTMLTags tokenizes content and counts known elements.
func countHTMLTags(content string) (total, distinct int) {
	z := xhtml.NewTokenizer(strings.NewReader(content))
	seen := make(map[string]bool)

	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		if tt != xhtml.StartTagToken && tt != xhtml.SelfClosingTagToken {
			continue
		}
		name, _ := z.TagName()
		tag := string(name)
		if !htmlCommonTags[tag] {
			continue
		}
		total++
		if !seen[tag] {
			seen[tag] = true
			distinct++
		}
	}
	return total, distinct
}
