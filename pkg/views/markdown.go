package views

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

const (
	MarkdownViewName     = "markdown"
	MarkdownViewPriority = 10
)

var (
	mdHeading    = regexp.MustCompile(`(?m)^#{1,6} `)
	mdListItem   = regexp.MustCompile(`(?m)^[-*+] `)
	mdLink       = regexp.MustCompile(`\[[^\]]+\]\([^)]+\)`)
	mdBold       = regexp.MustCompile(`\*\*[^*\n]+\*\*`)
	mdTableRow   = regexp.MustCompile(`(?m)^\|.*\|$`)
	mdTableRule  = regexp.MustCompile(`(?m)^\|[-:| ]+\|$`)
	mdBlockquote = regexp.MustCompile(`(?m)^> `)
)

// MarkdownView renders GitHub-flavored markdown through goldmark.
// Fenced code blocks keep their language classes so the highlight
// asset can colorize them in the surface.
type MarkdownView struct {
	md goldmark.Markdown
}

// NewMarkdownView creates the markdown view with tables,
// strikethrough, task lists, autolinks and emoji enabled.
func NewMarkdownView() *MarkdownView {
	return &MarkdownView{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, emoji.Emoji),
			goldmark.WithRendererOptions(ghtml.WithUnsafe()),
		),
	}
}

// Name returns the unique name of this view.
func (v *MarkdownView) Name() string {
	return MarkdownViewName
}

// DisplayName returns the label shown in view selectors.
func (v *MarkdownView) DisplayName() string {
	return "Markdown"
}

// Priority returns the detection tie-break priority.
func (v *MarkdownView) Priority() int {
	return MarkdownViewPriority
}

// Detect sums weighted markdown structure hints: headings, lists,
// fences, links, emphasis, tables and blockquotes.
func (v *MarkdownView) Detect(content string) int {
	score := 0
	score += scoreMatches(mdHeading, content, 3, 15)
	score += scoreMatches(mdListItem, content, 2, 10)
	score += scoreMatches(mdLink, content, 2, 10)
	score += scoreMatches(mdBold, content, 2, 6)
	score += scoreMatches(mdBlockquote, content, 2, 6)
	score += scoreMatches(mdTableRow, content, 2, 10)
	score += scoreMatches(mdTableRule, content, 3, 6)

	fences := bytes.Count([]byte(content), []byte("```"))
	if fences >= 2 {
		score += clampScore(3*(fences/2), 12)
	}

	return clampScore(score, 90)
}

// Render converts the markdown to HTML.
func (v *MarkdownView) Render(content string, _ types.Theme) (string, error) {
	var buf bytes.Buffer
	if err := v.md.Convert([]byte(content), &buf); err != nil {
		return "", errors.Wrap(err, errors.ErrRenderFailed, "markdown conversion failed")
	}
	return fmt.Sprintf(`<div class="markdown-view">%s</div>`, buf.String()), nil
}

// Styles returns typography for the rendered markdown.
func (v *MarkdownView) Styles(theme types.Theme) string {
	return fmt.Sprintf(`.markdown-view {
  padding: 16px;
  line-height: 1.6;
  color: %[1]s;
}
.markdown-view h1, .markdown-view h2 {
  border-bottom: 1px solid %[2]s;
  padding-bottom: 0.3em;
}
.markdown-view a { color: %[3]s; }
.markdown-view blockquote {
  margin: 0;
  padding: 0 1em;
  border-left: 4px solid %[2]s;
  color: %[4]s;
}
.markdown-view code {
  background: %[5]s;
  padding: 0.2em 0.4em;
  border-radius: 3px;
  font-size: 85%%;
}
.markdown-view pre {
  background: %[5]s;
  padding: 12px;
  border-radius: 6px;
  overflow-x: auto;
}
.markdown-view pre code { background: none; padding: 0; }
.markdown-view table { border-collapse: collapse; }
.markdown-view th, .markdown-view td {
  border: 1px solid %[2]s;
  padding: 6px 13px;
}
.markdown-view img { max-width: 100%%; }`,
		theme.Foreground, theme.Border, theme.Accent, theme.Muted, theme.Surface)
}

// Dependencies lists the surface assets markdown output can use:
// syntax highlighting for fences, mermaid for diagrams and katex for
// math blocks.
func (v *MarkdownView) Dependencies() []string {
	return []string{"highlight", "mermaid", "katex"}
}
