package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

// SandboxAttributes is the fixed attribute value the host must place on
// the surface element holding a composed document. It is a single
// contract, not a per-view setting: scripts run, everything else stays
// off.
const SandboxAttributes = "allow-scripts"

// Document is one composed, isolated renderable document. Scripts are
// kept apart from the markup so a live surface can receive them after
// it reports ready instead of racing its own load.
type Document struct {
	// HTML is the complete document without script blocks.
	HTML string

	// Scripts is the script markup to post into the surface once it is
	// ready. Empty when the active view declares none.
	Scripts string
}

// Standalone returns the document with scripts inlined before the body
// closes, for consumers without a live surface (CLI, export, HTTP).
func (d Document) Standalone() string {
	if d.Scripts == "" {
		return d.HTML
	}
	idx := strings.LastIndex(d.HTML, "</body>")
	if idx < 0 {
		return d.HTML + d.Scripts
	}
	return d.HTML[:idx] + d.Scripts + d.HTML[idx:]
}

// srcdocEscaper escapes a document for an HTML attribute value.
var srcdocEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;")

// Embed wraps the standalone document in an iframe carrying the sandbox
// contract, for hosts that place documents into a page themselves.
func (d Document) Embed() string {
	return fmt.Sprintf(`<iframe sandbox=%q srcdoc="%s" style="border: 0; width: 100%%; height: 100%%;"></iframe>`,
		SandboxAttributes, srcdocEscaper.Replace(d.Standalone()))
}

// composeDocument builds the full document around a rendered fragment.
// Style blocks are emitted in order after the theme variables and,
// unless the view opted out, the shared base stylesheet.
func composeDocument(theme types.Theme, includeBase bool, styles []string, fragment string, scripts []string) Document {
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")

	sb.WriteString("<style>\n")
	sb.WriteString(themeVariables(theme))
	if includeBase {
		sb.WriteString(baseStyles())
	}
	sb.WriteString("</style>\n")

	for _, css := range styles {
		if strings.TrimSpace(css) == "" {
			continue
		}
		sb.WriteString("<style>\n")
		sb.WriteString(css)
		sb.WriteString("\n</style>\n")
	}

	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(fragment)
	sb.WriteString("\n</body>\n</html>\n")

	var script strings.Builder
	for _, js := range scripts {
		if strings.TrimSpace(js) == "" {
			continue
		}
		script.WriteString(js)
		script.WriteString("\n")
	}

	return Document{HTML: sb.String(), Scripts: script.String()}
}

// themeVariables exposes the palette as CSS custom properties so view
// styles and the base stylesheet share one source of truth.
func themeVariables(theme types.Theme) string {
	var sb strings.Builder
	sb.WriteString(":root {\n")
	fmt.Fprintf(&sb, "  --viewer-bg: %s;\n", theme.Background)
	fmt.Fprintf(&sb, "  --viewer-fg: %s;\n", theme.Foreground)
	fmt.Fprintf(&sb, "  --viewer-surface: %s;\n", theme.Surface)
	fmt.Fprintf(&sb, "  --viewer-border: %s;\n", theme.Border)
	fmt.Fprintf(&sb, "  --viewer-accent: %s;\n", theme.Accent)
	fmt.Fprintf(&sb, "  --viewer-muted: %s;\n", theme.Muted)

	keys := make([]string, 0, len(theme.Extra))
	for k := range theme.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "  --viewer-%s: %s;\n", k, theme.Extra[k])
	}

	sb.WriteString("}\n")
	return sb.String()
}

// baseStyles is the shared stylesheet injected for every view that does
// not declare its own complete treatment.
func baseStyles() string {
	return `* { box-sizing: border-box; }
html, body {
  margin: 0;
  padding: 0;
  background: var(--viewer-bg);
  color: var(--viewer-fg);
  font-family: -apple-system, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
  font-size: 14px;
  line-height: 1.5;
}
pre, code, kbd, samp {
  font-family: "SF Mono", Consolas, "Liberation Mono", Menlo, monospace;
  font-size: 13px;
}
a { color: var(--viewer-accent); }
::selection { background: var(--viewer-accent); color: var(--viewer-bg); }
::-webkit-scrollbar { width: 10px; height: 10px; }
::-webkit-scrollbar-track { background: var(--viewer-bg); }
::-webkit-scrollbar-thumb { background: var(--viewer-border); border-radius: 5px; }
.render-error {
  margin: 12px;
  padding: 10px 12px;
  border: 1px solid var(--viewer-border);
  border-left: 3px solid #d65a5a;
  border-radius: 4px;
  color: var(--viewer-muted);
}
.render-error .render-error-view { color: var(--viewer-fg); font-weight: bold; }
`
}
