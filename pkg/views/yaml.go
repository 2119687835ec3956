package views

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

const (
	YAMLViewName     = "yaml"
	YAMLViewPriority = 10
)

var (
	yamlKeyLine  = regexp.MustCompile(`(?m)^\s*[\w."'/-]+\s*:(\s|$)`)
	yamlListLine = regexp.MustCompile(`(?m)^\s*- \S`)
	yamlDocSep   = regexp.MustCompile(`(?m)^---\s*$`)
)

// YAMLView renders YAML documents as a colorized tree. JSON input is
// deliberately not claimed even though YAML is a superset; the JSON
// view owns it.
type YAMLView struct{}

// NewYAMLView creates the YAML view.
func NewYAMLView() *YAMLView {
	return &YAMLView{}
}

// Name returns the unique name of this view.
func (v *YAMLView) Name() string {
	return YAMLViewName
}

// DisplayName returns the label shown in view selectors.
func (v *YAMLView) DisplayName() string {
	return "YAML"
}

// Priority returns the detection tie-break priority.
func (v *YAMLView) Priority() int {
	return YAMLViewPriority
}

// Detect requires a successful parse plus structural hints. A bare
// scalar parse means any prose would match, so it scores zero.
func (v *YAMLView) Detect(content string) int {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || json.Valid([]byte(trimmed)) {
		return 0
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return 0
	}
	if root := yamlRoot(&doc); root == nil || root.Kind == yaml.ScalarNode {
		return 0
	}

	score := 0
	score += scoreMatches(yamlKeyLine, content, 2, 40)
	score += scoreMatches(yamlListLine, content, 1, 10)
	score += scoreMatches(yamlDocSep, content, 3, 6)
	if score == 0 {
		return 0
	}
	return clampScore(score, 90)
}

// Render parses the document and emits the colorized tree.
func (v *YAMLView) Render(content string, _ types.Theme) (string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return "", errors.Wrap(err, errors.ErrRenderFailed, "malformed YAML document")
	}
	root := yamlRoot(&doc)
	if root == nil {
		return `<pre class="yaml-view"></pre>`, nil
	}

	var sb strings.Builder
	sb.WriteString(`<pre class="yaml-view">`)
	renderYAMLNode(&sb, root, 0, false)
	sb.WriteString(`</pre>`)
	return sb.String(), nil
}

// Styles returns the tree styling.
func (v *YAMLView) Styles(theme types.Theme) string {
	return fmt.Sprintf(`.yaml-view {
  margin: 0;
  padding: 12px;
  font-family: ui-monospace, "Cascadia Code", Menlo, monospace;
  font-size: 13px;
  line-height: 1.5;
  color: %s;
}
.yaml-view .yaml-key { color: %s; }
.yaml-view .yaml-string { color: #6a9955; }
.yaml-view .yaml-number { color: #b5cea8; }
.yaml-view .yaml-bool { color: #569cd6; }
.yaml-view .yaml-null { color: %s; font-style: italic; }
.yaml-view .yaml-dash { color: %s; }`,
		theme.Foreground, theme.Accent, theme.Muted, theme.Muted)
}

// yamlRoot unwraps the document node.
func yamlRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	if doc.Kind == 0 {
		return nil
	}
	return doc
}

// renderYAMLNode writes one node at the given indent depth. inline is
// true when the caller already wrote the line prefix (a key or dash).
func renderYAMLNode(sb *strings.Builder, n *yaml.Node, depth int, inline bool) {
	pad := strings.Repeat("  ", depth)

	switch n.Kind {
	case yaml.MappingNode:
		if inline {
			sb.WriteString("\n")
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			fmt.Fprintf(sb, `%s<span class="yaml-key">%s</span>: `, pad, escape(key.Value))
			if val.Kind == yaml.ScalarNode || val.Kind == yaml.AliasNode {
				writeYAMLScalar(sb, val)
				sb.WriteString("\n")
			} else {
				renderYAMLNode(sb, val, depth+1, true)
			}
		}
	case yaml.SequenceNode:
		if inline {
			sb.WriteString("\n")
		}
		for _, item := range n.Content {
			fmt.Fprintf(sb, `%s<span class="yaml-dash">-</span> `, pad)
			if item.Kind == yaml.ScalarNode || item.Kind == yaml.AliasNode {
				writeYAMLScalar(sb, item)
				sb.WriteString("\n")
			} else {
				renderYAMLNode(sb, item, depth+1, true)
			}
		}
	default:
		writeYAMLScalar(sb, n)
		sb.WriteString("\n")
	}
}

// writeYAMLScalar writes a scalar with a class chosen from its tag.
func writeYAMLScalar(sb *strings.Builder, n *yaml.Node) {
	if n.Kind == yaml.AliasNode {
		fmt.Fprintf(sb, `<span class="yaml-null">*%s</span>`, escape(n.Value))
		return
	}

	class := "yaml-string"
	switch n.Tag {
	case "!!int", "!!float":
		class = "yaml-number"
	case "!!bool":
		class = "yaml-bool"
	case "!!null":
		class = "yaml-null"
	}

	value := n.Value
	if n.Tag == "!!null" && value == "" {
		value = "null"
	}
	fmt.Fprintf(sb, `<span class="%s">%s</span>`, class, escape(value))
}
