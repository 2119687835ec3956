package views

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

const (
	JSONViewName     = "json"
	JSONViewPriority = 10
)

// JSONView renders JSON documents as a collapsible tree. Key order is
// preserved by parsing the token stream instead of decoding into maps.
type JSONView struct{}

// NewJSONView creates the JSON tree view.
func NewJSONView() *JSONView {
	return &JSONView{}
}

// Name returns the unique name of this view.
func (v *JSONView) Name() string {
	return JSONViewName
}

// DisplayName returns the label shown in view selectors.
func (v *JSONView) DisplayName() string {
	return "JSON"
}

// Priority returns the detection tie-break priority.
func (v *JSONView) Priority() int {
	return JSONViewPriority
}

// Detect gives a full parse of a brace- or bracket-led document the
// decisive score. Documents that only look JSON-shaped get a weak
// hint so near-misses still show up on the scoreboard.
func (v *JSONView) Detect(content string) int {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return 0
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return 0
	}
	if json.Valid([]byte(trimmed)) {
		return 100
	}

	score := 2
	if strings.Contains(trimmed, `":`) {
		score++
	}
	return score
}

// Render parses the document and emits the collapsible tree.
func (v *JSONView) Render(content string, _ types.Theme) (string, error) {
	root, err := parseJSONTree(strings.TrimSpace(content))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(`<div class="json-view">`)
	renderJSONNode(&sb, root)
	sb.WriteString(`</div>`)
	return sb.String(), nil
}

// Styles returns the tree styling.
func (v *JSONView) Styles(theme types.Theme) string {
	return fmt.Sprintf(`.json-view {
  padding: 12px;
  font-family: ui-monospace, "Cascadia Code", Menlo, monospace;
  font-size: 13px;
  line-height: 1.5;
}
.json-view details { padding-left: 1.2em; }
.json-view summary { cursor: pointer; list-style-position: outside; }
.json-view .json-leaf { padding-left: 1.2em; }
.json-view .json-key { color: %s; }
.json-view .json-string { color: #6a9955; }
.json-view .json-number { color: #b5cea8; }
.json-view .json-bool { color: #569cd6; }
.json-view .json-null { color: %s; font-style: italic; }
.json-view .json-meta { color: %s; }`,
		theme.Accent, theme.Muted, theme.Muted)
}

// jsonNode is one parsed value. kind is one of object, array, string,
// number, bool or null.
type jsonNode struct {
	key      string
	kind     string
	scalar   string
	children []*jsonNode
}

// parseJSONTree parses content into an ordered tree and rejects
// trailing garbage.
func parseJSONTree(content string) (*jsonNode, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()

	root, err := parseJSONValue(dec)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRenderFailed, "malformed JSON document")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New(errors.ErrRenderFailed, "trailing data after JSON document")
	}
	return root, nil
}

func parseJSONValue(dec *json.Decoder) (*jsonNode, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			n := &jsonNode{kind: "object"}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				child, err := parseJSONValue(dec)
				if err != nil {
					return nil, err
				}
				child.key = key
				n.children = append(n.children, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		case '[':
			n := &jsonNode{kind: "array"}
			for dec.More() {
				child, err := parseJSONValue(dec)
				if err != nil {
					return nil, err
				}
				n.children = append(n.children, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return &jsonNode{kind: "string", scalar: t}, nil
	case json.Number:
		return &jsonNode{kind: "number", scalar: t.String()}, nil
	case bool:
		return &jsonNode{kind: "bool", scalar: fmt.Sprintf("%t", t)}, nil
	case nil:
		return &jsonNode{kind: "null", scalar: "null"}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// renderJSONNode writes one node. Containers become <details> blocks
// that start open; scalars become single lines. Keys ride along in
// data-key so the surface can address nodes.
func renderJSONNode(sb *strings.Builder, n *jsonNode) {
	label := ""
	if n.key != "" {
		label = fmt.Sprintf(`<span class="json-key">&quot;%s&quot;</span>: `, escape(n.key))
	}

	switch n.kind {
	case "object", "array":
		opener, closer, unit := "{", "}", "keys"
		if n.kind == "array" {
			opener, closer, unit = "[", "]", "items"
		}
		fmt.Fprintf(sb, `<details open class="json-node" data-key="%s">`, escape(n.key))
		fmt.Fprintf(sb, `<summary>%s%s <span class="json-meta">%d %s</span> %s</summary>`,
			label, opener, len(n.children), unit, closer)
		sb.WriteString(`<div class="json-children">`)
		for _, child := range n.children {
			renderJSONNode(sb, child)
		}
		sb.WriteString(`</div></details>`)
	case "string":
		fmt.Fprintf(sb, `<div class="json-leaf" data-key="%s">%s<span class="json-string">&quot;%s&quot;</span></div>`,
			escape(n.key), label, escape(n.scalar))
	default:
		fmt.Fprintf(sb, `<div class="json-leaf" data-key="%s">%s<span class="json-%s">%s</span></div>`,
			escape(n.key), label, n.kind, escape(n.scalar))
	}
}
