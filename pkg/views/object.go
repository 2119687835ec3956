package views

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

const (
	ObjectViewName     = "object"
	ObjectViewPriority = 5

	// objectEnvelopeType is the family discriminant in the payload.
	objectEnvelopeType = "object_viewer"
)

// objectEnvelope is the inspector wire payload.
type objectEnvelope struct {
	Type    string       `json:"type"`
	Objects []objectInfo `json:"objects"`
	Count   int          `json:"count"`
}

// objectInfo describes one inspected object.
type objectInfo struct {
	TypeName   string               `json:"type_name"`
	Module     string               `json:"module"`
	FullType   string               `json:"full_type"`
	Category   string               `json:"category"`
	Metrics    map[string]any       `json:"metrics"`
	Spectral   map[string][]float64 `json:"spectral"`
	Attributes map[string]any       `json:"attributes"`
	Serialized string               `json:"serialized"`
	SourceInfo string               `json:"source_info"`
	Index      int                  `json:"index"`
}

// ObjectView renders the object inspector: typed panels with
// category badges, metric tables, attribute listings, serialized
// previews and histogram bars built from spectral data. It is claimed
// by its marker only; unmarked envelope JSON belongs to the JSON view.
type ObjectView struct{}

// NewObjectView creates the object inspector view.
func NewObjectView() *ObjectView {
	return &ObjectView{}
}

// Name returns the unique name of this view.
func (v *ObjectView) Name() string {
	return ObjectViewName
}

// DisplayName returns the label shown in view selectors.
func (v *ObjectView) DisplayName() string {
	return "Object Inspector"
}

// Priority returns the detection tie-break priority.
func (v *ObjectView) Priority() int {
	return ObjectViewPriority
}

// ContentMarker routes marked envelopes here.
func (v *ObjectView) ContentMarker() string {
	return types.ObjectMarker
}

// Detect scores zero; only the marker claims this view.
func (v *ObjectView) Detect(string) int {
	return 0
}

// Render decodes the envelope and emits one panel per object.
func (v *ObjectView) Render(content string, _ types.Theme) (string, error) {
	payload := types.TrimMarker(content, types.ObjectMarker)

	var env objectEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return "", errors.Wrap(err, errors.ErrInvalidEnvelope, "malformed object envelope")
	}
	if env.Type != objectEnvelopeType {
		return "", errors.Newf(errors.ErrInvalidEnvelope, "unexpected envelope type %q", env.Type)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<div class="object-view"><div class="object-count">%d objects</div>`, len(env.Objects))
	for _, obj := range env.Objects {
		renderObjectPanel(&sb, obj)
	}
	sb.WriteString(`</div>`)
	return sb.String(), nil
}

// Styles returns the inspector styling.
func (v *ObjectView) Styles(theme types.Theme) string {
	return fmt.Sprintf(`.object-view { padding: 12px; font-size: 13px; }
.object-view .object-count { color: %[1]s; margin-bottom: 8px; }
.object-panel {
  border: 1px solid %[2]s;
  border-radius: 6px;
  margin-bottom: 12px;
  background: %[3]s;
}
.object-panel header {
  display: flex;
  align-items: center;
  gap: 8px;
  padding: 8px 12px;
  border-bottom: 1px solid %[2]s;
}
.object-panel .object-type { font-weight: bold; color: %[4]s; }
.object-panel .object-badge {
  padding: 1px 8px;
  border-radius: 10px;
  background: %[4]s;
  color: %[3]s;
  font-size: 11px;
}
.object-panel table { border-collapse: collapse; margin: 8px 12px; }
.object-panel td, .object-panel th {
  padding: 2px 10px 2px 0;
  text-align: left;
  vertical-align: top;
}
.object-panel th { color: %[1]s; font-weight: normal; }
.object-panel .object-serialized {
  margin: 8px 12px;
  padding: 8px;
  background: #00000033;
  border-radius: 4px;
  overflow-x: auto;
  max-height: 240px;
}
.object-panel .spectral-row { margin: 4px 12px; }
.object-panel .spectral-label { color: %[1]s; font-size: 11px; }
.object-panel .spectral-bars {
  display: flex;
  align-items: flex-end;
  gap: 1px;
  height: 48px;
}
.object-panel .spectral-bar {
  flex: 1;
  min-width: 2px;
  background: %[4]s;
}`, theme.Muted, theme.Border, theme.Surface, theme.Accent)
}

// renderObjectPanel writes one object's inspector panel.
func renderObjectPanel(sb *strings.Builder, obj objectInfo) {
	fmt.Fprintf(sb, `<section class="object-panel" data-index="%d">`, obj.Index)

	fmt.Fprintf(sb, `<header><span class="object-type">%s</span>`, escape(obj.TypeName))
	if obj.Category != "" {
		fmt.Fprintf(sb, `<span class="object-badge">%s</span>`, escape(obj.Category))
	}
	sb.WriteString(`</header>`)

	sb.WriteString(`<table class="object-meta">`)
	writeMetaRow(sb, "module", obj.Module)
	writeMetaRow(sb, "type", obj.FullType)
	writeMetaRow(sb, "source", obj.SourceInfo)
	sb.WriteString(`</table>`)

	if len(obj.Metrics) > 0 {
		sb.WriteString(`<table class="object-metrics">`)
		for _, key := range sortedKeys(obj.Metrics) {
			writeMetaRow(sb, key, formatMetric(obj.Metrics[key]))
		}
		sb.WriteString(`</table>`)
	}

	for _, key := range sortedSpectralKeys(obj.Spectral) {
		renderSpectralRow(sb, key, obj.Spectral[key])
	}

	if len(obj.Attributes) > 0 {
		sb.WriteString(`<table class="object-attributes">`)
		for _, key := range sortedKeys(obj.Attributes) {
			writeMetaRow(sb, key, formatMetric(obj.Attributes[key]))
		}
		sb.WriteString(`</table>`)
	}

	if obj.Serialized != "" {
		fmt.Fprintf(sb, `<pre class="object-serialized">%s</pre>`, escape(obj.Serialized))
	}

	sb.WriteString(`</section>`)
}

// renderSpectralRow draws a histogram from one spectral series,
// normalized against its largest value.
func renderSpectralRow(sb *strings.Builder, label string, values []float64) {
	if len(values) == 0 {
		return
	}
	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}

	fmt.Fprintf(sb, `<div class="spectral-row"><div class="spectral-label">%s</div><div class="spectral-bars">`, escape(label))
	for _, v := range values {
		pct := 0.0
		if peak > 0 {
			pct = v / peak * 100
		}
		if pct < 2 {
			pct = 2
		}
		fmt.Fprintf(sb, `<div class="spectral-bar" style="height:%.0f%%"></div>`, pct)
	}
	sb.WriteString(`</div></div>`)
}

// writeMetaRow writes one labeled table row, skipping empty values.
func writeMetaRow(sb *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(sb, `<tr><th>%s</th><td>%s</td></tr>`, escape(key), escape(value))
}

// formatMetric renders a metric or attribute value compactly.
func formatMetric(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%.4g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	case nil:
		return "null"
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(raw)
	}
}

// sortedKeys returns map keys in stable order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSpectralKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
