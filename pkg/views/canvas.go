package views

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

const (
	CanvasViewName     = "canvas"
	CanvasViewPriority = 100

	// canvasEnvelopeType is the family discriminant in the payload.
	canvasEnvelopeType = "canvas_composer"

	// pngDataURLPrefix is the only composite encoding the state
	// round-trip accepts.
	pngDataURLPrefix = "data:image/png;base64,"
)

// canvasEnvelope is the composer wire payload. Unknown fields are
// preserved through state injection by reparsing the raw document, so
// this struct only names what rendering needs.
type canvasEnvelope struct {
	Type      string            `json:"type"`
	Images    []json.RawMessage `json:"images"`
	Count     int               `json:"count"`
	SessionID string            `json:"session_id"`
	HasOutput bool              `json:"has_output,omitempty"`
	State     json.RawMessage   `json:"state,omitempty"`
}

// canvasImageRef is the server-file form of an image entry.
type canvasImageRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// CanvasComposite is a decoded composite output image.
type CanvasComposite struct {
	Width  int
	Height int
	PNG    []byte
}

// CanvasView renders the canvas composer shell: a toolbar, the layer
// list and the stage with every input image stacked. Painting happens
// in the surface; this view owns the markup, the session identity and
// the state round-trip back to the host.
type CanvasView struct{}

// NewCanvasView creates the canvas composer view.
func NewCanvasView() *CanvasView {
	return &CanvasView{}
}

// Name returns the unique name of this view.
func (v *CanvasView) Name() string {
	return CanvasViewName
}

// DisplayName returns the label shown in view selectors.
func (v *CanvasView) DisplayName() string {
	return "Canvas Composer"
}

// Priority returns the detection tie-break priority.
func (v *CanvasView) Priority() int {
	return CanvasViewPriority
}

// ContentMarker routes composer envelopes here.
func (v *CanvasView) ContentMarker() string {
	return types.CanvasMarker
}

// Interactive reports that the composer exchanges messages after
// display.
func (v *CanvasView) Interactive() bool {
	return true
}

// Detect claims composite output payloads; the composer envelope
// itself arrives via the marker.
func (v *CanvasView) Detect(content string) int {
	if types.HasMarker(content, types.CanvasOutputMarker) {
		return 100
	}
	return 0
}

// Render emits the composer shell, or a composite preview when the
// content is a canvas output payload.
func (v *CanvasView) Render(content string, _ types.Theme) (string, error) {
	if types.HasMarker(content, types.CanvasOutputMarker) {
		return renderCanvasOutput(content)
	}

	payload := types.TrimMarker(content, types.CanvasMarker)
	var env canvasEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return "", errors.Wrap(err, errors.ErrInvalidEnvelope, "malformed canvas envelope")
	}
	if env.Type != canvasEnvelopeType {
		return "", errors.Newf(errors.ErrInvalidEnvelope, "unexpected envelope type %q", env.Type)
	}

	session := env.SessionID
	if session == "" {
		session = uuid.NewString()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<div class="canvas-view" data-session="%s">`, escape(session))
	fmt.Fprintf(&sb, `<div class="canvas-toolbar"><span class="canvas-title">Canvas Composer</span><span class="canvas-count">%d layers</span></div>`, len(env.Images))

	sb.WriteString(`<div class="canvas-body"><ul class="canvas-layers">`)
	for i, raw := range env.Images {
		src, ok := canvasImageSrc(raw)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, `<li class="canvas-layer" data-layer="%d"><img src="%s" alt="layer %d"><span>Layer %d</span></li>`,
			i, escape(src), i+1, i+1)
	}
	sb.WriteString(`</ul><div class="canvas-stage">`)
	for i, raw := range env.Images {
		src, ok := canvasImageSrc(raw)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, `<img class="canvas-stage-layer" data-layer="%d" src="%s" alt="">`, i, escape(src))
	}
	sb.WriteString(`</div></div></div>`)
	return sb.String(), nil
}

// renderCanvasOutput shows a finished composite.
func renderCanvasOutput(content string) (string, error) {
	payload := strings.TrimSpace(types.TrimMarker(content, types.CanvasOutputMarker))
	src := payload
	if !strings.HasPrefix(src, "data:") {
		src = pngDataURLPrefix + src
	}

	var dims string
	if comp, err := decodeCompositeDataURL(src); err == nil {
		dims = fmt.Sprintf(`<span class="canvas-dims">%dx%d</span>`, comp.Width, comp.Height)
	}

	return fmt.Sprintf(`<div class="canvas-view canvas-output"><div class="canvas-toolbar"><span class="canvas-title">Canvas Output</span>%s</div><img class="canvas-composite" src="%s" alt="composite"></div>`,
		dims, escape(src)), nil
}

// Styles returns the composer shell styling.
func (v *CanvasView) Styles(theme types.Theme) string {
	return fmt.Sprintf(`.canvas-view {
  display: flex;
  flex-direction: column;
  height: 100vh;
  background: %[1]s;
}
.canvas-toolbar {
  display: flex;
  align-items: center;
  gap: 12px;
  padding: 8px 12px;
  background: %[2]s;
  border-bottom: 1px solid %[3]s;
}
.canvas-title { font-weight: bold; color: %[4]s; }
.canvas-count, .canvas-dims { color: %[5]s; font-size: 12px; }
.canvas-body { display: flex; flex: 1; min-height: 0; }
.canvas-layers {
  width: 160px;
  margin: 0;
  padding: 8px;
  list-style: none;
  overflow-y: auto;
  border-right: 1px solid %[3]s;
}
.canvas-layer {
  display: flex;
  align-items: center;
  gap: 8px;
  padding: 4px;
  border-radius: 4px;
  cursor: pointer;
}
.canvas-layer:hover { background: %[2]s; }
.canvas-layer img {
  width: 40px;
  height: 40px;
  object-fit: cover;
  border-radius: 2px;
}
.canvas-stage {
  position: relative;
  flex: 1;
  overflow: auto;
}
.canvas-stage-layer {
  position: absolute;
  top: 0;
  left: 0;
  max-width: 100%%;
}
.canvas-composite {
  max-width: 100%%;
  margin: 16px auto;
  display: block;
}`, theme.Background, theme.Surface, theme.Border, theme.Accent, theme.Muted)
}

// InjectState folds a persisted composer state into the envelope under
// its state key. Reinjecting the same blob is a no-op by construction:
// the key is replaced, never appended.
func (v *CanvasView) InjectState(content string, state []byte) string {
	if !types.HasMarker(content, types.CanvasMarker) {
		return content
	}

	payload := types.TrimMarker(content, types.CanvasMarker)
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return content
	}

	doc["state"] = json.RawMessage(state)
	out, err := json.Marshal(doc)
	if err != nil {
		return content
	}
	return types.CanvasMarker + "\n" + string(out)
}

// StateFromHost reads the composer's stored blob for the node.
func (v *CanvasView) StateFromHost(hc *types.HostContext) []byte {
	if hc == nil {
		return nil
	}
	return hc.State(CanvasViewName)
}

// MessageTypes lists the host messages the composer consumes.
func (v *CanvasView) MessageTypes() []string {
	return []string{types.MsgStatePayload}
}

// HandleMessage persists composer state and, when the state carries a
// finished composite, assigns the marked output downstream.
func (v *CanvasView) HandleMessage(msg types.HostMessage, hc *types.HostContext) bool {
	sp, ok := msg.(types.StatePayload)
	if !ok || sp.View != CanvasViewName {
		return false
	}
	if hc == nil {
		return true
	}

	if hc.Store != nil {
		if err := hc.Store.SetViewState(hc.NodeID, CanvasViewName, sp.State); err != nil {
			return true
		}
	}

	var state struct {
		DataURL string `json:"dataUrl"`
	}
	if err := json.Unmarshal(sp.State, &state); err == nil && state.DataURL != "" {
		hc.Send(types.AssignOutput{
			NodeID: hc.NodeID,
			Values: []string{types.CanvasOutputMarker + "\n" + state.DataURL},
		})
	}
	return true
}

// CompositeFromState decodes the composite PNG embedded in a composer
// state blob.
func CompositeFromState(state []byte) (*CanvasComposite, error) {
	var parsed struct {
		DataURL string `json:"dataUrl"`
	}
	if err := json.Unmarshal(state, &parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidState, "malformed canvas state")
	}
	if parsed.DataURL == "" {
		return nil, errors.New(errors.ErrInvalidState, "canvas state carries no composite")
	}
	return decodeCompositeDataURL(parsed.DataURL)
}

// CompositeFromContent decodes a composite from canvas content: either
// an output payload or a composer envelope with embedded state.
func CompositeFromContent(content string) (*CanvasComposite, error) {
	if types.HasMarker(content, types.CanvasOutputMarker) {
		payload := strings.TrimSpace(types.TrimMarker(content, types.CanvasOutputMarker))
		if !strings.HasPrefix(payload, "data:") {
			payload = pngDataURLPrefix + payload
		}
		return decodeCompositeDataURL(payload)
	}

	if types.HasMarker(content, types.CanvasMarker) {
		var env canvasEnvelope
		if err := json.Unmarshal([]byte(types.TrimMarker(content, types.CanvasMarker)), &env); err != nil {
			return nil, errors.Wrap(err, errors.ErrInvalidEnvelope, "malformed canvas envelope")
		}
		if len(env.State) > 0 {
			return CompositeFromState(env.State)
		}
	}
	return nil, errors.New(errors.ErrInvalidState, "no composite in canvas content")
}

// decodeCompositeDataURL validates and decodes a base64 PNG data URL.
func decodeCompositeDataURL(dataURL string) (*CanvasComposite, error) {
	if !strings.HasPrefix(dataURL, pngDataURLPrefix) {
		return nil, errors.New(errors.ErrInvalidState, "composite is not a base64 PNG data URL")
	}

	raw, err := base64.StdEncoding.DecodeString(dataURL[len(pngDataURLPrefix):])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidState, "composite base64 decode failed")
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidState, "composite is not a PNG image")
	}

	return &CanvasComposite{Width: cfg.Width, Height: cfg.Height, PNG: raw}, nil
}

// canvasImageSrc converts one image entry to an img src value: data
// URLs pass through, server-file records become view endpoint URLs.
func canvasImageSrc(raw json.RawMessage) (string, bool) {
	var direct string
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct, direct != ""
	}

	var ref canvasImageRef
	if err := json.Unmarshal(raw, &ref); err != nil || ref.Filename == "" {
		return "", false
	}

	q := url.Values{}
	q.Set("filename", ref.Filename)
	if ref.Subfolder != "" {
		q.Set("subfolder", ref.Subfolder)
	}
	if ref.Type != "" {
		q.Set("type", ref.Type)
	}
	return "/view?" + q.Encode(), true
}
