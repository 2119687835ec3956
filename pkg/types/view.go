package types

import (
	"regexp"
	"strings"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
)

// View is the minimal contract every content view implements.
// Everything beyond these five methods is an optional capability
// discovered at registration time (see Describe).
type View interface {
	// Name returns the stable identifier of the view, used in wire
	// messages, persisted state keys and host overrides. Lowercase,
	// no spaces.
	Name() string

	// DisplayName returns the human-facing label shown in view
	// selectors.
	DisplayName() string

	// Priority orders views when several match the same content.
	// Higher wins. Equal priorities fall back to registration order.
	Priority() int

	// Detect scores how confident the view is that it should render
	// the given content. Zero means "not mine". Scores are compared
	// across views by the detection engine; a marker match
	// short-circuits everything else.
	Detect(content string) int

	// Render produces a self-contained HTML fragment for the content.
	// The fragment is composed into a sandboxed document by the render
	// pipeline; it must not assume access to the host page.
	Render(content string, theme Theme) (string, error)
}

// Styler is implemented by views that contribute their own CSS to the
// rendered document.
type Styler interface {
	// Styles returns CSS scoped to the view's output. The theme is
	// provided so colors can match the host palette.
	Styles(theme Theme) string
}

// Scripter is implemented by views whose output needs script support
// inside the sandboxed document.
type Scripter interface {
	// Scripts returns JavaScript appended to the rendered document.
	Scripts() string
}

// Marker is implemented by views claimed by an explicit content marker
// prefix rather than (only) heuristic detection.
type Marker interface {
	// ContentMarker returns the marker literal, e.g. "$WAS_OBJECT$".
	// Content beginning with the marker is routed to this view
	// unconditionally.
	ContentMarker() string
}

// Interactive is implemented by views that exchange messages with the
// host after the initial render.
type Interactive interface {
	// Interactive reports whether the view participates in host
	// messaging once displayed.
	Interactive() bool
}

// BareStyles is implemented by views that render a complete visual
// treatment of their own and must not inherit the shared base styles.
type BareStyles interface {
	// OmitBaseStyles reports whether the composed document should skip
	// the default base stylesheet for this view.
	OmitBaseStyles() bool
}

// StateInjector is implemented by views that fold persisted state back
// into their content before rendering.
type StateInjector interface {
	// InjectState returns content with the given state blob applied.
	// Calling it twice with the same blob must be equivalent to
	// calling it once.
	InjectState(content string, state []byte) string
}

// StateReader is implemented by views that persist state under a shape
// of their own and need to extract it from a host store themselves.
type StateReader interface {
	// StateFromHost returns the view's state blob for the node, or nil
	// when none is stored.
	StateFromHost(hc *HostContext) []byte
}

// MessageHandler is implemented by interactive views that consume
// host messages addressed to them.
type MessageHandler interface {
	// MessageTypes lists the wire message types the view handles.
	MessageTypes() []string

	// HandleMessage processes one host message. It returns true when
	// the message was consumed and false when it should fall through
	// to the pipeline's default handling.
	HandleMessage(msg HostMessage, hc *HostContext) bool
}

// DependencyDeclarer is implemented by views whose rendered output
// requires external assets to be loaded first.
type DependencyDeclarer interface {
	// Dependencies returns asset keys understood by the asset loader,
	// e.g. "highlight" or "mermaid".
	Dependencies() []string
}

// markerPattern is the accepted shape for content markers: dollar-fenced
// upper snake case, like $WAS_CANVAS$.
var markerPattern = regexp.MustCompile(`^\$[A-Z][A-Z0-9_]*\$$`)

// Descriptor is the capability record built for a view at registration
// time. All optional interfaces are probed exactly once so the rest of
// the system reads plain fields instead of repeating type assertions.
type Descriptor struct {
	View View

	// Marker is the view's content marker, or "" when it has none.
	Marker string

	// Interactive reports whether the view exchanges host messages
	// after display.
	Interactive bool

	// OmitBaseStyles reports whether the composed document skips the
	// base stylesheet for this view.
	OmitBaseStyles bool

	// Dependencies lists asset keys the view needs before display.
	Dependencies []string

	styler   Styler
	scripter Scripter
	injector StateInjector
	reader   StateReader
	handler  MessageHandler
}

// Describe probes v for optional capabilities and returns its
// descriptor. It validates the parts a registry must be able to trust:
// a non-empty name without spaces and, when present, a well-formed
// marker.
func Describe(v View) (Descriptor, error) {
	d := Descriptor{View: v}

	name := v.Name()
	if name == "" {
		return d, errors.New(errors.ErrViewInvalid, "view has an empty name")
	}
	if strings.ContainsAny(name, " \t\n") || name != strings.ToLower(name) {
		return d, errors.Newf(errors.ErrViewInvalid, "view name %q must be lowercase without spaces", name)
	}

	if m, ok := v.(Marker); ok {
		d.Marker = m.ContentMarker()
		if !markerPattern.MatchString(d.Marker) {
			return d, errors.Newf(errors.ErrInvalidMarker, "view %q declares malformed marker %q", name, d.Marker)
		}
	}
	if i, ok := v.(Interactive); ok {
		d.Interactive = i.Interactive()
	}
	if b, ok := v.(BareStyles); ok {
		d.OmitBaseStyles = b.OmitBaseStyles()
	}
	if dep, ok := v.(DependencyDeclarer); ok {
		d.Dependencies = append([]string(nil), dep.Dependencies()...)
	}
	d.styler, _ = v.(Styler)
	d.scripter, _ = v.(Scripter)
	d.injector, _ = v.(StateInjector)
	d.reader, _ = v.(StateReader)
	d.handler, _ = v.(MessageHandler)

	return d, nil
}

// Styles returns the view's CSS for the theme, or "" when the view
// declares none.
func (d Descriptor) Styles(theme Theme) string {
	if d.styler == nil {
		return ""
	}
	return d.styler.Styles(theme)
}

// Scripts returns the view's script block, or "" when the view
// declares none.
func (d Descriptor) Scripts() string {
	if d.scripter == nil {
		return ""
	}
	return d.scripter.Scripts()
}

// InjectState applies a persisted state blob to content. Views without
// the capability get their content back unchanged.
func (d Descriptor) InjectState(content string, state []byte) string {
	if d.injector == nil || len(state) == 0 {
		return content
	}
	return d.injector.InjectState(content, state)
}

// StateFromHost returns the view's stored state for the node, or nil
// when the view does not read host state.
func (d Descriptor) StateFromHost(hc *HostContext) []byte {
	if d.reader == nil {
		return nil
	}
	return d.reader.StateFromHost(hc)
}

// MessageTypes lists the wire message types the view consumes. Empty
// for non-interactive views.
func (d Descriptor) MessageTypes() []string {
	if d.handler == nil {
		return nil
	}
	return d.handler.MessageTypes()
}

// HandleMessage forwards msg to the view's handler. It returns false
// when the view has no handler.
func (d Descriptor) HandleMessage(msg HostMessage, hc *HostContext) bool {
	if d.handler == nil {
		return false
	}
	return d.handler.HandleMessage(msg, hc)
}
