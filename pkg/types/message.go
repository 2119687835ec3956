package types

import (
	"encoding/json"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
)

// Wire message types exchanged with the host. Host-to-core types
// describe what changed on the host side; core-to-host types describe
// what the viewer wants the host to do.
const (
	MsgContentChanged = "content_changed"
	MsgThemeChanged   = "theme_changed"
	MsgViewOverride   = "view_override"
	MsgStatePayload   = "state_payload"
	MsgSurfaceReady   = "surface_ready"

	MsgItemToggled         = "item_toggled"
	MsgCopyItem            = "copy_item"
	MsgPersistState        = "persist_state"
	MsgAssignOutput        = "assign_output"
	MsgDependenciesChanged = "dependencies_changed"
	MsgRenderFailed        = "render_failed"
)

// HostMessage is a message from the host to the viewer core. The set
// of implementations is closed; decode with DecodeHostMessage.
type HostMessage interface {
	hostMessage()

	// Type returns the wire type tag.
	Type() string
}

// CoreMessage is a message from the viewer core to the host. Encode
// with EncodeCoreMessage.
type CoreMessage interface {
	coreMessage()

	// Type returns the wire type tag.
	Type() string
}

// ContentChanged announces new content for a node.
type ContentChanged struct {
	NodeID  string `json:"-"`
	Content string `json:"content"`
}

// ThemeChanged announces a new host palette.
type ThemeChanged struct {
	NodeID string `json:"-"`
	Theme  Theme  `json:"theme"`
}

// ViewOverride pins a node to a specific view, or clears the pin when
// View is empty.
type ViewOverride struct {
	NodeID string `json:"-"`
	View   string `json:"view"`
}

// StatePayload delivers a persisted state blob for a view on a node.
type StatePayload struct {
	NodeID string          `json:"-"`
	View   string          `json:"view"`
	State  json.RawMessage `json:"state"`
}

// SurfaceReady signals that the display surface for a slot finished
// loading and can accept a document.
type SurfaceReady struct {
	NodeID string `json:"-"`
	Slot   string `json:"slot"`
}

func (ContentChanged) hostMessage() {}
func (ThemeChanged) hostMessage()   {}
func (ViewOverride) hostMessage()   {}
func (StatePayload) hostMessage()   {}
func (SurfaceReady) hostMessage()   {}

// Type implements HostMessage.
func (ContentChanged) Type() string { return MsgContentChanged }

// Type implements HostMessage.
func (ThemeChanged) Type() string { return MsgThemeChanged }

// Type implements HostMessage.
func (ViewOverride) Type() string { return MsgViewOverride }

// Type implements HostMessage.
func (StatePayload) Type() string { return MsgStatePayload }

// Type implements HostMessage.
func (SurfaceReady) Type() string { return MsgSurfaceReady }

// ItemToggled reports that a list item was included or excluded.
type ItemToggled struct {
	NodeID   string `json:"-"`
	Index    int    `json:"index"`
	Excluded bool   `json:"excluded"`
}

// CopyItem asks the host to place one list item on the clipboard.
type CopyItem struct {
	NodeID  string `json:"-"`
	Index   int    `json:"index"`
	Content string `json:"content"`
}

// PersistState asks the host to store a view's state blob.
type PersistState struct {
	NodeID string          `json:"-"`
	View   string          `json:"view"`
	State  json.RawMessage `json:"state"`
}

// AssignOutput hands the node's downstream output values to the host.
type AssignOutput struct {
	NodeID string   `json:"-"`
	Values []string `json:"values"`
}

// DependenciesChanged announces the asset keys the current document
// needs loaded.
type DependenciesChanged struct {
	NodeID string   `json:"-"`
	Keys   []string `json:"keys"`
}

// RenderFailed reports a view render error surfaced to the user.
type RenderFailed struct {
	NodeID string `json:"-"`
	View   string `json:"view"`
	Reason string `json:"reason"`
}

func (ItemToggled) coreMessage()         {}
func (CopyItem) coreMessage()            {}
func (PersistState) coreMessage()        {}
func (AssignOutput) coreMessage()        {}
func (DependenciesChanged) coreMessage() {}
func (RenderFailed) coreMessage()        {}

// Type implements CoreMessage.
func (ItemToggled) Type() string { return MsgItemToggled }

// Type implements CoreMessage.
func (CopyItem) Type() string { return MsgCopyItem }

// Type implements CoreMessage.
func (PersistState) Type() string { return MsgPersistState }

// Type implements CoreMessage.
func (AssignOutput) Type() string { return MsgAssignOutput }

// Type implements CoreMessage.
func (DependenciesChanged) Type() string { return MsgDependenciesChanged }

// Type implements CoreMessage.
func (RenderFailed) Type() string { return MsgRenderFailed }

// envelope is the wire frame around every message.
type envelope struct {
	Type   string          `json:"type"`
	NodeID string          `json:"node_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// DecodeHostMessage parses the wire frame and returns the typed host
// message. Unknown types and malformed payloads are errors; callers
// never see raw JSON.
func DecodeHostMessage(raw []byte) (HostMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrUnknownMessage, "malformed message envelope")
	}

	decode := func(dst any) error {
		if len(env.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(env.Data, dst); err != nil {
			return errors.Wrapf(err, errors.ErrUnknownMessage, "malformed %s payload", env.Type)
		}
		return nil
	}

	switch env.Type {
	case MsgContentChanged:
		var m ContentChanged
		if err := decode(&m); err != nil {
			return nil, err
		}
		m.NodeID = env.NodeID
		return m, nil
	case MsgThemeChanged:
		var m ThemeChanged
		if err := decode(&m); err != nil {
			return nil, err
		}
		m.NodeID = env.NodeID
		return m, nil
	case MsgViewOverride:
		var m ViewOverride
		if err := decode(&m); err != nil {
			return nil, err
		}
		m.NodeID = env.NodeID
		return m, nil
	case MsgStatePayload:
		var m StatePayload
		if err := decode(&m); err != nil {
			return nil, err
		}
		m.NodeID = env.NodeID
		return m, nil
	case MsgSurfaceReady:
		var m SurfaceReady
		if err := decode(&m); err != nil {
			return nil, err
		}
		m.NodeID = env.NodeID
		return m, nil
	default:
		return nil, errors.Newf(errors.ErrUnknownMessage, "unknown host message type %q", env.Type)
	}
}

// EncodeCoreMessage frames msg for the wire.
func EncodeCoreMessage(msg CoreMessage) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal, "encoding %s payload", msg.Type())
	}

	env := envelope{Type: msg.Type(), NodeID: nodeIDOf(msg), Data: data}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal, "encoding %s envelope", msg.Type())
	}
	return raw, nil
}

func nodeIDOf(msg CoreMessage) string {
	switch m := msg.(type) {
	case ItemToggled:
		return m.NodeID
	case CopyItem:
		return m.NodeID
	case PersistState:
		return m.NodeID
	case AssignOutput:
		return m.NodeID
	case DependenciesChanged:
		return m.NodeID
	case RenderFailed:
		return m.NodeID
	default:
		return ""
	}
}
