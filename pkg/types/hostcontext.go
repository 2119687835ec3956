package types

// StateStore is the host-owned persistence boundary for per-node view
// state. The render pipeline and interactive views talk to it through
// this interface; implementations live in pkg/hoststate.
type StateStore interface {
	// ViewState returns the persisted blob for a node/view pair, or
	// nil when none is stored.
	ViewState(nodeID, viewID string) ([]byte, error)

	// SetViewState stores the blob for a node/view pair, replacing any
	// previous value.
	SetViewState(nodeID, viewID string, blob []byte) error

	// Exclusions returns the excluded list-item indices for a node.
	Exclusions(nodeID string) ([]int, error)

	// SetExclusions replaces the excluded indices for a node.
	SetExclusions(nodeID string, indices []int) error

	// PruneViewState removes the blob for a node/view pair. Removing a
	// missing entry is not an error.
	PruneViewState(nodeID, viewID string) error
}

// HostContext carries the per-node host environment into view
// rendering and message handling.
type HostContext struct {
	// NodeID identifies the host node the content belongs to.
	NodeID string

	// Store is the host-owned state store. May be nil for stateless
	// rendering (e.g. the CLI one-shot path).
	Store StateStore

	// Theme is the active palette.
	Theme Theme

	// ViewOverride is the view name the host pinned for this node, or
	// "" when detection decides.
	ViewOverride string

	// Emit delivers a message to the host. May be nil; use Send.
	Emit func(CoreMessage)
}

// Send delivers msg to the host if an emitter is wired. It is safe to
// call on a nil context.
func (hc *HostContext) Send(msg CoreMessage) {
	if hc == nil || hc.Emit == nil {
		return
	}
	hc.Emit(msg)
}

// State returns the stored blob for the given view on this node, or
// nil when no store is wired or nothing is stored.
func (hc *HostContext) State(viewID string) []byte {
	if hc == nil || hc.Store == nil {
		return nil
	}
	blob, err := hc.Store.ViewState(hc.NodeID, viewID)
	if err != nil {
		return nil
	}
	return blob
}
