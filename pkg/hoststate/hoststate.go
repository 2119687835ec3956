// Package hoststate provides the host-owned persistence backends for
// per-node view state and list exclusions. The render pipeline talks to
// them through types.StateStore; nothing here interprets the blobs.
package hoststate

import (
	"sync"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

// Store is the persistence contract the viewer renders against.
type Store = types.StateStore

// MemoryStore keeps state in process memory. It is the default for
// one-shot rendering and for tests; nothing survives a restart.
type MemoryStore struct {
	mu         sync.RWMutex
	states     map[string][]byte
	exclusions map[string][]int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:     make(map[string][]byte),
		exclusions: make(map[string][]int),
	}
}

// ViewState returns the blob stored for the node/view pair, or nil.
func (s *MemoryStore) ViewState(nodeID, viewID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.states[stateKey(nodeID, viewID)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

// SetViewState stores the blob for the node/view pair.
func (s *MemoryStore) SetViewState(nodeID, viewID string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(blob))
	copy(stored, blob)
	s.states[stateKey(nodeID, viewID)] = stored
	return nil
}

// Exclusions returns the excluded item indices for the node.
func (s *MemoryStore) Exclusions(nodeID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	indices, ok := s.exclusions[nodeID]
	if !ok {
		return nil, nil
	}
	return append([]int(nil), indices...), nil
}

// SetExclusions replaces the excluded indices for the node.
func (s *MemoryStore) SetExclusions(nodeID string, indices []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exclusions[nodeID] = append([]int(nil), indices...)
	return nil
}

// PruneViewState removes the blob for the node/view pair.
func (s *MemoryStore) PruneViewState(nodeID, viewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, stateKey(nodeID, viewID))
	return nil
}

func stateKey(nodeID, viewID string) string {
	return nodeID + "\x00" + viewID
}
