// Package viewstate is the state channel between the host store and
// the views: it extracts persisted blobs, folds them back into content
// before rendering, and invalidates stale output when the input
// content changes.
package viewstate

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/logging"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

const (
	// InputHashKey is the reserved state key holding the hash of the
	// content the state was produced against.
	InputHashKey = "_input_hash"

	// OutputSuffix marks state keys that are derived from the input
	// content and must be dropped when the content changes.
	OutputSuffix = "_output"
)

// InputHash returns the FNV-64a hex digest of content. It keys the
// staleness check in persisted state blobs.
func InputHash(content string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(content))
	return fmt.Sprintf("%016x", h.Sum64())
}

// ExtractState returns the persisted blob for a view on the node the
// context points at. Views with their own state shape read it through
// their StateReader capability; everyone else gets the plain store
// lookup. Nil means no usable state.
func ExtractState(d types.Descriptor, hc *types.HostContext) []byte {
	if blob := d.StateFromHost(hc); blob != nil {
		return blob
	}
	return hc.State(d.View.Name())
}

// InjectState folds a state blob into content before rendering. The
// blob must be a JSON object; anything else is ignored so a corrupt
// store entry can never break rendering. Injection is idempotent:
// views strip their previous state before merging the new one.
func InjectState(d types.Descriptor, content string, state []byte) string {
	if len(state) == 0 {
		return content
	}
	if !isObject(state) {
		logging.GetLogger("viewstate").Warn().
			Str("view", d.View.Name()).
			Str("state", logging.ClipContent(string(state))).
			Msg("Ignoring non-object state blob")
		return content
	}
	return d.InjectState(content, state)
}

// InvalidateStale reconciles a state blob against the hash of the
// current content. When the stored hash differs, every key ending in
// OutputSuffix is dropped and the hash is refreshed. The returned bool
// reports whether the blob changed. An unparseable blob is replaced by
// a fresh one carrying only the hash.
func InvalidateStale(blob []byte, newHash string) ([]byte, bool) {
	if len(blob) == 0 {
		fresh, _ := json.Marshal(map[string]any{InputHashKey: newHash})
		return fresh, true
	}

	var state map[string]any
	if err := json.Unmarshal(blob, &state); err != nil {
		logging.GetLogger("viewstate").Warn().
			Str("state", logging.ClipContent(string(blob))).
			Msg("Replacing unparseable state blob")
		fresh, _ := json.Marshal(map[string]any{InputHashKey: newHash})
		return fresh, true
	}

	if stored, _ := state[InputHashKey].(string); stored == newHash {
		return blob, false
	}

	for key := range state {
		if strings.HasSuffix(key, OutputSuffix) {
			delete(state, key)
		}
	}
	state[InputHashKey] = newHash

	out, err := json.Marshal(state)
	if err != nil {
		fresh, _ := json.Marshal(map[string]any{InputHashKey: newHash})
		return fresh, true
	}
	return out, true
}

// isObject reports whether raw parses as a JSON object.
func isObject(raw []byte) bool {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	var probe map[string]json.RawMessage
	return json.Unmarshal(raw, &probe) == nil
}
