package render

import (
	"encoding/json"
	"fmt"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

// NodeResult is the assembled outcome of one node execution: what the
// viewer displays and what flows downstream.
type NodeResult struct {
	// Display is the content handed to the viewer; multiple values are
	// joined with the list separator.
	Display string

	// Outputs are the downstream values with excluded indices removed.
	Outputs []string
}

// BuildNodeResult assembles a node result from incoming values.
// Non-string values are stringified through JSON, falling back to fmt
// for things JSON cannot express. Excluded indices are filtered from
// the outputs but remain visible (toggled off) in the display; when
// everything is excluded the node still emits a single empty value so
// downstream consumers keep a well-formed input.
func BuildNodeResult(values []any, excluded []int) NodeResult {
	items := make([]string, len(values))
	for i, v := range values {
		items[i] = stringifyValue(v)
	}

	skip := make(map[int]bool, len(excluded))
	for _, i := range excluded {
		skip[i] = true
	}

	outputs := make([]string, 0, len(items))
	for i, item := range items {
		if skip[i] {
			continue
		}
		outputs = append(outputs, item)
	}
	if len(outputs) == 0 {
		outputs = []string{""}
	}

	return NodeResult{
		Display: types.JoinList(items),
		Outputs: outputs,
	}
}

// ParseExclusions reads a persisted exclusion blob. Both the object
// form {"excluded":[...]} and a bare index array are accepted; anything
// else means no exclusions.
func ParseExclusions(blob []byte) []int {
	if len(blob) == 0 {
		return nil
	}

	var wrapped struct {
		Excluded []int `json:"excluded"`
	}
	if err := json.Unmarshal(blob, &wrapped); err == nil && wrapped.Excluded != nil {
		return wrapped.Excluded
	}

	var bare []int
	if err := json.Unmarshal(blob, &bare); err == nil {
		return bare
	}
	return nil
}

// EncodeExclusions writes the canonical exclusion blob.
func EncodeExclusions(indices []int) []byte {
	if indices == nil {
		indices = []int{}
	}
	blob, err := json.Marshal(struct {
		Excluded []int `json:"excluded"`
	}{Excluded: indices})
	if err != nil {
		return []byte(`{"excluded":[]}`)
	}
	return blob
}

// stringifyValue renders one incoming value as a string.
func stringifyValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
