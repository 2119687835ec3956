// Package multiview encodes and decodes the multiview envelope: a
// marker-prefixed JSON document carrying several renderable
// presentations of the same payload, one of which is the default.
package multiview

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/logging"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/registry"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/viewstate"
)

// TypeTag is the envelope's family discriminant.
const TypeTag = "multiview"

// Entry is one renderable presentation inside an envelope.
type Entry struct {
	// Name is the view that renders this entry.
	Name string `json:"name"`

	// Priority mirrors the view's priority at build time and orders
	// entries in selectors.
	Priority int `json:"priority"`

	// DisplayContent is the payload handed to the view.
	DisplayContent string `json:"display_content"`

	// ContentHash fingerprints DisplayContent for caching.
	ContentHash string `json:"content_hash"`
}

// Envelope is the parsed multiview document.
type Envelope struct {
	Type        string  `json:"type"`
	DefaultView string  `json:"default_view"`
	Views       []Entry `json:"views"`
}

// IsMultiview reports whether content carries the multiview marker.
func IsMultiview(content string) bool {
	return types.HasMarker(content, types.MultiviewMarker)
}

// StripMarker removes the multiview marker prefix, leaving the JSON
// envelope text.
func StripMarker(content string) string {
	return types.TrimMarker(content, types.MultiviewMarker)
}

// Parse decodes a marker-prefixed envelope and drops entries whose
// view is not registered. An envelope with no resolvable entries is an
// error; rendering has nothing to show for it.
func Parse(content string, reg registry.Registry) (*Envelope, error) {
	if !IsMultiview(content) {
		return nil, errors.New(errors.ErrInvalidEnvelope, "content does not carry the multiview marker")
	}

	var env Envelope
	if err := json.Unmarshal([]byte(StripMarker(content)), &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidEnvelope, "malformed multiview envelope")
	}
	if env.Type != TypeTag {
		return nil, errors.Newf(errors.ErrInvalidEnvelope, "unexpected envelope type %q", env.Type)
	}
	if len(env.Views) == 0 {
		return nil, errors.New(errors.ErrInvalidEnvelope, "multiview envelope has no views")
	}

	logger := logging.GetLogger("multiview")
	kept := make([]Entry, 0, len(env.Views))
	for _, entry := range env.Views {
		if !reg.Has(entry.Name) {
			logger.Warn().
				Str("view", entry.Name).
				Msg("Dropping multiview entry for unregistered view")
			continue
		}
		kept = append(kept, entry)
	}
	if len(kept) == 0 {
		return nil, errors.New(errors.ErrInvalidEnvelope, "no multiview entry resolves to a registered view")
	}
	env.Views = kept

	return &env, nil
}

// Encode frames the envelope with the multiview marker for the wire.
func Encode(env *Envelope) (string, error) {
	if env == nil || len(env.Views) == 0 {
		return "", errors.New(errors.ErrInvalidEnvelope, "cannot encode an empty multiview envelope")
	}
	out := *env
	out.Type = TypeTag

	raw, err := json.Marshal(&out)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "encoding multiview envelope")
	}
	return types.MultiviewMarker + "\n" + string(raw), nil
}

// Build assembles an envelope from a detection scoreboard. Every view
// that scored above zero contributes an entry carrying the full
// content; entries are ordered by view priority, highest first, and
// the first one becomes the default.
//
// Returns nil when fewer than two views matched, because a single
// presentation needs no envelope.
func Build(content string, results []types.DetectionResult) *Envelope {
	matched := make([]types.DetectionResult, 0, len(results))
	for _, r := range results {
		if r.Score > 0 {
			matched = append(matched, r)
		}
	}
	if len(matched) < 2 {
		return nil
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].View.Priority() > matched[j].View.Priority()
	})

	hash := viewstate.InputHash(content)
	entries := make([]Entry, 0, len(matched))
	for _, r := range matched {
		entries = append(entries, Entry{
			Name:           r.View.Name(),
			Priority:       r.View.Priority(),
			DisplayContent: content,
			ContentHash:    hash,
		})
	}

	return &Envelope{
		Type:        TypeTag,
		DefaultView: entries[0].Name,
		Views:       entries,
	}
}

// Hash fingerprints the whole envelope for slot-level caching.
func (env *Envelope) Hash() string {
	if env == nil || len(env.Views) == 0 {
		return ""
	}
	return fmt.Sprintf("multiview_%d_%s", len(env.Views), env.Views[0].ContentHash)
}

// Options returns the selectable view names in listed order, first
// occurrence wins on duplicates.
func (env *Envelope) Options() []string {
	if env == nil {
		return nil
	}
	seen := make(map[string]bool, len(env.Views))
	options := make([]string, 0, len(env.Views))
	for _, entry := range env.Views {
		if seen[entry.Name] {
			continue
		}
		seen[entry.Name] = true
		options = append(options, entry.Name)
	}
	return options
}

// ActiveEntry resolves which entry should render. A host override
// wins when it names an entry, then the envelope default, then the
// highest-priority entry.
func (env *Envelope) ActiveEntry(override string) Entry {
	if override != "" {
		if e, ok := env.find(override); ok {
			return e
		}
	}
	if env.DefaultView != "" {
		if e, ok := env.find(env.DefaultView); ok {
			return e
		}
	}

	best := env.Views[0]
	for _, entry := range env.Views[1:] {
		if entry.Priority > best.Priority {
			best = entry
		}
	}
	return best
}

// find returns the first entry with the given name.
func (env *Envelope) find(name string) (Entry, bool) {
	for _, entry := range env.Views {
		if entry.Name == name {
			return entry, true
		}
	}
	return Entry{}, false
}
