package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/logging"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

// Registry is a thread-safe collection of views. Views are validated
// and probed for capabilities once, at registration; consumers read
// descriptors. Registration order is preserved because it is the tie
// breaker for equal priorities.
type Registry interface {
	// Register validates v, builds its descriptor and adds it. A view
	// with the name of an existing entry replaces it in place, keeping
	// the original registration position.
	Register(v types.View) error

	// Get retrieves a descriptor by view name.
	Get(name string) (types.Descriptor, error)

	// Views returns all descriptors in registration order.
	Views() []types.Descriptor

	// ByPriority returns all descriptors ordered by priority, highest
	// first. Equal priorities keep registration order.
	ByPriority() []types.Descriptor

	// ByMarker resolves a content marker to its owning view. When two
	// views claim the same marker the higher-priority one wins.
	ByMarker(marker string) (types.Descriptor, bool)

	// Markers returns every registered marker literal.
	Markers() []string

	// Names returns all view names in registration order.
	Names() []string

	// Has checks if a view is registered.
	Has(name string) bool

	// Remove removes a view from the registry.
	Remove(name string) error

	// Clear removes all views.
	Clear()

	// Count returns the number of registered views.
	Count() int
}

// registry is the internal implementation of Registry.
type registry struct {
	mu    sync.RWMutex
	order []string
	items map[string]types.Descriptor
}

// New creates an empty Registry. Callers wire it explicitly into the
// detection engine and render pipeline; there is no package-level
// instance.
func New() Registry {
	return &registry{
		items: make(map[string]types.Descriptor),
	}
}

// Register validates v and stores its descriptor.
func (r *registry) Register(v types.View) error {
	if v == nil {
		return errors.New(errors.ErrInvalidInput, "cannot register a nil view")
	}

	desc, err := types.Describe(v)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := v.Name()
	if desc.Marker != "" {
		for _, other := range r.order {
			o := r.items[other]
			if other != name && o.Marker == desc.Marker {
				logging.GetLogger("registry").Warn().
					Str("marker", desc.Marker).
					Str("view", name).
					Str("existing", other).
					Msg("duplicate content marker, higher priority view will claim it")
			}
		}
	}

	if _, exists := r.items[name]; !exists {
		r.order = append(r.order, name)
	}
	r.items[name] = desc
	return nil
}

// Get retrieves a descriptor by view name.
func (r *registry) Get(name string) (types.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, exists := r.items[name]
	if !exists {
		return types.Descriptor{}, errors.Newf(errors.ErrViewNotFound, "view '%s' not found in registry", name)
	}
	return desc, nil
}

// Views returns all descriptors in registration order.
func (r *registry) Views() []types.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.snapshot()
}

// ByPriority returns descriptors ordered by priority, highest first.
func (r *registry) ByPriority() []types.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	views := r.snapshot()
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].View.Priority() > views[j].View.Priority()
	})
	return views
}

// ByMarker resolves a marker literal to its owning descriptor.
func (r *registry) ByMarker(marker string) (types.Descriptor, bool) {
	if marker == "" {
		return types.Descriptor{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best  types.Descriptor
		found bool
	)
	for _, name := range r.order {
		d := r.items[name]
		if d.Marker != marker {
			continue
		}
		if !found || d.View.Priority() > best.View.Priority() {
			best = d
			found = true
		}
	}
	return best, found
}

// Markers returns all distinct marker literals in registration order.
func (r *registry) Markers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	markers := make([]string, 0, len(r.order))
	for _, name := range r.order {
		m := r.items[name].Marker
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		markers = append(markers, m)
	}
	return markers
}

// Names returns all view names in registration order.
func (r *registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Has checks if a view is registered.
func (r *registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.items[name]
	return exists
}

// Remove removes a view from the registry.
func (r *registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[name]; !exists {
		return errors.Newf(errors.ErrViewNotFound, "view '%s' not found in registry", name)
	}

	delete(r.items, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes all views.
func (r *registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = nil
	r.items = make(map[string]types.Descriptor)
}

// Count returns the number of registered views.
func (r *registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

// snapshot copies descriptors in registration order. Callers hold at
// least a read lock.
func (r *registry) snapshot() []types.Descriptor {
	views := make([]types.Descriptor, 0, len(r.order))
	for _, name := range r.order {
		views = append(views, r.items[name])
	}
	return views
}

// MustRegister registers a view and panics if registration fails.
// This is useful during startup wiring where a failure is a
// programming error.
func MustRegister(reg Registry, v types.View) {
	if err := reg.Register(v); err != nil {
		panic(fmt.Sprintf("failed to register view %s: %v", v.Name(), err))
	}
}
