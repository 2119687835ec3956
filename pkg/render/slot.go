package render

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/logging"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/viewstate"
)

// SlotState names the lifecycle position of one displayed content slot.
type SlotState string

const (
	SlotIdle      SlotState = "idle"
	SlotDetecting SlotState = "detecting"
	SlotRendering SlotState = "rendering"
	SlotDisplayed SlotState = "displayed"
)

// Surface is the isolated rendering target a slot delivers documents
// into. Implementations must not share script or storage context with
// the host; SandboxAttributes is the fixed contract for browser-backed
// surfaces.
type Surface interface {
	// Display replaces the surface's document.
	Display(document string) error

	// Post injects script markup into the displayed document. Called
	// only after the surface reported ready, or not at all.
	Post(scripts string) error
}

// Slot serializes renders for one logical content position. New content
// arriving while a delivery is in flight is queued, latest wins, and
// rendered exactly once when the surface frees up. Re-renders trigger
// on content change, view override, theme change and asset arrival.
type Slot struct {
	id       string
	pipeline *Pipeline
	surface  Surface
	hc       *types.HostContext
	logger   zerolog.Logger

	mu          sync.Mutex
	state       SlotState
	busy        bool
	closed      bool
	current     string
	hash        string
	pending     *string
	deps        map[string]bool
	ready       chan struct{}
	unsubscribe func()
}

// NewSlot creates a slot delivering into surface. The slot subscribes
// to the pipeline's asset loader so late-arriving dependencies refresh
// the displayed document.
func NewSlot(id string, pipeline *Pipeline, surface Surface, hc *types.HostContext) *Slot {
	s := &Slot{
		id:       id,
		pipeline: pipeline,
		surface:  surface,
		hc:       hc,
		state:    SlotIdle,
		logger:   logging.GetLogger("slot"),
	}
	if pipeline.assets != nil {
		s.unsubscribe = pipeline.assets.Subscribe(s.onAsset)
	}
	return s
}

// ID returns the slot identifier.
func (s *Slot) ID() string {
	return s.id
}

// State returns the slot's current lifecycle state.
func (s *Slot) State() SlotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update hands new content to the slot. While a delivery is in flight
// the content is queued; repeated updates replace the queue so only the
// latest renders.
func (s *Slot) Update(content string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.busy {
		s.pending = &content
		s.mu.Unlock()
		return
	}
	if s.state == SlotDisplayed && viewstate.InputHash(content) == s.hash {
		s.mu.Unlock()
		return
	}
	s.busy = true
	s.mu.Unlock()

	go s.deliver(content)
}

// SurfaceReady signals that the surface finished loading the displayed
// document and can accept posted scripts.
func (s *Slot) SurfaceReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready != nil {
		close(s.ready)
		s.ready = nil
	}
}

// HandleMessage routes one host message into the slot. It returns true
// when the message was consumed.
func (s *Slot) HandleMessage(msg types.HostMessage) bool {
	switch m := msg.(type) {
	case types.ContentChanged:
		s.Update(m.Content)
		return true

	case types.ThemeChanged:
		s.mu.Lock()
		if s.hc != nil {
			s.hc.Theme = m.Theme
		}
		s.mu.Unlock()
		s.refresh()
		return true

	case types.ViewOverride:
		s.mu.Lock()
		if s.hc != nil {
			s.hc.ViewOverride = m.View
		}
		s.mu.Unlock()
		s.refresh()
		return true

	case types.SurfaceReady:
		if m.Slot != "" && m.Slot != s.id {
			return false
		}
		s.SurfaceReady()
		return true

	case types.StatePayload:
		return s.routeToViews(msg)
	}
	return false
}

// Close detaches the slot from the asset loader and drops queued work.
func (s *Slot) Close() {
	s.mu.Lock()
	s.closed = true
	s.pending = nil
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// routeToViews offers msg to every registered view that declared its
// type. Unconsumed state payloads are persisted directly so the next
// render can inject them.
func (s *Slot) routeToViews(msg types.HostMessage) bool {
	for _, desc := range s.pipeline.registry.Views() {
		if !containsType(desc.MessageTypes(), msg.Type()) {
			continue
		}
		if desc.HandleMessage(msg, s.hc) {
			return true
		}
	}

	if sp, ok := msg.(types.StatePayload); ok && s.hc != nil && s.hc.Store != nil {
		if err := s.hc.Store.SetViewState(s.hc.NodeID, sp.View, sp.State); err != nil {
			s.logger.Warn().Err(err).Str("view", sp.View).Msg("persisting state payload failed")
		}
		return true
	}
	return false
}

// refresh re-delivers the current content, queueing behind an in-flight
// delivery.
func (s *Slot) refresh() {
	s.mu.Lock()
	if s.closed || s.current == "" {
		s.mu.Unlock()
		return
	}
	content := s.current
	if s.busy {
		s.pending = &content
		s.mu.Unlock()
		return
	}
	s.busy = true
	s.mu.Unlock()

	go s.deliver(content)
}

// onAsset refreshes the slot when a dependency the displayed document
// was waiting for arrives.
func (s *Slot) onAsset(key string) {
	s.mu.Lock()
	needed := s.deps[key]
	s.mu.Unlock()

	if needed {
		s.logger.Debug().Str("slot", s.id).Str("key", key).Msg("dependency arrived, refreshing")
		s.refresh()
	}
}

// deliver runs one full render and delivery cycle.
func (s *Slot) deliver(content string) {
	s.mu.Lock()
	s.state = SlotDetecting
	s.current = content
	ready := make(chan struct{})
	s.ready = ready
	timeout := s.pipeline.readyTimeout
	s.mu.Unlock()

	result, err := s.pipeline.Render(content, s.hc)
	if err != nil {
		s.logger.Error().Err(err).Str("slot", s.id).Msg("render failed")
		s.fail()
		return
	}

	s.mu.Lock()
	s.state = SlotRendering
	s.hash = result.Hash
	s.deps = make(map[string]bool, len(result.Dependencies))
	for _, key := range result.Dependencies {
		s.deps[key] = true
	}
	s.mu.Unlock()

	if err := s.surface.Display(result.Document.HTML); err != nil {
		s.logger.Error().Err(err).Str("slot", s.id).Msg("surface display failed")
		s.fail()
		return
	}

	if result.Document.Scripts != "" {
		select {
		case <-ready:
			if err := s.surface.Post(result.Document.Scripts); err != nil {
				s.logger.Warn().Err(err).Str("slot", s.id).Msg("posting scripts failed")
			}
		case <-time.After(timeout):
			s.logger.Warn().
				Str("slot", s.id).
				Dur("timeout", timeout).
				Msg("surface never reported ready, scripts skipped")
		}
	}

	s.mu.Lock()
	s.state = SlotDisplayed
	s.mu.Unlock()
	s.finish()
}

// fail resets the slot so the same content can be retried.
func (s *Slot) fail() {
	s.mu.Lock()
	s.state = SlotIdle
	s.current = ""
	s.mu.Unlock()
	s.finish()
}

// finish releases the in-flight guard and starts the queued delivery,
// if any.
func (s *Slot) finish() {
	s.mu.Lock()
	s.busy = false
	next := s.pending
	s.pending = nil
	s.mu.Unlock()

	if next != nil {
		s.Update(*next)
	}
}

func containsType(haystack []string, needle string) bool {
	for _, t := range haystack {
		if t == needle {
			return true
		}
	}
	return false
}
