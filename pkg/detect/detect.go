package detect

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/logging"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/registry"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

// MarkerScore is the score assigned to a marker match. It is above
// anything a heuristic Detect may return, so a marker always wins.
const MarkerScore = 1000

// FallbackView is the view that catches content nothing else claims.
const FallbackView = "text"

// Engine resolves content to the view that should render it. It owns
// no views itself; everything comes from the injected registry.
type Engine struct {
	registry registry.Registry
	logger   zerolog.Logger
}

// New creates a detection engine over the given registry.
func New(reg registry.Registry) *Engine {
	return &Engine{
		registry: reg,
		logger:   logging.GetLogger("detect"),
	}
}

// Best returns the view that should render content.
//
// Resolution order:
//  1. empty content goes to the text fallback
//  2. a recognized content marker claims the content outright, the
//     heuristics never run
//  3. otherwise every view scores the content and the best score wins,
//     ties broken by priority and then registration order
func (e *Engine) Best(content string) (types.DetectionResult, error) {
	if content == "" {
		d, err := e.fallback()
		if err != nil {
			return types.DetectionResult{}, err
		}
		return types.DetectionResult{View: d.View, Score: 1}, nil
	}

	if d, ok := e.matchMarker(content); ok {
		e.logger.Debug().
			Str("view", d.View.Name()).
			Str("marker", d.Marker).
			Msg("Content claimed by marker")
		return types.DetectionResult{View: d.View, Score: MarkerScore, ByMarker: true}, nil
	}

	var (
		best  types.DetectionResult
		found bool
	)
	for _, d := range e.registry.ByPriority() {
		score := e.safeDetect(d, content)
		e.logger.Trace().
			Str("view", d.View.Name()).
			Int("score", score).
			Msg("Heuristic score")

		// ByPriority is already ordered by priority then registration,
		// so a strictly greater score is the only way to displace the
		// current winner.
		if score > 0 && (!found || score > best.Score) {
			best = types.DetectionResult{View: d.View, Score: score}
			found = true
		}
	}

	if !found {
		d, err := e.fallback()
		if err != nil {
			return types.DetectionResult{}, err
		}
		best = types.DetectionResult{View: d.View, Score: 1}
	}

	e.logger.Debug().
		Str("view", best.View.Name()).
		Int("score", best.Score).
		Str("content", logging.ClipContent(content)).
		Msg("Detection complete")
	return best, nil
}

// Scores returns the full scoreboard for content: every registered
// view with the score it produced, ordered best first. Marker matches
// appear with MarkerScore. Unlike Best, this runs every heuristic and
// is meant for diagnostics.
func (e *Engine) Scores(content string) []types.DetectionResult {
	views := e.registry.ByPriority()
	results := make([]types.DetectionResult, 0, len(views))

	for _, d := range views {
		r := types.DetectionResult{View: d.View}
		if d.Marker != "" && types.HasMarker(content, d.Marker) && e.claims(d) {
			r.Score = MarkerScore
			r.ByMarker = true
		} else if content != "" {
			r.Score = e.safeDetect(d, content)
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// matchMarker finds the registered view whose marker prefixes content.
// The longest matching marker wins so nested prefixes resolve to the
// more specific view.
func (e *Engine) matchMarker(content string) (types.Descriptor, bool) {
	var (
		best  types.Descriptor
		width int
		found bool
	)
	for _, marker := range e.registry.Markers() {
		if !types.HasMarker(content, marker) {
			continue
		}
		if d, ok := e.registry.ByMarker(marker); ok && len(marker) > width {
			best = d
			width = len(marker)
			found = true
		}
	}
	return best, found
}

// claims reports whether d is the registry's winner for its own
// marker. A lower-priority duplicate loses its marker score.
func (e *Engine) claims(d types.Descriptor) bool {
	winner, ok := e.registry.ByMarker(d.Marker)
	return ok && winner.View.Name() == d.View.Name()
}

// safeDetect runs a view's Detect with panic isolation. A panicking
// view scores zero instead of taking detection down.
func (e *Engine) safeDetect(d types.Descriptor, content string) (score int) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn().
				Str("view", d.View.Name()).
				Interface("panic", r).
				Str("content", logging.ClipContent(content)).
				Msg("View panicked during detection, scoring zero")
			score = 0
		}
	}()
	return d.View.Detect(content)
}

// fallback resolves the text view.
func (e *Engine) fallback() (types.Descriptor, error) {
	d, err := e.registry.Get(FallbackView)
	if err != nil {
		return types.Descriptor{}, errors.Wrap(err, errors.ErrViewNotFound,
			"no view matched and no text fallback is registered")
	}
	return d, nil
}
