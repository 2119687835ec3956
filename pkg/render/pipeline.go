// Package render turns content strings into complete, isolated
// documents. It resolves the active view (detection, multiview
// envelopes, host overrides), folds persisted state back in, splits
// delimited lists into independently rendered item shells and composes
// fragments with theme-aware styles and scripts. View failures degrade
// to a placeholder fragment; the pipeline itself never dies on content
// shape.
package render

import (
	"fmt"
	"html"
	"time"

	"github.com/rs/zerolog"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/assets"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/detect"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/logging"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/multiview"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/registry"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/viewstate"
)

// DefaultReadyTimeout bounds how long a slot waits for its surface to
// report ready before giving up on script posting.
const DefaultReadyTimeout = 3 * time.Second

// Pipeline composes documents from content using a view registry, a
// detection engine and an optional asset loader.
type Pipeline struct {
	registry     registry.Registry
	engine       *detect.Engine
	assets       *assets.Loader
	readyTimeout time.Duration
	logger       zerolog.Logger
}

// New creates a render pipeline over the given registry. loader may be
// nil; views then render their base functionality without external
// assets.
func New(reg registry.Registry, loader *assets.Loader) *Pipeline {
	return &Pipeline{
		registry:     reg,
		engine:       detect.New(reg),
		assets:       loader,
		readyTimeout: DefaultReadyTimeout,
		logger:       logging.GetLogger("render"),
	}
}

// SetReadyTimeout overrides the surface-ready wait used by slots.
func (p *Pipeline) SetReadyTimeout(d time.Duration) {
	if d > 0 {
		p.readyTimeout = d
	}
}

// Registry returns the view registry the pipeline renders with.
func (p *Pipeline) Registry() registry.Registry {
	return p.registry
}

// Engine returns the pipeline's detection engine.
func (p *Pipeline) Engine() *detect.Engine {
	return p.engine
}

// Assets returns the pipeline's asset loader, or nil.
func (p *Pipeline) Assets() *assets.Loader {
	return p.assets
}

// ViewOption is one entry of the view-switcher control.
type ViewOption struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Result is one composed render.
type Result struct {
	// Document is the composed output.
	Document Document

	// View is the active view's name, or "" for list documents.
	View string

	// Options lists the switchable views when the content was a
	// multiview envelope.
	Options []ViewOption

	// Items is the list length, zero for single content.
	Items int

	// Hash identifies the rendered input for staleness checks.
	Hash string

	// Dependencies are asset keys requested but not yet available; the
	// arrival of any of them warrants a re-render.
	Dependencies []string
}

// Render composes the document for content. List-shaped content renders
// every item independently inside the shell chrome; everything else
// resolves to a single view.
func (p *Pipeline) Render(content string, hc *types.HostContext) (*Result, error) {
	theme := themeOf(hc)
	if types.IsListContent(content) {
		return p.renderList(content, hc, theme)
	}
	return p.renderSingle(content, hc, theme)
}

func (p *Pipeline) renderSingle(content string, hc *types.HostContext, theme types.Theme) (*Result, error) {
	desc, display, options, err := p.resolve(content, hc)
	if err != nil {
		return nil, err
	}

	display = p.applyState(desc, display, hc)
	fragment := p.renderFragment(desc, display, theme, hc)

	var scriptBlocks []string
	scriptBlocks = append(scriptBlocks, p.assetScripts(desc, nil)...)
	if js := desc.Scripts(); js != "" {
		scriptBlocks = append(scriptBlocks, js)
	}

	pending := p.requestDependencies(desc, nil)
	announceDependencies(hc, pending)

	doc := composeDocument(theme, !desc.OmitBaseStyles, []string{p.safeStyles(desc, theme)}, fragment, scriptBlocks)

	p.logger.Debug().
		Str("view", desc.View.Name()).
		Str("content", logging.ClipContent(content)).
		Msg("composed document")

	return &Result{
		Document:     doc,
		View:         desc.View.Name(),
		Options:      options,
		Hash:         viewstate.InputHash(content),
		Dependencies: pending,
	}, nil
}

func (p *Pipeline) renderList(content string, hc *types.HostContext, theme types.Theme) (*Result, error) {
	rawItems := types.SplitList(content)
	excluded := p.exclusionSet(hc)

	items := make([]listItem, 0, len(rawItems))
	styleBlocks := []string{listStyles()}
	scriptBlocks := []string{listScript()}
	styleSeen := map[string]bool{}
	scriptSeen := map[string]bool{}
	assetSeen := map[string]bool{}

	var pending []string
	pendingSeen := map[string]bool{}

	for i, raw := range rawItems {
		desc, display, _, err := p.resolve(raw, hc)
		if err != nil {
			return nil, err
		}
		display = p.applyState(desc, display, hc)

		name := desc.View.Name()
		items = append(items, listItem{
			index:    i,
			view:     name,
			fragment: p.renderFragment(desc, display, theme, hc),
			raw:      raw,
			excluded: excluded[i],
		})

		if !styleSeen[name] {
			styleSeen[name] = true
			if css := p.safeStyles(desc, theme); css != "" {
				styleBlocks = append(styleBlocks, css)
			}
		}
		if !scriptSeen[name] {
			scriptSeen[name] = true
			scriptBlocks = append(scriptBlocks, p.assetScripts(desc, assetSeen)...)
			if js := desc.Scripts(); js != "" {
				scriptBlocks = append(scriptBlocks, js)
			}
		}
		pending = append(pending, p.requestDependencies(desc, pendingSeen)...)
	}

	announceDependencies(hc, pending)

	fragment := renderListFragment(hostNodeID(hc), items)
	doc := composeDocument(theme, true, styleBlocks, fragment, scriptBlocks)

	p.logger.Debug().Int("items", len(items)).Msg("composed list document")

	return &Result{
		Document:     doc,
		Items:        len(items),
		Hash:         viewstate.InputHash(content),
		Dependencies: pending,
	}, nil
}

// resolve picks the active view and the content it should display.
// Multiview envelopes resolve through the codec, a host override pins
// the view when it is registered, and everything else goes through
// detection.
func (p *Pipeline) resolve(content string, hc *types.HostContext) (types.Descriptor, string, []ViewOption, error) {
	if multiview.IsMultiview(content) {
		env, err := multiview.Parse(content, p.registry)
		if err != nil {
			// Fall back to ordinary detection on the raw bytes.
			p.logger.Warn().Err(err).Msg("multiview envelope rejected")
		} else {
			entry := env.ActiveEntry(overrideOf(hc))
			if desc, gerr := p.registry.Get(entry.Name); gerr == nil {
				return desc, entry.DisplayContent, p.viewOptions(env), nil
			}
		}
	}

	if override := overrideOf(hc); override != "" {
		if desc, err := p.registry.Get(override); err == nil {
			return desc, content, nil, nil
		}
		p.logger.Warn().Str("view", override).Msg("view override not registered, using detection")
	}

	res, err := p.engine.Best(content)
	if err != nil {
		return types.Descriptor{}, "", nil, err
	}
	desc, err := p.registry.Get(res.View.Name())
	if err != nil {
		return types.Descriptor{}, "", nil, errors.Wrapf(err, errors.ErrViewNotFound, "detected view %q vanished", res.View.Name())
	}
	return desc, content, nil, nil
}

// viewOptions maps envelope entries to switcher options.
func (p *Pipeline) viewOptions(env *multiview.Envelope) []ViewOption {
	names := env.Options()
	options := make([]ViewOption, 0, len(names))
	for _, name := range names {
		desc, err := p.registry.Get(name)
		if err != nil {
			continue
		}
		options = append(options, ViewOption{ID: name, DisplayName: desc.View.DisplayName()})
	}
	return options
}

// applyState folds the view's persisted state into the content,
// invalidating output entries when the input has changed underneath
// them. A blob that cannot be used renders fresh instead of failing.
func (p *Pipeline) applyState(desc types.Descriptor, content string, hc *types.HostContext) string {
	blob := viewstate.ExtractState(desc, hc)
	if len(blob) == 0 {
		return content
	}

	fresh, changed := viewstate.InvalidateStale(blob, viewstate.InputHash(content))
	if changed {
		blob = fresh
		if hc != nil && hc.Store != nil {
			if err := hc.Store.SetViewState(hc.NodeID, desc.View.Name(), fresh); err != nil {
				p.logger.Warn().Err(err).Str("view", desc.View.Name()).Msg("writing invalidated state failed")
			}
		}
	}

	return viewstate.InjectState(desc, content, blob)
}

// renderFragment calls the view's Render with panic and error
// isolation. A failing view yields a placeholder fragment and a
// render_failed message; it never takes the pipeline down.
func (p *Pipeline) renderFragment(desc types.Descriptor, content string, theme types.Theme, hc *types.HostContext) string {
	name := desc.View.Name()

	fragment, err := func() (out string, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Newf(errors.ErrRenderFailed, "view %s panicked: %v", name, r)
			}
		}()
		return desc.View.Render(content, theme)
	}()
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("view", name).
			Str("content", logging.ClipContent(content)).
			Msg("view render failed")
		if hc != nil {
			hc.Send(types.RenderFailed{NodeID: hc.NodeID, View: name, Reason: err.Error()})
		}
		return errorFragment(name, err)
	}
	return fragment
}

// safeStyles guards a view's Styles the same way renderFragment guards
// Render.
func (p *Pipeline) safeStyles(desc types.Descriptor, theme types.Theme) (css string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn().
				Str("view", desc.View.Name()).
				Interface("panic", r).
				Msg("view styles panicked")
			css = ""
		}
	}()
	return desc.Styles(theme)
}

// assetScripts returns script blocks for the view's dependencies that
// already arrived. seen dedups keys across list items; nil means no
// dedup.
func (p *Pipeline) assetScripts(desc types.Descriptor, seen map[string]bool) []string {
	if p.assets == nil {
		return nil
	}
	var blocks []string
	for _, key := range desc.Dependencies {
		if seen != nil {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		blob, ok := p.assets.Get(key)
		if !ok {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("<script data-asset=%q>\n%s\n</script>", key, blob))
	}
	return blocks
}

// requestDependencies starts fetches for the view's not-yet-loaded
// dependencies and returns their keys. seen dedups across list items.
func (p *Pipeline) requestDependencies(desc types.Descriptor, seen map[string]bool) []string {
	if p.assets == nil || len(desc.Dependencies) == 0 {
		return nil
	}
	var pending []string
	for _, key := range desc.Dependencies {
		if seen != nil && seen[key] {
			continue
		}
		if _, ok := p.assets.Get(key); ok {
			continue
		}
		if seen != nil {
			seen[key] = true
		}
		p.assets.Request(key)
		pending = append(pending, key)
	}
	return pending
}

// exclusionSet reads the host's excluded indices for the node.
func (p *Pipeline) exclusionSet(hc *types.HostContext) map[int]bool {
	set := map[int]bool{}
	if hc == nil || hc.Store == nil {
		return set
	}
	indices, err := hc.Store.Exclusions(hc.NodeID)
	if err != nil {
		p.logger.Warn().Err(err).Str("node", hc.NodeID).Msg("reading exclusions failed")
		return set
	}
	for _, i := range indices {
		set[i] = true
	}
	return set
}

// errorFragment is the placeholder shown in place of a failed view.
func errorFragment(view string, err error) string {
	return fmt.Sprintf(`<div class="render-error"><span class="render-error-view">%s</span> could not display this content: %s</div>`,
		html.EscapeString(view), html.EscapeString(err.Error()))
}

func announceDependencies(hc *types.HostContext, keys []string) {
	if hc == nil || len(keys) == 0 {
		return
	}
	hc.Send(types.DependenciesChanged{NodeID: hc.NodeID, Keys: keys})
}

func themeOf(hc *types.HostContext) types.Theme {
	if hc == nil || hc.Theme.Background == "" {
		return types.DefaultTheme()
	}
	return hc.Theme
}

func overrideOf(hc *types.HostContext) string {
	if hc == nil {
		return ""
	}
	return hc.ViewOverride
}

func hostNodeID(hc *types.HostContext) string {
	if hc == nil {
		return ""
	}
	return hc.NodeID
}
