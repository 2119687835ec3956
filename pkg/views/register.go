package views

import (
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/registry"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

// Manifest returns the production views in registration order. The
// order matters: it is the final tie breaker when detection scores and
// priorities are equal.
func Manifest() []types.View {
	return []types.View{
		NewCanvasView(),
		NewHTMLView(),
		NewSVGView(),
		NewMarkdownView(),
		NewJSONView(),
		NewCSVView(),
		NewYAMLView(),
		NewANSIView(),
		NewPythonView(),
		NewJavaScriptView(),
		NewCSSView(),
		NewObjectView(),
		NewTextView(),
	}
}

// NewDefaultRegistry builds a registry populated with the full
// production manifest.
func NewDefaultRegistry() (registry.Registry, error) {
	reg := registry.New()
	for _, v := range Manifest() {
		if err := reg.Register(v); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// NewRegistryFor builds a registry containing only the named views, in
// the given order. Empty ids means the full manifest.
func NewRegistryFor(ids []string) (registry.Registry, error) {
	if len(ids) == 0 {
		return NewDefaultRegistry()
	}

	byName := make(map[string]types.View)
	for _, v := range Manifest() {
		byName[v.Name()] = v
	}

	reg := registry.New()
	for _, id := range ids {
		v, ok := byName[id]
		if !ok {
			return nil, errors.Newf(errors.ErrViewNotFound, "unknown view %q in manifest", id)
		}
		if err := reg.Register(v); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
