// Package views contains the built-in content views, one file per
// view. Each view scores content in Detect and produces a sandboxed
// HTML fragment in Render; optional capabilities (styles, scripts,
// markers, state) are declared by implementing the interfaces in
// pkg/types.
//
// The package exposes its views through the ordered Manifest;
// NewDefaultRegistry builds the production registry from it. Nothing
// here registers itself into a global.
package views
