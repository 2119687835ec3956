// Package types defines the core contracts shared across the viewer:
// the View interface, its optional capability interfaces, the theme
// palette, the host/core message unions and their wire codec, and the
// content shape helpers (markers, list separator).
//
// It contains no behavior beyond pure functions so every other package
// can depend on it without cycles.
package types
