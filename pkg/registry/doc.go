// Package registry holds the view registry. It is deliberately
// instance-based: callers construct a Registry, register views into
// it, and hand it to the detection engine and render pipeline. There
// is no package-level singleton, which keeps tests hermetic and lets
// embedders run differently-populated registries side by side.
//
// Capability probing happens once at registration. Everything
// downstream works with types.Descriptor values, never with direct
// type assertions on views.
package registry
