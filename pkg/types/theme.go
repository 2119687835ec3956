package types

// Theme is the palette handed to views and the document composer.
// Values are CSS color literals.
type Theme struct {
	// Background fills the document body.
	Background string `json:"background"`

	// Foreground is the default text color.
	Foreground string `json:"foreground"`

	// Surface fills raised panels (cards, headers, toolbars).
	Surface string `json:"surface"`

	// Border outlines panels and separators.
	Border string `json:"border"`

	// Accent highlights interactive and emphasized elements.
	Accent string `json:"accent"`

	// Muted is the de-emphasized text color (labels, line numbers).
	Muted string `json:"muted"`

	// Extra carries view-specific overrides keyed by view name,
	// passed through untouched.
	Extra map[string]string `json:"extra,omitempty"`
}

// DefaultTheme returns the dark palette used when the host supplies
// none.
func DefaultTheme() Theme {
	return Theme{
		Background: "#1e1e1e",
		Foreground: "#d4d4d4",
		Surface:    "#252526",
		Border:     "#3c3c3c",
		Accent:     "#4a9eff",
		Muted:      "#808080",
	}
}

// Value returns the Extra override for key, or fallback when unset.
func (t Theme) Value(key, fallback string) string {
	if v, ok := t.Extra[key]; ok && v != "" {
		return v
	}
	return fallback
}
