package types

import "strings"

// Content markers routed by the detection engine. A marker is a
// dollar-fenced literal at the very start of the content; everything
// after it (and one optional newline) is the payload.
const (
	// MultiviewMarker prefixes a multiview envelope produced by the
	// upstream parser chain.
	MultiviewMarker = "$WAS_MULTIVIEW$"

	// ObjectMarker prefixes an object-inspector envelope.
	ObjectMarker = "$WAS_OBJECT$"

	// CanvasMarker prefixes a canvas composition envelope.
	CanvasMarker = "$WAS_CANVAS$"

	// CanvasOutputMarker prefixes a canvas result payload flowing back
	// out of the composer.
	CanvasOutputMarker = "$WAS_CANVAS_OUTPUT$"
)

// ListSeparator is the token that joins list items into a single
// string. Items are joined with the token on its own line.
const ListSeparator = "---LIST_SEPARATOR---"

// listJoin is the exact join sequence between items.
const listJoin = "\n" + ListSeparator + "\n"

// JoinList flattens items into one string with the list separator on
// its own line between entries.
func JoinList(items []string) string {
	return strings.Join(items, listJoin)
}

// SplitList splits content back into items. It inverts JoinList and
// also tolerates separators without the surrounding newlines. Content
// without a separator comes back as a single item.
func SplitList(content string) []string {
	if !strings.Contains(content, ListSeparator) {
		return []string{content}
	}
	parts := strings.Split(content, ListSeparator)
	items := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = strings.TrimPrefix(p, "\n")
		}
		if i < len(parts)-1 {
			p = strings.TrimSuffix(p, "\n")
		}
		items = append(items, p)
	}
	return items
}

// IsListContent reports whether content carries the list separator.
func IsListContent(content string) bool {
	return strings.Contains(content, ListSeparator)
}

// HasMarker reports whether content starts with the given marker.
func HasMarker(content, marker string) bool {
	return marker != "" && strings.HasPrefix(content, marker)
}

// TrimMarker removes a leading marker and the single newline that
// usually follows it. Content not carrying the marker is returned
// unchanged.
func TrimMarker(content, marker string) string {
	if !HasMarker(content, marker) {
		return content
	}
	rest := content[len(marker):]
	rest = strings.TrimPrefix(rest, "\n")
	return rest
}

// DetectionResult pairs a view with the score its Detect returned for
// some content.
type DetectionResult struct {
	View  View
	Score int

	// ByMarker reports whether the score came from a marker match
	// rather than heuristics.
	ByMarker bool
}
