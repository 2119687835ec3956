package views

import (
	"html"
	"regexp"
)

// escape is the HTML entity escaper used by every view that embeds
// raw content in markup.
func escape(s string) string {
	return html.EscapeString(s)
}

// scoreMatches counts occurrences of re in content, weights them and
// caps the contribution so one repeated pattern cannot dominate a
// scoreboard.
func scoreMatches(re *regexp.Regexp, content string, weight, limit int) int {
	n := len(re.FindAllStringIndex(content, -1))
	score := n * weight
	if score > limit {
		return limit
	}
	return score
}

// clampScore keeps heuristic totals below the decisive range, so a
// pile of weak hints can never outrank a signature match.
func clampScore(score, max int) int {
	if score > max {
		return max
	}
	return score
}
