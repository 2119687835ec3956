package views

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

const (
	CSVViewName     = "csv"
	CSVViewPriority = 10
)

// csvDelimiters are tried in order during detection and rendering.
var csvDelimiters = []rune{',', ';', '\t'}

// CSVView renders delimiter-separated tables. Comma, semicolon and
// tab are recognized; the first delimiter that parses with uniform
// field counts wins.
type CSVView struct{}

// NewCSVView creates the tabular view.
func NewCSVView() *CSVView {
	return &CSVView{}
}

// Name returns the unique name of this view.
func (v *CSVView) Name() string {
	return CSVViewName
}

// DisplayName returns the label shown in view selectors.
func (v *CSVView) DisplayName() string {
	return "CSV"
}

// Priority returns the detection tie-break priority.
func (v *CSVView) Priority() int {
	return CSVViewPriority
}

// Detect requires at least two rows and two columns with a uniform
// field count. That shape is specific enough to outrank every
// heuristic without reaching signature strength.
func (v *CSVView) Detect(content string) int {
	if _, _, ok := parseCSV(content); ok {
		return 80
	}
	return 0
}

// Render emits a table with the first row as header.
func (v *CSVView) Render(content string, _ types.Theme) (string, error) {
	records, _, ok := parseCSV(content)
	if !ok {
		return "", errors.New(errors.ErrRenderFailed, "content is not a uniform delimited table")
	}

	var sb strings.Builder
	sb.WriteString(`<table class="csv-view"><thead><tr>`)
	for _, cell := range records[0] {
		fmt.Fprintf(&sb, `<th>%s</th>`, escape(cell))
	}
	sb.WriteString(`</tr></thead><tbody>`)
	for _, row := range records[1:] {
		sb.WriteString(`<tr>`)
		for _, cell := range row {
			fmt.Fprintf(&sb, `<td>%s</td>`, escape(cell))
		}
		sb.WriteString(`</tr>`)
	}
	sb.WriteString(`</tbody></table>`)
	return sb.String(), nil
}

// Styles returns the table styling.
func (v *CSVView) Styles(theme types.Theme) string {
	return fmt.Sprintf(`.csv-view {
  border-collapse: collapse;
  margin: 12px;
  font-size: 13px;
}
.csv-view th {
  background: %s;
  color: %s;
  text-align: left;
}
.csv-view th, .csv-view td {
  border: 1px solid %s;
  padding: 6px 12px;
}
.csv-view tbody tr:nth-child(even) { background: %s; }`,
		theme.Surface, theme.Accent, theme.Border, theme.Surface)
}

// parseCSV tries each delimiter and returns the first parse with at
// least two rows, at least two columns and a uniform field count.
func parseCSV(content string) ([][]string, rune, bool) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || strings.Count(trimmed, "\n") == 0 {
		return nil, 0, false
	}

	for _, delim := range csvDelimiters {
		r := csv.NewReader(strings.NewReader(trimmed))
		r.Comma = delim
		// FieldsPerRecord zero enforces the first row's width on all rows.
		r.FieldsPerRecord = 0

		records, err := r.ReadAll()
		if err != nil || len(records) < 2 || len(records[0]) < 2 {
			continue
		}
		return records, delim, true
	}
	return nil, 0, false
}
