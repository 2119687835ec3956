package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

const (
	ANSIViewName     = "ansi"
	ANSIViewPriority = 10
)

// ansiPalette maps the 16 base terminal colors to hex values.
var ansiPalette = [16]string{
	"#000000", "#cd3131", "#0dbc79", "#e5e510",
	"#2472c8", "#bc3fbc", "#11a8cd", "#e5e5e5",
	"#666666", "#f14c4c", "#23d18b", "#f5f543",
	"#3b8eea", "#d670d6", "#29b8db", "#ffffff",
}

// ANSIView renders terminal output: SGR sequences become spans, every
// other escape sequence is dropped.
type ANSIView struct{}

// NewANSIView creates the terminal output view.
func NewANSIView() *ANSIView {
	return &ANSIView{}
}

// Name returns the unique name of this view.
func (v *ANSIView) Name() string {
	return ANSIViewName
}

// DisplayName returns the label shown in view selectors.
func (v *ANSIView) DisplayName() string {
	return "Terminal"
}

// Priority returns the detection tie-break priority.
func (v *ANSIView) Priority() int {
	return ANSIViewPriority
}

// Detect treats any CSI introducer as a signature. Plain text never
// contains one.
func (v *ANSIView) Detect(content string) int {
	if strings.Contains(content, "\x1b[") {
		return 100
	}
	return 0
}

// Render converts the escape sequences to markup.
func (v *ANSIView) Render(content string, _ types.Theme) (string, error) {
	return fmt.Sprintf(`<pre class="ansi-view">%s</pre>`, convertANSI(content)), nil
}

// Styles returns the terminal block plus the 16-color palette classes.
func (v *ANSIView) Styles(theme types.Theme) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `.ansi-view {
  margin: 0;
  padding: 12px;
  background: #101010;
  color: %s;
  font-family: ui-monospace, "Cascadia Code", Menlo, monospace;
  font-size: 13px;
  line-height: 1.4;
  white-space: pre-wrap;
  word-break: break-word;
}
.ansi-bold { font-weight: bold; }
.ansi-dim { opacity: 0.7; }
.ansi-italic { font-style: italic; }
.ansi-underline { text-decoration: underline; }
.ansi-strike { text-decoration: line-through; }
`, theme.Foreground)
	for i, hex := range ansiPalette {
		fmt.Fprintf(&sb, ".ansi-fg-%d { color: %s; }\n", i, hex)
		fmt.Fprintf(&sb, ".ansi-bg-%d { background-color: %s; }\n", i, hex)
	}
	return sb.String()
}

// sgrState tracks the active SGR attributes while converting.
type sgrState struct {
	fgClass, bgClass string
	fgColor, bgColor string
	bold, dim        bool
	italic           bool
	underline        bool
	strike           bool
}

func (st *sgrState) reset() {
	*st = sgrState{}
}

func (st *sgrState) isDefault() bool {
	return *st == sgrState{}
}

func (st *sgrState) classes() []string {
	var classes []string
	if st.fgClass != "" {
		classes = append(classes, st.fgClass)
	}
	if st.bgClass != "" {
		classes = append(classes, st.bgClass)
	}
	if st.bold {
		classes = append(classes, "ansi-bold")
	}
	if st.dim {
		classes = append(classes, "ansi-dim")
	}
	if st.italic {
		classes = append(classes, "ansi-italic")
	}
	if st.underline {
		classes = append(classes, "ansi-underline")
	}
	if st.strike {
		classes = append(classes, "ansi-strike")
	}
	return classes
}

func (st *sgrState) inlineStyle() string {
	var parts []string
	if st.fgColor != "" {
		parts = append(parts, "color:"+st.fgColor)
	}
	if st.bgColor != "" {
		parts = append(parts, "background-color:"+st.bgColor)
	}
	return strings.Join(parts, ";")
}

// apply folds one SGR parameter string into the state.
func (st *sgrState) apply(params string) {
	if params == "" {
		st.reset()
		return
	}

	parts := strings.Split(params, ";")
	for i := 0; i < len(parts); i++ {
		n := 0
		if parts[i] != "" {
			v, err := strconv.Atoi(parts[i])
			if err != nil {
				continue
			}
			n = v
		}

		switch {
		case n == 0:
			st.reset()
		case n == 1:
			st.bold = true
		case n == 2:
			st.dim = true
		case n == 3:
			st.italic = true
		case n == 4:
			st.underline = true
		case n == 9:
			st.strike = true
		case n == 22:
			st.bold, st.dim = false, false
		case n == 23:
			st.italic = false
		case n == 24:
			st.underline = false
		case n == 29:
			st.strike = false
		case n >= 30 && n <= 37:
			st.fgClass, st.fgColor = fmt.Sprintf("ansi-fg-%d", n-30), ""
		case n >= 90 && n <= 97:
			st.fgClass, st.fgColor = fmt.Sprintf("ansi-fg-%d", n-90+8), ""
		case n == 39:
			st.fgClass, st.fgColor = "", ""
		case n >= 40 && n <= 47:
			st.bgClass, st.bgColor = fmt.Sprintf("ansi-bg-%d", n-40), ""
		case n >= 100 && n <= 107:
			st.bgClass, st.bgColor = fmt.Sprintf("ansi-bg-%d", n-100+8), ""
		case n == 49:
			st.bgClass, st.bgColor = "", ""
		case n == 38 || n == 48:
			color, consumed := extendedColor(parts[i+1:])
			if color == "" {
				i += consumed
				continue
			}
			if n == 38 {
				st.fgClass, st.fgColor = "", color
			} else {
				st.bgClass, st.bgColor = "", color
			}
			i += consumed
		}
	}
}

// extendedColor decodes the 5;n and 2;r;g;b color forms, returning
// the css color and how many parameters were consumed.
func extendedColor(rest []string) (string, int) {
	if len(rest) == 0 {
		return "", 0
	}
	switch rest[0] {
	case "5":
		if len(rest) < 2 {
			return "", len(rest)
		}
		n, err := strconv.Atoi(rest[1])
		if err != nil {
			return "", 2
		}
		return xterm256(n), 2
	case "2":
		if len(rest) < 4 {
			return "", len(rest)
		}
		r, err1 := strconv.Atoi(rest[1])
		g, err2 := strconv.Atoi(rest[2])
		b, err3 := strconv.Atoi(rest[3])
		if err1 != nil || err2 != nil || err3 != nil {
			return "", 4
		}
		return fmt.Sprintf("#%02x%02x%02x", r&0xff, g&0xff, b&0xff), 4
	}
	return "", 1
}

// xterm256 maps a 256-color index to hex.
func xterm256(n int) string {
	switch {
	case n >= 0 && n < 16:
		return ansiPalette[n]
	case n >= 16 && n < 232:
		n -= 16
		conv := func(v int) int {
			if v == 0 {
				return 0
			}
			return 55 + 40*v
		}
		return fmt.Sprintf("#%02x%02x%02x", conv(n/36), conv((n/6)%6), conv(n%6))
	case n >= 232 && n < 256:
		v := 8 + 10*(n-232)
		return fmt.Sprintf("#%02x%02x%02x", v, v, v)
	}
	return ""
}

// convertANSI walks the content once, translating SGR runs into spans
// and dropping every other escape sequence.
func convertANSI(content string) string {
	var sb strings.Builder
	var st sgrState
	open := false

	closeSpan := func() {
		if open {
			sb.WriteString("</span>")
			open = false
		}
	}
	openSpan := func() {
		if st.isDefault() {
			return
		}
		sb.WriteString(`<span`)
		if classes := st.classes(); len(classes) > 0 {
			fmt.Fprintf(&sb, ` class="%s"`, strings.Join(classes, " "))
		}
		if style := st.inlineStyle(); style != "" {
			fmt.Fprintf(&sb, ` style="%s"`, style)
		}
		sb.WriteString(`>`)
		open = true
	}

	i := 0
	for i < len(content) {
		if content[i] != 0x1b {
			j := strings.IndexByte(content[i:], 0x1b)
			if j < 0 {
				sb.WriteString(escape(content[i:]))
				break
			}
			sb.WriteString(escape(content[i : i+j]))
			i += j
			continue
		}

		if i+1 >= len(content) {
			break
		}
		switch content[i+1] {
		case '[':
			j := i + 2
			for j < len(content) && (content[j] < 0x40 || content[j] > 0x7e) {
				j++
			}
			if j >= len(content) {
				i = len(content)
				break
			}
			if content[j] == 'm' {
				closeSpan()
				st.apply(content[i+2 : j])
				openSpan()
			}
			i = j + 1
		case ']':
			// OSC, terminated by BEL or ST.
			end := len(content)
			if k := strings.IndexByte(content[i:], '\a'); k >= 0 {
				end = i + k + 1
			} else if k := strings.Index(content[i:], "\x1b\\"); k >= 0 {
				end = i + k + 2
			}
			i = end
		default:
			i += 2
		}
	}

	closeSpan()
	return sb.String()
}
