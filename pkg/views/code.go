package views

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
)

// codeStyle is the chroma style shared by the code views.
var codeStyle = styles.Get("monokai")

// codeFormatter builds the class-based formatter used for both markup
// and stylesheet generation.
func codeFormatter() *chromahtml.Formatter {
	return chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.WithLineNumbers(true),
	)
}

// renderCode highlights content with the named lexer and wraps it for
// display.
func renderCode(content, lexerName string) (string, error) {
	lexer := lexers.Get(lexerName)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrRenderFailed, "tokenizing %s", lexerName)
	}

	var sb strings.Builder
	sb.WriteString(`<div class="code-view">`)
	if err := codeFormatter().Format(&sb, codeStyle, iterator); err != nil {
		return "", errors.Wrapf(err, errors.ErrRenderFailed, "highlighting %s", lexerName)
	}
	sb.WriteString(`</div>`)
	return sb.String(), nil
}

// codeCSS returns the stylesheet matching the class-based output.
func codeCSS() string {
	var sb strings.Builder
	sb.WriteString(`.code-view {
  padding: 12px;
  overflow-x: auto;
  font-size: 13px;
  line-height: 1.5;
}
`)
	if err := codeFormatter().WriteCSS(&sb, codeStyle); err != nil {
		return sb.String()
	}
	return sb.String()
}
