package render

import (
	"bytes"

	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightCode renders source through chroma with CSS classes, falling
// back to the plain-text lexer for unknown languages.
func HighlightCode(source, lang string) (string, error) {
	var buf bytes.Buffer
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return "", err
	}
	formatter := html.New(html.WithClasses(true))
	if err := formatter.Format(&buf, styles.Get("friendly"), iterator); err != nil {
		return "", err
	}
	return buf.String(), nil
}
