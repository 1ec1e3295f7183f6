package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"squirrelwiki/internal/models"
)

// Markdown renders GitHub-flavored markdown via goldmark.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown creates the markdown renderer. Raw HTML is allowed because
// pre-processors emit anchor tags into the markup.
func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				gmhtml.WithUnsafe(),
			),
		),
	}
}

// Format implements Renderer.
func (m *Markdown) Format() string { return models.FormatMarkdown }

// ToHTML implements Renderer.
func (m *Markdown) ToHTML(markup string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(markup), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
