package render

import (
	"strings"

	"github.com/niklasfasching/go-org/org"
	"squirrelwiki/internal/models"
)

// Org renders org-mode markup via go-org, with chroma code highlighting.
type Org struct{}

// NewOrg creates the org renderer.
func NewOrg() *Org { return &Org{} }

// Format implements Renderer.
func (o *Org) Format() string { return models.FormatOrg }

// ToHTML implements Renderer.
func (o *Org) ToHTML(markup string) (string, error) {
	writer := org.NewHTMLWriter()
	writer.HighlightCodeBlock = func(source, lang string, inline bool, params map[string]string) string {
		highlighted, err := HighlightCode(source, lang)
		if err != nil {
			return source
		}
		return highlighted
	}
	return org.New().Parse(strings.NewReader(markup), "").Write(writer)
}
