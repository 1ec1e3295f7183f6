// Package render turns page markup into HTML. A pipeline runs ordered
// pre-processors over the raw markup, hands the result to the renderer for
// the page's format, and runs ordered post-processors over the HTML.
package render

import (
	"context"
	"fmt"

	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/models"
)

// Renderer converts one markup format to HTML.
type Renderer interface {
	Format() string
	ToHTML(markup string) (string, error)
}

// PreProcessor transforms raw markup before rendering.
type PreProcessor interface {
	Name() string
	PreProcess(ctx context.Context, markup string) (string, error)
}

// PostProcessor transforms rendered HTML.
type PostProcessor interface {
	Name() string
	PostProcess(ctx context.Context, html string) (string, error)
}

// ExtensionResolver returns the currently active processors. The plugin
// manager supplies this so extensions follow plugin enablement without a
// restart.
type ExtensionResolver func() (pre []PreProcessor, post []PostProcessor)

// Pipeline implements page rendering over a set of format renderers and
// plugin-provided processors.
type Pipeline struct {
	renderers  map[string]Renderer
	extensions ExtensionResolver
}

// NewPipeline creates a pipeline with the built-in markdown and org
// renderers. A nil resolver means no extensions.
func NewPipeline(extensions ExtensionResolver) *Pipeline {
	p := &Pipeline{
		renderers:  make(map[string]Renderer),
		extensions: extensions,
	}
	if p.extensions == nil {
		p.extensions = func() ([]PreProcessor, []PostProcessor) { return nil, nil }
	}
	p.Register(NewMarkdown())
	p.Register(NewOrg())
	return p
}

// Register adds or replaces the renderer for a format.
func (p *Pipeline) Register(r Renderer) {
	p.renderers[r.Format()] = r
}

// Render implements the page service's Renderer contract.
func (p *Pipeline) Render(ctx context.Context, format, markup string) (string, error) {
	if format == "" {
		format = models.FormatMarkdown
	}
	renderer, ok := p.renderers[format]
	if !ok {
		return "", wikierrors.Validation("no renderer for format " + format)
	}

	pre, post := p.extensions()

	var err error
	for _, proc := range pre {
		markup, err = proc.PreProcess(ctx, markup)
		if err != nil {
			return "", fmt.Errorf("pre-processor %s: %w", proc.Name(), err)
		}
	}

	html, err := renderer.ToHTML(markup)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", format, err)
	}

	for _, proc := range post {
		html, err = proc.PostProcess(ctx, html)
		if err != nil {
			return "", fmt.Errorf("post-processor %s: %w", proc.Name(), err)
		}
	}
	return html, nil
}
