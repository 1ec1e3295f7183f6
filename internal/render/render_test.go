package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/models"
)

func TestMarkdownRenderer(t *testing.T) {
	md := NewMarkdown()
	assert.Equal(t, models.FormatMarkdown, md.Format())

	html, err := md.ToHTML("# Title\n\nSome **bold** text.")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<strong>bold</strong>")
}

func TestMarkdownGFMTables(t *testing.T) {
	md := NewMarkdown()
	html, err := md.ToHTML("| a | b |\n|---|---|\n| 1 | 2 |")
	require.NoError(t, err)
	assert.Contains(t, html, "<table>")
}

func TestOrgRenderer(t *testing.T) {
	org := NewOrg()
	assert.Equal(t, models.FormatOrg, org.Format())

	html, err := org.ToHTML("* Heading\n\nbody text")
	require.NoError(t, err)
	assert.Contains(t, html, "Heading")
}

func TestPipelineUnknownFormat(t *testing.T) {
	p := NewPipeline(nil)
	_, err := p.Render(context.Background(), "asciidoc", "text")
	assert.True(t, wikierrors.Is(err, wikierrors.CodeValidation))
}

func TestPipelineDefaultsToMarkdown(t *testing.T) {
	p := NewPipeline(nil)
	html, err := p.Render(context.Background(), "", "plain paragraph")
	require.NoError(t, err)
	assert.Contains(t, html, "<p>plain paragraph</p>")
}

type upperPre struct{}

func (upperPre) Name() string { return "upper" }
func (upperPre) PreProcess(ctx context.Context, markup string) (string, error) {
	return strings.ToUpper(markup), nil
}

type suffixPost struct{}

func (suffixPost) Name() string { return "suffix" }
func (suffixPost) PostProcess(ctx context.Context, html string) (string, error) {
	return html + "<!--done-->", nil
}

type failingPre struct{}

func (failingPre) Name() string { return "failing" }
func (failingPre) PreProcess(ctx context.Context, markup string) (string, error) {
	return "", errors.New("broken")
}

func TestPipelineRunsExtensionsInOrder(t *testing.T) {
	p := NewPipeline(func() ([]PreProcessor, []PostProcessor) {
		return []PreProcessor{upperPre{}}, []PostProcessor{suffixPost{}}
	})

	html, err := p.Render(context.Background(), models.FormatMarkdown, "shout")
	require.NoError(t, err)
	assert.Contains(t, html, "SHOUT")
	assert.True(t, strings.HasSuffix(html, "<!--done-->"))
}

func TestPipelineSurfacesExtensionErrors(t *testing.T) {
	p := NewPipeline(func() ([]PreProcessor, []PostProcessor) {
		return []PreProcessor{failingPre{}}, nil
	})

	_, err := p.Render(context.Background(), models.FormatMarkdown, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
}
