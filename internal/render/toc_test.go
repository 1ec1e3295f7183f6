package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOCReplacesMarker(t *testing.T) {
	toc := NewTOC(1)
	input := `<!--toc--><h1>Intro</h1><p>text</p><h2>Details</h2>`

	out, err := toc.PostProcess(context.Background(), input)
	require.NoError(t, err)

	assert.NotContains(t, out, "<!--toc-->")
	assert.Contains(t, out, `<nav class="toc">`)
	assert.Contains(t, out, `<a href="#intro">Intro</a>`)
	assert.Contains(t, out, `<a href="#details">Details</a>`)
	// Headings received matching anchor ids.
	assert.Contains(t, out, `<h1 id="intro">Intro</h1>`)
}

func TestTOCKeepsExistingIDs(t *testing.T) {
	toc := NewTOC(1)
	input := `<!--toc--><h2 id="custom">Custom</h2>`

	out, err := toc.PostProcess(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, out, `<a href="#custom">Custom</a>`)
	assert.Contains(t, out, `<h2 id="custom">Custom</h2>`)
}

func TestTOCDeduplicatesGeneratedIDs(t *testing.T) {
	toc := NewTOC(1)
	input := `<!--toc--><h2>Same</h2><h2>Same</h2>`

	out, err := toc.PostProcess(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, out, `id="same"`)
	assert.Contains(t, out, `id="same-1"`)
}

func TestTOCWithoutMarkerIsUntouched(t *testing.T) {
	toc := NewTOC(1)
	input := `<h1>Intro</h1>`

	out, err := toc.PostProcess(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

func TestTOCMinHeadingsSuppressesShortLists(t *testing.T) {
	toc := NewTOC(3)
	input := `<!--toc--><h1>Only</h1>`

	out, err := toc.PostProcess(context.Background(), input)
	require.NoError(t, err)
	assert.NotContains(t, out, "<nav")
	assert.NotContains(t, out, "<!--toc-->")
}

func TestTOCNestsLevels(t *testing.T) {
	toc := NewTOC(1)
	input := `<!--toc--><h1>A</h1><h2>B</h2><h1>C</h1>`

	out, err := toc.PostProcess(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, out, `<ul><li><a href="#a">A</a></li><ul><li><a href="#b">B</a></li></ul><li><a href="#c">C</a></li></ul>`)
}
