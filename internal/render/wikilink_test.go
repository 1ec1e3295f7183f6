package render

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"squirrelwiki/internal/models"
)

type fakeResolver struct {
	pages map[string]models.Page
	paths map[int]string
}

func (f *fakeResolver) FindBySlugAnywhere(slug string) (models.Page, error) {
	if p, ok := f.pages[slug]; ok {
		return p, nil
	}
	return models.Page{}, sql.ErrNoRows
}

func (f *fakeResolver) GetPathByID(id int) (string, error) {
	if p, ok := f.paths[id]; ok {
		return p, nil
	}
	return "", sql.ErrNoRows
}

func TestWikiLinksRewriteKnownTargets(t *testing.T) {
	resolver := &fakeResolver{
		pages: map[string]models.Page{"setup": {ID: 7, Slug: "setup"}},
		paths: map[int]string{7: "guides/setup"},
	}
	w := NewWikiLinks(resolver, "/wiki")

	out, err := w.PreProcess(context.Background(), "see [[Setup]] first")
	require.NoError(t, err)
	assert.Equal(t, `see <a href="/wiki/guides/setup">Setup</a> first`, out)
}

func TestWikiLinksCustomLabel(t *testing.T) {
	resolver := &fakeResolver{
		pages: map[string]models.Page{"setup": {ID: 7, Slug: "setup"}},
		paths: map[int]string{7: "guides/setup"},
	}
	w := NewWikiLinks(resolver, "/wiki")

	out, err := w.PreProcess(context.Background(), "[[Setup|the install guide]]")
	require.NoError(t, err)
	assert.Equal(t, `<a href="/wiki/guides/setup">the install guide</a>`, out)
}

func TestWikiLinksMissingTargetGetsMarkerClass(t *testing.T) {
	w := NewWikiLinks(&fakeResolver{}, "/wiki")

	out, err := w.PreProcess(context.Background(), "[[No Such Page]]")
	require.NoError(t, err)
	assert.Equal(t, `<a href="/wiki/no-such-page" class="wiki-link-missing">No Such Page</a>`, out)
}

func TestWikiLinksPathTargetsAreSluggedPerSegment(t *testing.T) {
	w := NewWikiLinks(&fakeResolver{}, "/wiki")

	out, err := w.PreProcess(context.Background(), "[[Guides/Advanced Setup]]")
	require.NoError(t, err)
	assert.Equal(t, `<a href="/wiki/guides/advanced-setup">Guides/Advanced Setup</a>`, out)
}

func TestWikiLinksLeaveOtherTextAlone(t *testing.T) {
	w := NewWikiLinks(&fakeResolver{}, "/wiki")

	out, err := w.PreProcess(context.Background(), "no links here [not one]")
	require.NoError(t, err)
	assert.Equal(t, "no links here [not one]", out)
}
