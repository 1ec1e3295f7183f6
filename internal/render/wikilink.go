package render

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"squirrelwiki/internal/models"
	"squirrelwiki/internal/slug"
)

// PageResolver looks up pages for wiki-link targets. Implemented by the
// page repository.
type PageResolver interface {
	FindBySlugAnywhere(slug string) (models.Page, error)
	GetPathByID(id int) (string, error)
}

var wikiLinkPattern = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|([^\[\]]+))?\]\]`)

// WikiLinks rewrites [[Page Title]] and [[target|label]] markup into site
// links before rendering. Targets that resolve to no page are marked with
// a CSS class so the stylesheet can show them as missing.
type WikiLinks struct {
	pages    PageResolver
	basePath string
}

// NewWikiLinks creates the wiki-link pre-processor. basePath is the URL
// prefix pages are served under, such as "/wiki".
func NewWikiLinks(pages PageResolver, basePath string) *WikiLinks {
	return &WikiLinks{pages: pages, basePath: strings.TrimRight(basePath, "/")}
}

// Name implements PreProcessor.
func (w *WikiLinks) Name() string { return "wikilinks" }

// PreProcess implements PreProcessor.
func (w *WikiLinks) PreProcess(ctx context.Context, markup string) (string, error) {
	return wikiLinkPattern.ReplaceAllStringFunc(markup, func(match string) string {
		groups := wikiLinkPattern.FindStringSubmatch(match)
		target := strings.TrimSpace(groups[1])
		label := target
		if groups[2] != "" {
			label = strings.TrimSpace(groups[2])
		}
		return w.link(target, label)
	}), nil
}

func (w *WikiLinks) link(target, label string) string {
	// Path targets ("guides/setup") are linked segment by segment;
	// bare titles resolve to a page anywhere in the tree.
	if strings.Contains(target, "/") {
		parts := strings.Split(target, "/")
		for i, part := range parts {
			parts[i] = slug.Make(part)
		}
		return fmt.Sprintf(`<a href="%s/%s">%s</a>`, w.basePath, strings.Join(parts, "/"), escapeText(label))
	}

	targetSlug := slug.Make(target)
	page, err := w.pages.FindBySlugAnywhere(targetSlug)
	if err != nil {
		return fmt.Sprintf(`<a href="%s/%s" class="wiki-link-missing">%s</a>`, w.basePath, targetSlug, escapeText(label))
	}

	path, err := w.pages.GetPathByID(page.ID)
	if err != nil {
		path = targetSlug
	}
	return fmt.Sprintf(`<a href="%s/%s">%s</a>`, w.basePath, path, escapeText(label))
}

func escapeText(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
