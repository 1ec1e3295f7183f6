package models

import "time"

// Page formats understood by the render pipeline.
const (
	FormatMarkdown = "markdown"
	FormatOrg      = "org"
)

// Page represents a single wiki page.
type Page struct {
	ID               int
	ParentID         *int
	CategoryID       *int
	Slug             string
	Title            string
	Format           string
	CurrentContentID int
	Position         int
	Published        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ArchivedAt       *time.Time

	// Path is the full slug path from the root, populated by callers.
	Path     string
	Children []*Page
	Tags     []string
}

// PageContent represents one saved version of a page's body.
type PageContent struct {
	ID        int
	PageID    int
	Version   int
	Body      string
	AuthorID  int
	Comment   *string
	CreatedAt time.Time
}
