package models

// Tag represents a label attached to pages.
type Tag struct {
	ID   int
	Slug string
	Name string

	// PageCount is populated by listing queries.
	PageCount int
}
