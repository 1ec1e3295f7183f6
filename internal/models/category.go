package models

import "time"

// Category represents a node in the self-referencing category tree.
type Category struct {
	ID          int
	ParentID    *int
	Slug        string
	Name        string
	Description string
	Position    int
	CreatedAt   time.Time
	ArchivedAt  *time.Time

	Children []*Category
}
