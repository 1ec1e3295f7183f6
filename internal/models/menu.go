package models

// Menu represents a named navigation menu.
type Menu struct {
	ID    int
	Name  string
	Items []MenuItem
}

// MenuItem represents one ordered entry of a menu. Either URL or PageID
// is set, never both.
type MenuItem struct {
	ID       int
	MenuID   int
	Label    string
	URL      *string
	PageID   *int
	Position int
}
