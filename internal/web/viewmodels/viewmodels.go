// Package viewmodels holds the JSON shapes returned by the API
// controllers, kept separate from the storage models.
package viewmodels

import (
	"time"

	"squirrelwiki/internal/models"
	"squirrelwiki/internal/search"
	"squirrelwiki/internal/settings"
)

// User is the public shape of an account.
type User struct {
	ID          int      `json:"id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles"`
}

// NewUser converts a user model.
func NewUser(u *models.User) User {
	return User{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Roles:       u.Roles,
	}
}

// Page is the metadata shape of a wiki page.
type Page struct {
	ID         int       `json:"id"`
	ParentID   *int      `json:"parent_id,omitempty"`
	CategoryID *int      `json:"category_id,omitempty"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Format     string    `json:"format"`
	Path       string    `json:"path,omitempty"`
	Position   int       `json:"position"`
	Published  bool      `json:"published"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewPage converts a page model.
func NewPage(p models.Page) Page {
	return Page{
		ID:         p.ID,
		ParentID:   p.ParentID,
		CategoryID: p.CategoryID,
		Slug:       p.Slug,
		Title:      p.Title,
		Format:     p.Format,
		Path:       p.Path,
		Position:   p.Position,
		Published:  p.Published,
		UpdatedAt:  p.UpdatedAt,
	}
}

// PageDetail is a page with its current body and rendered HTML.
type PageDetail struct {
	Page
	Version int      `json:"version"`
	Body    string   `json:"body"`
	HTML    string   `json:"html"`
	Tags    []string `json:"tags"`
}

// NewPageDetail assembles the full page response.
func NewPageDetail(p models.Page, c models.PageContent, html string, tags []models.Tag) PageDetail {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return PageDetail{
		Page:    NewPage(p),
		Version: c.Version,
		Body:    c.Body,
		HTML:    html,
		Tags:    names,
	}
}

// Version is one entry of a page's history.
type Version struct {
	Version   int       `json:"version"`
	AuthorID  int       `json:"author_id"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewVersions converts a page's history.
func NewVersions(contents []models.PageContent) []Version {
	out := make([]Version, 0, len(contents))
	for _, c := range contents {
		out = append(out, Version{
			Version:   c.Version,
			AuthorID:  c.AuthorID,
			Comment:   c.Comment,
			CreatedAt: c.CreatedAt,
		})
	}
	return out
}

// TreeNode is one node of the page navigation tree.
type TreeNode struct {
	ID       int        `json:"id"`
	Slug     string     `json:"slug"`
	Title    string     `json:"title"`
	Path     string     `json:"path"`
	Children []TreeNode `json:"children,omitempty"`
}

// NewTree converts the page tree.
func NewTree(nodes []*models.Page) []TreeNode {
	out := make([]TreeNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, TreeNode{
			ID:       n.ID,
			Slug:     n.Slug,
			Title:    n.Title,
			Path:     n.Path,
			Children: NewTree(n.Children),
		})
	}
	return out
}

// Category is one node of the category tree.
type Category struct {
	ID          int        `json:"id"`
	ParentID    *int       `json:"parent_id,omitempty"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Children    []Category `json:"children,omitempty"`
}

// NewCategory converts a single category.
func NewCategory(c models.Category) Category {
	return Category{
		ID:          c.ID,
		ParentID:    c.ParentID,
		Slug:        c.Slug,
		Name:        c.Name,
		Description: c.Description,
	}
}

// NewCategoryTree converts the category tree.
func NewCategoryTree(nodes []*models.Category) []Category {
	out := make([]Category, 0, len(nodes))
	for _, n := range nodes {
		vm := NewCategory(*n)
		vm.Children = NewCategoryTree(n.Children)
		out = append(out, vm)
	}
	return out
}

// Tag is a label with its usage count.
type Tag struct {
	ID        int    `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	PageCount int    `json:"page_count"`
}

// NewTags converts a tag list.
func NewTags(tags []models.Tag) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		out = append(out, Tag{ID: t.ID, Slug: t.Slug, Name: t.Name, PageCount: t.PageCount})
	}
	return out
}

// Menu is a named menu with its ordered items.
type Menu struct {
	ID    int        `json:"id"`
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}

// MenuItem is one menu entry.
type MenuItem struct {
	ID     int     `json:"id"`
	Label  string  `json:"label"`
	URL    *string `json:"url,omitempty"`
	PageID *int    `json:"page_id,omitempty"`
}

// NewMenu converts a menu model.
func NewMenu(m models.Menu) Menu {
	items := make([]MenuItem, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, MenuItem{ID: it.ID, Label: it.Label, URL: it.URL, PageID: it.PageID})
	}
	return Menu{ID: m.ID, Name: m.Name, Items: items}
}

// File is uploaded file metadata.
type File struct {
	ID        int       `json:"id"`
	FolderID  *int      `json:"folder_id,omitempty"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	Digest    string    `json:"digest"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFile converts a file model.
func NewFile(f models.File) File {
	return File{
		ID:        f.ID,
		FolderID:  f.FolderID,
		Name:      f.Name,
		MimeType:  f.MimeType,
		Size:      f.Size,
		Digest:    f.Digest,
		Version:   f.Version,
		UpdatedAt: f.UpdatedAt,
	}
}

// FileVersion is one entry of a file's history.
type FileVersion struct {
	Version   int       `json:"version"`
	Digest    string    `json:"digest"`
	Size      int64     `json:"size"`
	AuthorID  int       `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFileVersions converts a file's history.
func NewFileVersions(versions []models.FileVersion) []FileVersion {
	out := make([]FileVersion, 0, len(versions))
	for _, v := range versions {
		out = append(out, FileVersion{
			Version:   v.Version,
			Digest:    v.Digest,
			Size:      v.Size,
			AuthorID:  v.AuthorID,
			CreatedAt: v.CreatedAt,
		})
	}
	return out
}

// Folder is an upload folder.
type Folder struct {
	ID       int    `json:"id"`
	ParentID *int   `json:"parent_id,omitempty"`
	Name     string `json:"name"`
}

// NewFolders converts a folder list.
func NewFolders(folders []models.Folder) []Folder {
	out := make([]Folder, 0, len(folders))
	for _, f := range folders {
		out = append(out, Folder{ID: f.ID, ParentID: f.ParentID, Name: f.Name})
	}
	return out
}

// Hit is one search result.
type Hit struct {
	PageID  int     `json:"page_id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// NewHits converts search results.
func NewHits(hits []search.Hit) []Hit {
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		out = append(out, Hit{PageID: h.PageID, Title: h.Title, Snippet: h.Snippet, Score: h.Score})
	}
	return out
}

// Setting is a resolved configuration value with its source layer.
type Setting struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// NewSettings converts resolved settings.
func NewSettings(resolved []settings.Resolved) []Setting {
	out := make([]Setting, 0, len(resolved))
	for _, r := range resolved {
		out = append(out, Setting{Key: r.Key, Value: r.Value, Source: r.Source})
	}
	return out
}

// Plugin is the lifecycle state of a provider.
type Plugin struct {
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	State       string     `json:"state"`
	Description string     `json:"description,omitempty"`
	InstalledAt *time.Time `json:"installed_at,omitempty"`
}

// NewPlugins converts plugin rows.
func NewPlugins(plugins []models.Plugin) []Plugin {
	out := make([]Plugin, 0, len(plugins))
	for _, p := range plugins {
		out = append(out, Plugin{
			Name:        p.Name,
			Kind:        p.Kind,
			State:       p.State,
			Description: p.Description,
			InstalledAt: p.InstalledAt,
		})
	}
	return out
}

// AuditEntry is one plugin audit log line.
type AuditEntry struct {
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewAuditEntries converts an audit trail.
func NewAuditEntries(log []models.PluginAuditLog) []AuditEntry {
	out := make([]AuditEntry, 0, len(log))
	for _, e := range log {
		out = append(out, AuditEntry{Actor: e.Actor, Action: e.Action, Detail: e.Detail, OccurredAt: e.OccurredAt})
	}
	return out
}
