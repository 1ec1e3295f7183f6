package models

import "time"

// Folder represents a node in the upload folder tree.
type Folder struct {
	ID        int
	ParentID  *int
	Name      string
	CreatedAt time.Time
}

// File represents uploaded file metadata. The bytes live in a FileContent
// shared by every file with the same digest.
type File struct {
	ID        int
	FolderID  *int
	Name      string
	MimeType  string
	Size      int64
	Digest    string
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// FileContent represents a content-addressed blob, stored once per digest.
type FileContent struct {
	Digest    string
	Size      int64
	RefCount  int
	CreatedAt time.Time
}

// FileVersion records which digest a file pointed at for a given version.
type FileVersion struct {
	ID        int
	FileID    int
	Version   int
	Digest    string
	Size      int64
	AuthorID  int
	CreatedAt time.Time
}
