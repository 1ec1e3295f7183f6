package files

import (
	"database/sql"
	"time"

	"squirrelwiki/internal/models"
)

// Repository provides access to the file, folder, and content storage.
type Repository struct {
	DB *sql.DB
}

// NewRepository creates a new file repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

const fileColumns = "id, folder_id, name, mime_type, size, digest, version, created_at, updated_at, deleted_at"

func scanFile(row interface{ Scan(...any) error }) (models.File, error) {
	var f models.File
	err := row.Scan(&f.ID, &f.FolderID, &f.Name, &f.MimeType, &f.Size, &f.Digest, &f.Version, &f.CreatedAt, &f.UpdatedAt, &f.DeletedAt)
	return f, err
}

// FindByID finds a file by id.
func (r *Repository) FindByID(id int) (models.File, error) {
	return scanFile(r.DB.QueryRow("SELECT "+fileColumns+" FROM files WHERE id = ?", id))
}

// FindByName finds a live file by folder and name.
func (r *Repository) FindByName(folderID *int, name string) (models.File, error) {
	if folderID == nil {
		return scanFile(r.DB.QueryRow("SELECT "+fileColumns+" FROM files WHERE folder_id IS NULL AND name = ? AND deleted_at IS NULL", name))
	}
	return scanFile(r.DB.QueryRow("SELECT "+fileColumns+" FROM files WHERE folder_id = ? AND name = ? AND deleted_at IS NULL", *folderID, name))
}

// ListByFolder lists live files in a folder (nil for the root).
func (r *Repository) ListByFolder(folderID *int) ([]models.File, error) {
	var rows *sql.Rows
	var err error
	if folderID == nil {
		rows, err = r.DB.Query("SELECT " + fileColumns + " FROM files WHERE folder_id IS NULL AND deleted_at IS NULL ORDER BY name")
	} else {
		rows, err = r.DB.Query("SELECT "+fileColumns+" FROM files WHERE folder_id = ? AND deleted_at IS NULL ORDER BY name", *folderID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CreateFile inserts file metadata, its first version row, and bumps the
// content reference count in one transaction. The file_contents row is
// created when this digest is new.
func (r *Repository) CreateFile(f *models.File, authorID int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertContent(tx, f.Digest, f.Size); err != nil {
		return err
	}

	res, err := tx.Exec("INSERT INTO files (folder_id, name, mime_type, size, digest, version) VALUES (?, ?, ?, ?, ?, 1)",
		f.FolderID, f.Name, f.MimeType, f.Size, f.Digest)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	f.ID = int(id)
	f.Version = 1

	if _, err := tx.Exec("INSERT INTO file_versions (file_id, version, digest, size, author_id) VALUES (?, 1, ?, ?, ?)",
		f.ID, f.Digest, f.Size, authorID); err != nil {
		return err
	}

	return tx.Commit()
}

// AddVersion repoints a file at a new digest, recording the version. The
// reference count tracks version rows, so the old digest keeps its
// reference and stays restorable.
func (r *Repository) AddVersion(f *models.File, digest string, size int64, mimeType string, authorID int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertContent(tx, digest, size); err != nil {
		return err
	}

	version := f.Version + 1
	if _, err := tx.Exec("INSERT INTO file_versions (file_id, version, digest, size, author_id) VALUES (?, ?, ?, ?, ?)",
		f.ID, version, digest, size, authorID); err != nil {
		return err
	}
	if _, err := tx.Exec("UPDATE files SET digest = ?, size = ?, mime_type = ?, version = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		digest, size, mimeType, version, f.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	f.Digest = digest
	f.Size = size
	f.MimeType = mimeType
	f.Version = version
	return nil
}

func upsertContent(tx *sql.Tx, digest string, size int64) error {
	_, err := tx.Exec(`INSERT INTO file_contents (digest, size, ref_count) VALUES (?, ?, 1)
		ON CONFLICT(digest) DO UPDATE SET ref_count = ref_count + 1`, digest, size)
	return err
}

// SoftDelete marks a file deleted and releases one reference per version
// row, returning the digests whose reference count reached zero so the
// caller can remove the blobs.
func (r *Repository) SoftDelete(f *models.File) (orphaned []string, err error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE files SET deleted_at = ? WHERE id = ?", time.Now(), f.ID); err != nil {
		return nil, err
	}

	rows, err := tx.Query("SELECT digest, COUNT(*) FROM file_versions WHERE file_id = ? GROUP BY digest", f.ID)
	if err != nil {
		return nil, err
	}
	type release struct {
		digest string
		count  int
	}
	var releases []release
	for rows.Next() {
		var rel release
		if err := rows.Scan(&rel.digest, &rel.count); err != nil {
			rows.Close()
			return nil, err
		}
		releases = append(releases, rel)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rel := range releases {
		if _, err := tx.Exec("UPDATE file_contents SET ref_count = ref_count - ? WHERE digest = ?", rel.count, rel.digest); err != nil {
			return nil, err
		}
		var remaining int
		if err := tx.QueryRow("SELECT ref_count FROM file_contents WHERE digest = ?", rel.digest).Scan(&remaining); err != nil {
			return nil, err
		}
		if remaining <= 0 {
			if _, err := tx.Exec("DELETE FROM file_contents WHERE digest = ?", rel.digest); err != nil {
				return nil, err
			}
			orphaned = append(orphaned, rel.digest)
		}
	}
	return orphaned, tx.Commit()
}

// ListVersions lists a file's versions newest first.
func (r *Repository) ListVersions(fileID int) ([]models.FileVersion, error) {
	rows, err := r.DB.Query("SELECT id, file_id, version, digest, size, author_id, created_at FROM file_versions WHERE file_id = ? ORDER BY version DESC", fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FileVersion
	for rows.Next() {
		var v models.FileVersion
		if err := rows.Scan(&v.ID, &v.FileID, &v.Version, &v.Digest, &v.Size, &v.AuthorID, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// RefCount reads the reference count for a digest, zero when absent.
func (r *Repository) RefCount(digest string) (int, error) {
	var n int
	err := r.DB.QueryRow("SELECT ref_count FROM file_contents WHERE digest = ?", digest).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return n, err
}

// FindFolderByID finds a folder by id.
func (r *Repository) FindFolderByID(id int) (models.Folder, error) {
	var f models.Folder
	err := r.DB.QueryRow("SELECT id, parent_id, name, created_at FROM folders WHERE id = ?", id).
		Scan(&f.ID, &f.ParentID, &f.Name, &f.CreatedAt)
	return f, err
}

// CreateFolder inserts a folder and returns its id.
func (r *Repository) CreateFolder(f *models.Folder) (int, error) {
	res, err := r.DB.Exec("INSERT INTO folders (parent_id, name) VALUES (?, ?)", f.ParentID, f.Name)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	f.ID = int(id)
	return f.ID, nil
}

// ListFolders lists the folders under a parent (nil for the root).
func (r *Repository) ListFolders(parentID *int) ([]models.Folder, error) {
	var rows *sql.Rows
	var err error
	if parentID == nil {
		rows, err = r.DB.Query("SELECT id, parent_id, name, created_at FROM folders WHERE parent_id IS NULL ORDER BY name")
	} else {
		rows, err = r.DB.Query("SELECT id, parent_id, name, created_at FROM folders WHERE parent_id = ? ORDER BY name", *parentID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Folder
	for rows.Next() {
		var f models.Folder
		if err := rows.Scan(&f.ID, &f.ParentID, &f.Name, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FolderIsEmpty reports whether a folder holds no live files and no
// subfolders.
func (r *Repository) FolderIsEmpty(id int) (bool, error) {
	var n int
	if err := r.DB.QueryRow("SELECT COUNT(*) FROM files WHERE folder_id = ? AND deleted_at IS NULL", id).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := r.DB.QueryRow("SELECT COUNT(*) FROM folders WHERE parent_id = ?", id).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

// DeleteFolder removes an empty folder.
func (r *Repository) DeleteFolder(id int) error {
	_, err := r.DB.Exec("DELETE FROM folders WHERE id = ?", id)
	return err
}
