// Package files implements deduplicated upload storage: metadata and
// versions in the database, bodies on disk addressed by sha256 digest.
package files

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/events"
	"squirrelwiki/internal/models"
)

// Service coordinates the repository and the blob store.
type Service struct {
	repo     *Repository
	store    *BlobStore
	bus      *events.Bus
	maxBytes int64
}

// NewService creates a file service. maxBytes caps upload sizes.
func NewService(repo *Repository, store *BlobStore, bus *events.Bus, maxBytes int64) *Service {
	return &Service{repo: repo, store: store, bus: bus, maxBytes: maxBytes}
}

// Upload stores a new file, or a new version when a live file with the
// same name already exists in the folder. Identical bodies share one blob.
func (s *Service) Upload(ctx context.Context, folderID *int, name string, body io.Reader, authorID int) (models.File, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, "/\\") {
		return models.File{}, wikierrors.Validation("invalid file name")
	}
	if folderID != nil {
		if _, err := s.repo.FindFolderByID(*folderID); err != nil {
			return models.File{}, wikierrors.Validation("folder does not exist")
		}
	}

	// Sniff the MIME type from the first bytes, then replay them.
	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return models.File{}, wikierrors.FileStorage("read upload", err)
	}
	head = head[:n]
	mimeType := http.DetectContentType(head)
	reader := io.MultiReader(bytes.NewReader(head), body)

	limited := &limitedReader{r: reader, remaining: s.maxBytes}
	digest, size, err := s.store.Write(limited)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			return models.File{}, wikierrors.Validation(fmt.Sprintf("upload exceeds the %d byte limit", s.maxBytes))
		}
		return models.File{}, wikierrors.FileStorage("store upload", err)
	}

	existing, err := s.repo.FindByName(folderID, name)
	switch {
	case err == nil:
		if existing.Digest == digest {
			// Same name, same bytes: nothing to record.
			return existing, nil
		}
		if err := s.repo.AddVersion(&existing, digest, size, mimeType, authorID); err != nil {
			return models.File{}, wikierrors.Internal("record file version", err)
		}
		s.bus.Publish(ctx, events.Event{Name: events.FileStored, ID: existing.ID, Key: existing.Name})
		return existing, nil
	case errors.Is(err, sql.ErrNoRows):
		f := models.File{FolderID: folderID, Name: name, MimeType: mimeType, Size: size, Digest: digest}
		if err := s.repo.CreateFile(&f, authorID); err != nil {
			return models.File{}, wikierrors.Internal("record file", err)
		}
		s.bus.Publish(ctx, events.Event{Name: events.FileStored, ID: f.ID, Key: f.Name})
		return f, nil
	default:
		return models.File{}, wikierrors.Internal("find file", err)
	}
}

// Open returns a file's metadata and a reader over its current body.
func (s *Service) Open(id int) (models.File, io.ReadCloser, error) {
	f, err := s.get(id)
	if err != nil {
		return models.File{}, nil, err
	}
	rc, err := s.store.Open(f.Digest)
	if err != nil {
		return models.File{}, nil, wikierrors.FileStorage("open blob", err)
	}
	return f, rc, nil
}

// Delete soft-deletes a file and removes its blob once unreferenced.
func (s *Service) Delete(ctx context.Context, id int) error {
	f, err := s.get(id)
	if err != nil {
		return err
	}

	orphaned, err := s.repo.SoftDelete(&f)
	if err != nil {
		return wikierrors.Internal("delete file", err)
	}
	for _, digest := range orphaned {
		if err := s.store.Remove(digest); err != nil {
			return wikierrors.FileStorage("remove blob", err)
		}
	}

	s.bus.Publish(ctx, events.Event{Name: events.FileDeleted, ID: f.ID, Key: f.Name})
	return nil
}

// List lists the live files in a folder.
func (s *Service) List(folderID *int) ([]models.File, error) {
	out, err := s.repo.ListByFolder(folderID)
	if err != nil {
		return nil, wikierrors.Internal("list files", err)
	}
	return out, nil
}

// Versions lists a file's version history.
func (s *Service) Versions(id int) ([]models.FileVersion, error) {
	if _, err := s.get(id); err != nil {
		return nil, err
	}
	out, err := s.repo.ListVersions(id)
	if err != nil {
		return nil, wikierrors.Internal("list file versions", err)
	}
	return out, nil
}

// CreateFolder creates a folder under parentID (nil for the root).
func (s *Service) CreateFolder(parentID *int, name string) (models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, "/\\") {
		return models.Folder{}, wikierrors.Validation("invalid folder name")
	}
	if parentID != nil {
		if _, err := s.repo.FindFolderByID(*parentID); err != nil {
			return models.Folder{}, wikierrors.Validation("parent folder does not exist")
		}
	}

	f := models.Folder{ParentID: parentID, Name: name}
	if _, err := s.repo.CreateFolder(&f); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.Folder{}, wikierrors.Conflict("a folder named " + name + " already exists here")
		}
		return models.Folder{}, wikierrors.Internal("create folder", err)
	}
	return f, nil
}

// ListFolders lists the folders under a parent.
func (s *Service) ListFolders(parentID *int) ([]models.Folder, error) {
	out, err := s.repo.ListFolders(parentID)
	if err != nil {
		return nil, wikierrors.Internal("list folders", err)
	}
	return out, nil
}

// DeleteFolder removes a folder that holds nothing.
func (s *Service) DeleteFolder(id int) error {
	if _, err := s.repo.FindFolderByID(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return wikierrors.NotFound("folder")
		}
		return wikierrors.Internal("find folder", err)
	}

	empty, err := s.repo.FolderIsEmpty(id)
	if err != nil {
		return wikierrors.Internal("check folder", err)
	}
	if !empty {
		return wikierrors.Validation("folder is not empty")
	}
	if err := s.repo.DeleteFolder(id); err != nil {
		return wikierrors.Internal("delete folder", err)
	}
	return nil
}

func (s *Service) get(id int) (models.File, error) {
	f, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.File{}, wikierrors.NotFound(fmt.Sprintf("file %d", id))
		}
		return models.File{}, wikierrors.Internal("find file", err)
	}
	if f.DeletedAt != nil {
		return models.File{}, wikierrors.NotFound(fmt.Sprintf("file %d", id))
	}
	return f, nil
}

var errTooLarge = errors.New("upload too large")

// limitedReader fails with errTooLarge instead of truncating.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, errTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, errTooLarge
	}
	return n, err
}
