package controller

import (
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"squirrelwiki/internal/auth"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/files"
	"squirrelwiki/internal/web/viewmodels"
)

// Files provides upload and folder handlers.
type Files struct {
	Files *files.Service
	Log   zerolog.Logger
}

// Register registers the file routes.
func (f *Files) Register(mux *http.ServeMux, editor func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/files", f.list)
	mux.HandleFunc("GET /api/files/{id}", f.download)
	mux.HandleFunc("GET /api/files/{id}/versions", f.versions)
	mux.HandleFunc("GET /api/folders", f.listFolders)

	mux.Handle("POST /api/files", editor(http.HandlerFunc(f.upload)))
	mux.Handle("DELETE /api/files/{id}", editor(http.HandlerFunc(f.delete)))
	mux.Handle("POST /api/folders", editor(http.HandlerFunc(f.createFolder)))
	mux.Handle("DELETE /api/folders/{id}", editor(http.HandlerFunc(f.deleteFolder)))
}

func (f *Files) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(f.Log, w, wikierrors.Validation("multipart field 'file' is required"))
		return
	}
	defer file.Close()

	folderID, err := optionalIntForm(r, "folder")
	if err != nil {
		writeError(f.Log, w, err)
		return
	}

	user := auth.UserFromContext(r.Context())
	stored, err := f.Files.Upload(r.Context(), folderID, header.Filename, file, user.ID)
	if err != nil {
		writeError(f.Log, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewmodels.NewFile(stored))
}

func (f *Files) list(w http.ResponseWriter, r *http.Request) {
	folderID, err := optionalIntQuery(r, "folder")
	if err != nil {
		writeError(f.Log, w, err)
		return
	}
	out, err := f.Files.List(folderID)
	if err != nil {
		writeError(f.Log, w, err)
		return
	}
	vms := make([]viewmodels.File, 0, len(out))
	for _, fl := range out {
		vms = append(vms, viewmodels.NewFile(fl))
	}
	writeJSON(w, http.StatusOK, vms)
}

func (f *Files) download(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(f.Log, w, err)
		return
	}
	meta, body, err := f.Files.Open(id)
	if err != nil {
		writeError(f.Log, w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", meta.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+meta.Name+`"`)
	io.Copy(w, body)
}

func (f *Files) versions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(f.Log, w, err)
		return
	}
	versions, err := f.Files.Versions(id)
	if err != nil {
		writeError(f.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewFileVersions(versions))
}

func (f *Files) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(f.Log, w, err)
		return
	}
	if err := f.Files.Delete(r.Context(), id); err != nil {
		writeError(f.Log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createFolderRequest struct {
	ParentID *int   `json:"parent_id,omitempty"`
	Name     string `json:"name"`
}

func (f *Files) createFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(f.Log, w, err)
		return
	}
	folder, err := f.Files.CreateFolder(req.ParentID, req.Name)
	if err != nil {
		writeError(f.Log, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewmodels.Folder{ID: folder.ID, ParentID: folder.ParentID, Name: folder.Name})
}

func (f *Files) listFolders(w http.ResponseWriter, r *http.Request) {
	parentID, err := optionalIntQuery(r, "parent")
	if err != nil {
		writeError(f.Log, w, err)
		return
	}
	folders, err := f.Files.ListFolders(parentID)
	if err != nil {
		writeError(f.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewFolders(folders))
}

func (f *Files) deleteFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(f.Log, w, err)
		return
	}
	if err := f.Files.DeleteFolder(id); err != nil {
		writeError(f.Log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func optionalIntQuery(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, wikierrors.Validation("invalid " + name)
	}
	return &id, nil
}

func optionalIntForm(r *http.Request, name string) (*int, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, wikierrors.Validation("invalid " + name)
	}
	return &id, nil
}
