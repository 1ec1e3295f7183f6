package controller

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"squirrelwiki/internal/auth"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/models"
	"squirrelwiki/internal/page"
	"squirrelwiki/internal/tag"
	"squirrelwiki/internal/web/viewmodels"
)

// Page provides page handlers.
type Page struct {
	Pages *page.Service
	Tags  *tag.Service
	Log   zerolog.Logger
}

// Register registers the page routes. Mutating routes go through the
// editor wrapper.
func (p *Page) Register(mux *http.ServeMux, editor func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/wiki/{pagePath...}", p.view)
	mux.HandleFunc("GET /api/pages/tree", p.tree)
	mux.HandleFunc("GET /api/pages/{id}", p.get)
	mux.HandleFunc("GET /api/pages/{id}/history", p.history)
	mux.HandleFunc("GET /api/pages/{id}/diff", p.diff)

	mux.Handle("POST /api/pages", editor(http.HandlerFunc(p.create)))
	mux.Handle("PATCH /api/pages/{id}", editor(http.HandlerFunc(p.update)))
	mux.Handle("DELETE /api/pages/{id}", editor(http.HandlerFunc(p.delete)))
	mux.Handle("POST /api/pages/{id}/content", editor(http.HandlerFunc(p.save)))
	mux.Handle("POST /api/pages/{id}/restore/{version}", editor(http.HandlerFunc(p.restore)))
	mux.Handle("PUT /api/pages/{id}/tags", editor(http.HandlerFunc(p.setTags)))
}

func (p *Page) view(w http.ResponseWriter, r *http.Request) {
	pg, content, err := p.Pages.GetByPath(r.PathValue("pagePath"))
	if err != nil {
		writeError(p.Log, w, err)
		return
	}

	// Drafts are only visible to editors.
	if !pg.Published {
		user := auth.UserFromContext(r.Context())
		if user == nil || (!user.HasRole(models.RoleEditor) && !user.HasRole(models.RoleAdmin)) {
			writeError(p.Log, w, wikierrors.NotFound("page "+pg.Path))
			return
		}
	}

	html, err := p.Pages.RenderedHTML(r.Context(), pg, content)
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	tags, err := p.Tags.ListByPage(pg.ID)
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewPageDetail(pg, content, html, tags))
}

func (p *Page) tree(w http.ResponseWriter, r *http.Request) {
	tree, err := p.Pages.Tree()
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewTree(tree))
}

func (p *Page) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	pg, content, err := p.Pages.Get(id)
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	tags, err := p.Tags.ListByPage(pg.ID)
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewPageDetail(pg, content, "", tags))
}

type createPageRequest struct {
	ParentID   *int     `json:"parent_id,omitempty"`
	CategoryID *int     `json:"category_id,omitempty"`
	Slug       string   `json:"slug,omitempty"`
	Title      string   `json:"title"`
	Format     string   `json:"format,omitempty"`
	Body       string   `json:"body"`
	Published  bool     `json:"published"`
	Comment    *string  `json:"comment,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

func (p *Page) create(w http.ResponseWriter, r *http.Request) {
	var req createPageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(p.Log, w, err)
		return
	}

	user := auth.UserFromContext(r.Context())
	pg, err := p.Pages.Create(r.Context(), page.CreateInput{
		ParentID:   req.ParentID,
		CategoryID: req.CategoryID,
		Slug:       req.Slug,
		Title:      req.Title,
		Format:     req.Format,
		Body:       req.Body,
		Published:  req.Published,
		AuthorID:   user.ID,
		Comment:    req.Comment,
	})
	if err != nil {
		writeError(p.Log, w, err)
		return
	}

	if len(req.Tags) > 0 {
		if _, err := p.Tags.SetPageTags(r.Context(), pg.ID, req.Tags); err != nil {
			writeError(p.Log, w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, viewmodels.NewPage(pg))
}

type updatePageRequest struct {
	Title      *string `json:"title,omitempty"`
	Slug       *string `json:"slug,omitempty"`
	CategoryID *int    `json:"category_id,omitempty"`
	Position   *int    `json:"position,omitempty"`
	Published  *bool   `json:"published,omitempty"`
}

func (p *Page) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	var req updatePageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(p.Log, w, err)
		return
	}

	pg, err := p.Pages.Update(r.Context(), id, page.UpdateInput{
		Title:      req.Title,
		Slug:       req.Slug,
		CategoryID: req.CategoryID,
		Position:   req.Position,
		Published:  req.Published,
	})
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewPage(pg))
}

type saveContentRequest struct {
	Body    string  `json:"body"`
	Comment *string `json:"comment,omitempty"`
}

func (p *Page) save(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	var req saveContentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(p.Log, w, err)
		return
	}

	user := auth.UserFromContext(r.Context())
	content, err := p.Pages.Save(r.Context(), id, req.Body, user.ID, req.Comment)
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"version": content.Version})
}

func (p *Page) history(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	versions, err := p.Pages.History(id)
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewVersions(versions))
}

func (p *Page) restore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	version, err := pathID(r, "version")
	if err != nil {
		writeError(p.Log, w, err)
		return
	}

	user := auth.UserFromContext(r.Context())
	content, err := p.Pages.Restore(r.Context(), id, version, user.ID)
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"version": content.Version})
}

func (p *Page) diff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	from, err := strconv.Atoi(r.URL.Query().Get("from"))
	if err != nil {
		writeError(p.Log, w, wikierrors.Validation("invalid 'from' version"))
		return
	}
	to, err := strconv.Atoi(r.URL.Query().Get("to"))
	if err != nil {
		writeError(p.Log, w, wikierrors.Validation("invalid 'to' version"))
		return
	}

	html, err := p.Pages.DiffHTML(id, from, to)
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": html})
}

func (p *Page) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	if err := p.Pages.Delete(r.Context(), id); err != nil {
		writeError(p.Log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setTagsRequest struct {
	Tags []string `json:"tags"`
}

func (p *Page) setTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	var req setTagsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(p.Log, w, err)
		return
	}

	tags, err := p.Tags.SetPageTags(r.Context(), id, req.Tags)
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewTags(tags))
}

// pathID parses a numeric path segment.
func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, wikierrors.Validation("invalid " + name)
	}
	return id, nil
}
