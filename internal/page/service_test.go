package page

import (
	"context"
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"squirrelwiki/internal/cache"
	"squirrelwiki/internal/database"
	"squirrelwiki/internal/events"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/models"
)

type staticRenderer struct{}

func (staticRenderer) Render(ctx context.Context, format, markup string) (string, error) {
	return "<p>" + markup + "</p>", nil
}

func newTestService(t *testing.T) (*Service, *sql.DB, int) {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	res, err := db.Exec(`INSERT INTO users (username, display_name) VALUES ('author', 'Author')`)
	require.NoError(t, err)
	authorID64, err := res.LastInsertId()
	require.NoError(t, err)

	bus := events.NewBus(zerolog.Nop())
	c := cache.New(0)
	cache.SubscribeInvalidation(bus, c)

	svc := NewService(NewRepository(db), staticRenderer{}, c, bus, nil)
	return svc, db, int(authorID64)
}

func TestCreateSlugsTitleAndStartsAtVersionOne(t *testing.T) {
	svc, _, author := newTestService(t)
	ctx := context.Background()

	pg, err := svc.Create(ctx, CreateInput{Title: "Getting Started", Body: "hello", Published: true, AuthorID: author})
	require.NoError(t, err)
	assert.Equal(t, "getting-started", pg.Slug)

	_, content, err := svc.Get(pg.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, content.Version)
	assert.Equal(t, "hello", content.Body)
}

func TestCreateUsesConfiguredDefaultFormat(t *testing.T) {
	svc, db, author := newTestService(t)
	ctx := context.Background()

	// Same storage, format default resolved from configuration.
	orgDefault := NewService(NewRepository(db), staticRenderer{}, cache.New(0), events.NewBus(zerolog.Nop()), func() string {
		return models.FormatOrg
	})

	pg, err := orgDefault.Create(ctx, CreateInput{Title: "Org Notes", AuthorID: author})
	require.NoError(t, err)
	assert.Equal(t, models.FormatOrg, pg.Format)

	// A nil resolver keeps the markdown default.
	pg, err = svc.Create(ctx, CreateInput{Title: "Plain Notes", AuthorID: author})
	require.NoError(t, err)
	assert.Equal(t, models.FormatMarkdown, pg.Format)

	// An explicit format is never overridden.
	pg, err = orgDefault.Create(ctx, CreateInput{Title: "Markdown Notes", Format: models.FormatMarkdown, AuthorID: author})
	require.NoError(t, err)
	assert.Equal(t, models.FormatMarkdown, pg.Format)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc, _, author := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Title: "  ", AuthorID: author})
	assert.True(t, wikierrors.Is(err, wikierrors.CodeValidation))

	_, err = svc.Create(ctx, CreateInput{Title: "x", Format: "asciidoc", AuthorID: author})
	assert.True(t, wikierrors.Is(err, wikierrors.CodeValidation))

	missing := 999
	_, err = svc.Create(ctx, CreateInput{Title: "x", ParentID: &missing, AuthorID: author})
	assert.True(t, wikierrors.Is(err, wikierrors.CodeValidation))
}

func TestSiblingSlugConflict(t *testing.T) {
	svc, _, author := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Title: "Home", AuthorID: author})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{Title: "Home", AuthorID: author})
	assert.True(t, wikierrors.Is(err, wikierrors.CodeConflict))
}

func TestSaveAppendsVersionsAndRestore(t *testing.T) {
	svc, _, author := newTestService(t)
	ctx := context.Background()

	pg, err := svc.Create(ctx, CreateInput{Title: "Doc", Body: "first", AuthorID: author})
	require.NoError(t, err)

	v2, err := svc.Save(ctx, pg.ID, "second", author, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	history, err := svc.History(pg.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Version, "newest first")

	restored, err := svc.Restore(ctx, pg.ID, 1, author)
	require.NoError(t, err)
	assert.Equal(t, 3, restored.Version)
	assert.Equal(t, "first", restored.Body)

	_, current, err := svc.Get(pg.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", current.Body)
	assert.Equal(t, 3, current.Version)

	_, err = svc.Restore(ctx, pg.ID, 99, author)
	assert.True(t, wikierrors.Is(err, wikierrors.CodeNotFound))
}

func TestGetByPathWalksHierarchy(t *testing.T) {
	svc, _, author := newTestService(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, CreateInput{Title: "Guides", Body: "", AuthorID: author})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Title: "Setup", Body: "install things", ParentID: &parent.ID, AuthorID: author})
	require.NoError(t, err)

	pg, content, err := svc.GetByPath("guides/setup")
	require.NoError(t, err)
	assert.Equal(t, "setup", pg.Slug)
	assert.Equal(t, "guides/setup", pg.Path)
	assert.Equal(t, "install things", content.Body)

	_, _, err = svc.GetByPath("guides/missing")
	assert.True(t, wikierrors.Is(err, wikierrors.CodeNotFound))
}

func TestRenderedHTMLIsCachedPerContentVersion(t *testing.T) {
	svc, _, author := newTestService(t)
	ctx := context.Background()

	pg, err := svc.Create(ctx, CreateInput{Title: "Doc", Body: "body", AuthorID: author})
	require.NoError(t, err)

	page, content, err := svc.Get(pg.ID)
	require.NoError(t, err)

	html, err := svc.RenderedHTML(ctx, page, content)
	require.NoError(t, err)
	assert.Equal(t, "<p>body</p>", html)

	again, err := svc.RenderedHTML(ctx, page, content)
	require.NoError(t, err)
	assert.Equal(t, html, again)
}

func TestDiffHTMLMarksChanges(t *testing.T) {
	svc, _, author := newTestService(t)
	ctx := context.Background()

	pg, err := svc.Create(ctx, CreateInput{Title: "Doc", Body: "hello world", AuthorID: author})
	require.NoError(t, err)
	_, err = svc.Save(ctx, pg.ID, "hello there world", author, nil)
	require.NoError(t, err)

	html, err := svc.DiffHTML(pg.ID, 1, 2)
	require.NoError(t, err)
	assert.Contains(t, html, "<ins>")
	assert.Contains(t, html, "there")
}

func TestDeleteRefusesPagesWithChildren(t *testing.T) {
	svc, _, author := newTestService(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, CreateInput{Title: "Parent", AuthorID: author})
	require.NoError(t, err)
	child, err := svc.Create(ctx, CreateInput{Title: "Child", ParentID: &parent.ID, AuthorID: author})
	require.NoError(t, err)

	err = svc.Delete(ctx, parent.ID)
	assert.True(t, wikierrors.Is(err, wikierrors.CodeValidation))

	require.NoError(t, svc.Delete(ctx, child.ID))
	require.NoError(t, svc.Delete(ctx, parent.ID))

	_, _, err = svc.Get(parent.ID)
	assert.True(t, wikierrors.Is(err, wikierrors.CodeNotFound))
}

func TestTreeNestsChildrenAndFillsPaths(t *testing.T) {
	svc, _, author := newTestService(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, CreateInput{Title: "Root", AuthorID: author})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Title: "Leaf", ParentID: &root.ID, AuthorID: author})
	require.NoError(t, err)

	tree, err := svc.Tree()
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "root", tree[0].Path)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "root/leaf", tree[0].Children[0].Path)
}

func TestArchivedPagesLeaveTheTree(t *testing.T) {
	svc, _, author := newTestService(t)
	ctx := context.Background()

	pg, err := svc.Create(ctx, CreateInput{Title: "Temp", AuthorID: author})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, pg.ID))

	tree, err := svc.Tree()
	require.NoError(t, err)
	assert.Empty(t, tree)
}
