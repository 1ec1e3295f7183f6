package category

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
	"squirrelwiki/internal/page"
)

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	bus := events.NewBus(zerolog.Nop())
	c := cache.New(0)
	cache.SubscribeInvalidation(bus, c)

	return NewService(NewRepository(db), page.NewRepository(db), c, bus), db
}

func TestCreateAndTree(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, nil, "Guides", "how-to articles")
	require.NoError(t, err)
	assert.Equal(t, "guides", root.Slug)

	child, err := svc.Create(ctx, &root.ID, "Advanced", "")
	require.NoError(t, err)

	tree, err := svc.Tree()
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, child.ID, tree[0].Children[0].ID)
}

func TestCreateRejectsDuplicateSlug(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, nil, "Guides", "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, nil, "Guides", "")
	assert.True(t, wikierrors.Is(err, wikierrors.CodeConflict))
}

func TestMoveCycleGuard(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, nil, "A", "")
	require.NoError(t, err)
	b, err := svc.Create(ctx, &a.ID, "B", "")
	require.NoError(t, err)
	c, err := svc.Create(ctx, &b.ID, "C", "")
	require.NoError(t, err)

	// A under its own grandchild.
	_, err = svc.Move(ctx, a.ID, &c.ID)
	assert.True(t, wikierrors.Is(err, wikierrors.CodeValidation))

	// A under itself.
	_, err = svc.Move(ctx, a.ID, &a.ID)
	assert.True(t, wikierrors.Is(err, wikierrors.CodeValidation))

	// C to the root is fine.
	moved, err := svc.Move(ctx, c.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
}

func TestDeleteOnlyEmptyLeaves(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, nil, "Parent", "")
	require.NoError(t, err)
	child, err := svc.Create(ctx, &parent.ID, "Child", "")
	require.NoError(t, err)

	err = svc.Delete(ctx, parent.ID)
	assert.True(t, wikierrors.Is(err, wikierrors.CodeValidation), "has a child category")

	// Put a page into the child.
	_, err = db.Exec(`INSERT INTO users (username, display_name) VALUES ('u', 'U')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO pages (category_id, slug, title, current_content_id) VALUES (?, 'p', 'P', -1)`, child.ID)
	require.NoError(t, err)

	err = svc.Delete(ctx, child.ID)
	assert.True(t, wikierrors.Is(err, wikierrors.CodeValidation), "still holds pages")

	_, err = db.Exec(`UPDATE pages SET archived_at = CURRENT_TIMESTAMP WHERE category_id = ?`, child.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, child.ID))
	require.NoError(t, svc.Delete(ctx, parent.ID))
}

func TestUpdateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, nil, "Name", "desc")
	require.NoError(t, err)

	_, err = svc.Update(ctx, c.ID, "  ", "")
	assert.True(t, wikierrors.Is(err, wikierrors.CodeValidation))

	updated, err := svc.Update(ctx, c.ID, "New Name", "new desc")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, c.Slug, updated.Slug, "slug is stable across renames")
}
