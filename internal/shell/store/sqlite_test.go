package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/shipmate/internal/core/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "shipmate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRevision(id, name string) *Revision {
	return &Revision{
		ID:       id,
		Name:     name,
		Manifest: "services:\n  app:\n    image: nginx:latest\n",
		Declaration: &topology.Declaration{
			Services: []topology.Service{{Name: "app", Image: "nginx:latest"}},
		},
		Valid:     true,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// =============================================================================
// Revision CRUD Tests
// =============================================================================

func TestSaveAndGetRevision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rev := testRevision("rev_1", "production")
	require.NoError(t, s.SaveRevision(ctx, rev))

	got, err := s.GetRevision(ctx, "rev_1")
	require.NoError(t, err)
	assert.Equal(t, "production", got.Name)
	assert.Equal(t, rev.Manifest, got.Manifest)
	assert.True(t, got.Valid)
	require.NotNil(t, got.Declaration)
	require.Len(t, got.Declaration.Services, 1)
	assert.Equal(t, "app", got.Declaration.Services[0].Name)
	assert.Equal(t, rev.CreatedAt, got.CreatedAt)
}

func TestSaveRevision_DuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRevision(ctx, testRevision("rev_1", "production")))
	err := s.SaveRevision(ctx, testRevision("rev_1", "production"))
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestSaveRevision_InvalidWithViolations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rev := testRevision("rev_bad", "staging")
	rev.Valid = false
	rev.Declaration = nil
	rev.Violations = []string{`service "backend" references unknown service "db"`}
	require.NoError(t, s.SaveRevision(ctx, rev))

	got, err := s.GetRevision(ctx, "rev_bad")
	require.NoError(t, err)
	assert.False(t, got.Valid)
	assert.Nil(t, got.Declaration)
	require.Len(t, got.Violations, 1)
	assert.Contains(t, got.Violations[0], "backend")
}

func TestGetRevision_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRevision(context.Background(), "rev_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetLatestRevision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := testRevision("rev_1", "production")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	newer := testRevision("rev_2", "production")

	require.NoError(t, s.SaveRevision(ctx, older))
	require.NoError(t, s.SaveRevision(ctx, newer))

	got, err := s.GetLatestRevision(ctx, "production")
	require.NoError(t, err)
	assert.Equal(t, "rev_2", got.ID)
}

func TestGetLatestRevision_NoRevisions(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetLatestRevision(context.Background(), "production")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRevisions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-3 * time.Hour).Truncate(time.Second)
	for i, id := range []string{"rev_1", "rev_2", "rev_3"} {
		rev := testRevision(id, "production")
		rev.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.SaveRevision(ctx, rev))
	}
	require.NoError(t, s.SaveRevision(ctx, testRevision("rev_other", "staging")))

	revisions, err := s.ListRevisions(ctx, "production", DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, revisions, 3)
	// Newest first
	assert.Equal(t, "rev_3", revisions[0].ID)
	assert.Equal(t, "rev_1", revisions[2].ID)
}

func TestListRevisions_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-5 * time.Hour).Truncate(time.Second)
	for i, id := range []string{"rev_1", "rev_2", "rev_3", "rev_4"} {
		rev := testRevision(id, "production")
		rev.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.SaveRevision(ctx, rev))
	}

	page, err := s.ListRevisions(ctx, "production", ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "rev_3", page[0].ID)
	assert.Equal(t, "rev_2", page[1].ID)
}

func TestDeleteRevision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRevision(ctx, testRevision("rev_1", "production")))
	require.NoError(t, s.DeleteRevision(ctx, "rev_1"))

	_, err := s.GetRevision(ctx, "rev_1")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.DeleteRevision(ctx, "rev_1")
	assert.ErrorIs(t, err, ErrNotFound)
}
