package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRepo_SaveAndGet(t *testing.T) {
	repo := NewSQLiteSnapshotRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	fetched := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	org := "org-1"
	require.NoError(t, repo.Save(ctx, &domain.CatalogueSnapshot{
		Scope:     "branches|org-1",
		Variant:   domain.VariantBranches,
		OrgID:     &org,
		Payload:   []byte(testutil.BranchesCatalogueJSON),
		ItemCount: 4,
		FetchedAt: fetched,
	}))

	got, err := repo.Get(ctx, "branches|org-1")
	require.NoError(t, err)
	assert.Equal(t, domain.VariantBranches, got.Variant)
	require.NotNil(t, got.OrgID)
	assert.Equal(t, "org-1", *got.OrgID)
	assert.JSONEq(t, testutil.BranchesCatalogueJSON, string(got.Payload))
	assert.Equal(t, 4, got.ItemCount)
	assert.True(t, fetched.Equal(got.FetchedAt))
}

func TestSnapshotRepo_SaveReplacesScope(t *testing.T) {
	repo := NewSQLiteSnapshotRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	first := &domain.CatalogueSnapshot{Scope: "auto|", Variant: domain.VariantBranches, Payload: []byte(`{"branches":[]}`), FetchedAt: time.Now()}
	second := &domain.CatalogueSnapshot{Scope: "auto|", Variant: domain.VariantFlow, Payload: []byte(`{"flow":[]}`), ItemCount: 2, FetchedAt: time.Now()}
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.Get(ctx, "auto|")
	require.NoError(t, err)
	assert.Equal(t, domain.VariantFlow, got.Variant)
	assert.Nil(t, got.OrgID)
	assert.Equal(t, 2, got.ItemCount)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSnapshotRepo_GetNotFound(t *testing.T) {
	repo := NewSQLiteSnapshotRepo(testutil.NewTestDB(t))

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotRepo_ListNewestFirst(t *testing.T) {
	repo := NewSQLiteSnapshotRepo(testutil.NewTestDB(t))
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, scope := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, &domain.CatalogueSnapshot{
			Scope: scope, Variant: domain.VariantFlow, Payload: []byte(`{}`), FetchedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Scope)
	assert.Equal(t, "a", all[2].Scope)
}
