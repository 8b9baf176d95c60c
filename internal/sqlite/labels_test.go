package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelRepository_TouchRecent(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewLabelRepository(db)

	require.NoError(t, repo.Touch(ctx, "code review"))
	require.NoError(t, repo.Touch(ctx, "sprint planning"))
	// Re-touching bumps recency without duplicating.
	require.NoError(t, repo.Touch(ctx, "code review"))

	labels, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, labels, 2)

	labels, err = repo.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, labels, 1)
}
