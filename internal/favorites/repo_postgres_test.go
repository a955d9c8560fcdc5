//go:build integration_test || all_tests

package favorites

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/2beens/ironlog/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepoSetup(t *testing.T) (*PostgresRepo, func()) {
	t.Helper()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}

	dbPool, err := db.NewDBPool(timeoutCtx, db.NewDBPoolParams{
		DBHost:         host,
		DBPort:         "5432",
		DBName:         "ironlog",
		TracingEnabled: false,
	})
	require.NoError(t, err)

	return NewPostgresRepo(dbPool), func() {
		dbPool.Close()
	}
}

func TestPostgresRepo_Toggle(t *testing.T) {
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	ctx := context.Background()
	_, err := repo.db.Exec(ctx, `DELETE FROM favorite`)
	require.NoError(t, err)

	exerciseIDs, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, exerciseIDs)

	isFavorite, err := repo.Toggle(ctx, "user-1", "bench-press")
	require.NoError(t, err)
	assert.True(t, isFavorite)

	isFavorite, err = repo.Toggle(ctx, "user-1", "squat")
	require.NoError(t, err)
	assert.True(t, isFavorite)

	// other users markers stay separate
	isFavorite, err = repo.Toggle(ctx, "user-2", "bench-press")
	require.NoError(t, err)
	assert.True(t, isFavorite)

	exerciseIDs, err = repo.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"bench-press", "squat"}, exerciseIDs)

	isFavorite, err = repo.Toggle(ctx, "user-1", "bench-press")
	require.NoError(t, err)
	assert.False(t, isFavorite)

	exerciseIDs, err = repo.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"squat"}, exerciseIDs)

	exerciseIDs, err = repo.List(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"bench-press"}, exerciseIDs)
}
