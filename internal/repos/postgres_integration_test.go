//go:build integration

package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"freshgrocer/internal/repos"
)

func TestPostgresDialect(t *testing.T) {
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("freshgrocer"),
		postgres.WithUsername("fg"),
		postgres.WithPassword("fg"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := repos.OpenDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	assert.Equal(t, "pgx", db.DriverName())

	require.NoError(t, repos.Seed(db))
	require.NoError(t, repos.Seed(db))

	products := repos.NewProductRepo(db)
	got, err := products.Search(ctx, repos.ProductFilter{Q: "honey", Limit: 12})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "9.99", got[0].Price.StringFixed(2))

	// fold() is defined by the postgres schema too
	got, err = products.Search(ctx, repos.ProductFilter{Q: "WILDFLOWER", Limit: 12})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p-honey", got[0].ID)

	reviews := repos.NewReviewRepo(db)
	_, created, err := reviews.Upsert(ctx, "p-honey", "u-carl", 4, "ok")
	require.NoError(t, err)
	assert.True(t, created)
	rev, created, err := reviews.Upsert(ctx, "p-honey", "u-carl", 2, "actually bad")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 2, rev.Rating)

	s, err := reviews.Summary(ctx, "p-honey")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count)
	assert.InDelta(t, 2.0, s.Average, 0.001)

	_, err = db.Exec(`INSERT INTO categories(id,name,slug) VALUES('c-x','X','pantry')`)
	assert.True(t, repos.IsUniqueViolation(err))

	image, err := products.DeleteOwned(ctx, "p-honey", "u-fiona")
	require.NoError(t, err)
	assert.Equal(t, "", image)
}
