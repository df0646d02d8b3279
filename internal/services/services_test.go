package services_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"freshgrocer/internal/domain"
	"freshgrocer/internal/repos"
	"freshgrocer/internal/services"
)

type fixture struct {
	db       *sqlx.DB
	ctx      context.Context
	cart     *services.CartService
	reviews  *services.ReviewService
	catalog  *services.CatalogService
	wishlist *services.WishlistService
	auth     *services.AuthService
	users    *repos.UserRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repos.Seed(db))

	prods := repos.NewProductRepo(db)
	users := repos.NewUserRepo(db)
	reviews := repos.NewReviewRepo(db)
	media := &services.MediaStore{Root: t.TempDir()}
	return &fixture{
		db:       db,
		ctx:      context.Background(),
		cart:     services.NewCartService(repos.NewCartRepo(db), prods),
		reviews:  services.NewReviewService(reviews, prods),
		catalog:  services.NewCatalogService(repos.NewCategoryRepo(db), prods, reviews, users, media),
		wishlist: services.NewWishlistService(repos.NewWishlistRepo(db), prods),
		auth:     services.NewAuthService(users, "test-secret"),
		users:    users,
	}
}

func (f *fixture) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := f.users.ByID(f.ctx, id)
	require.NoError(t, err)
	return u
}

func fileHeader(t *testing.T, name, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["image"][0]
}
