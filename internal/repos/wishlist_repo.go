package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"freshgrocer/internal/domain"
)

type WishlistRepo struct{ db *sqlx.DB }

func NewWishlistRepo(db *sqlx.DB) *WishlistRepo { return &WishlistRepo{db: db} }

// Add is idempotent: the (user, product) key makes repeat saves no-ops.
func (r *WishlistRepo) Add(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO wishlist_items(user_id, product_id, created_at)
	  VALUES(?, ?, ?)
	  ON CONFLICT(user_id, product_id) DO NOTHING
	`), userID, productID, now())
	return err
}

func (r *WishlistRepo) Remove(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM wishlist_items WHERE user_id=? AND product_id=?`), userID, productID)
	return err
}

func (r *WishlistRepo) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	out := []domain.WishlistItem{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT p.id AS product_id, p.title, p.price, p.image, p.active, wi.created_at
	  FROM wishlist_items wi
	  JOIN products p ON p.id = wi.product_id
	  WHERE wi.user_id = ?
	  ORDER BY wi.created_at DESC, p.title
	`), userID)
	return out, err
}

func (r *WishlistRepo) Count(ctx context.Context, userID, productID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM wishlist_items WHERE user_id=? AND product_id=?`), userID, productID)
	return n, err
}
