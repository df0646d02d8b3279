package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"freshgrocer/internal/domain"
)

// CartRepo is the durable session store for carts: one row per
// (session, product).
type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

type cartLineRow struct {
	ProductID string `db:"product_id"`
	Qty       int    `db:"qty"`
}

func (r *CartRepo) Load(ctx context.Context, sessionID string) (domain.Cart, error) {
	var rows []cartLineRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
	  SELECT product_id, qty FROM cart_items WHERE session_id = ?`), sessionID); err != nil {
		return nil, err
	}
	cart := make(domain.Cart, len(rows))
	for _, it := range rows {
		cart[it.ProductID] = it.Qty
	}
	return cart, nil
}

// Save replaces the stored cart with c. Concurrent saves for one session
// are last-writer-wins.
func (r *CartRepo) Save(ctx context.Context, sessionID string, c domain.Cart) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM cart_items WHERE session_id = ?`), sessionID); err != nil {
		return err
	}
	ts := now()
	for _, pid := range c.ProductIDs() {
		qty := c[pid]
		if qty < 1 {
			continue
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
		  INSERT INTO cart_items(session_id, product_id, qty, updated_at) VALUES(?,?,?,?)`),
			sessionID, pid, qty, ts); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *CartRepo) Clear(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM cart_items WHERE session_id = ?`), sessionID)
	return err
}
