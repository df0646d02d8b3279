package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"freshgrocer/internal/domain"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewSelect = `
  SELECT r.id, r.product_id, r.user_id, u.username, r.rating, r.comment, r.created_at, r.updated_at
  FROM reviews r
  JOIN users u ON u.id = r.user_id`

// Upsert writes the single (product, user) review inside one transaction.
// created reports whether a new row was inserted. A unique violation on
// insert means a concurrent request won the race; the write is then
// retried as an update.
func (r *ReviewRepo) Upsert(ctx context.Context, productID, userID string, rating int, comment string) (rev domain.Review, created bool, err error) {
	for attempt := 0; attempt < 2; attempt++ {
		rev, created, err = r.upsertOnce(ctx, productID, userID, rating, comment)
		if !IsUniqueViolation(err) {
			return rev, created, err
		}
	}
	return rev, created, err
}

func (r *ReviewRepo) upsertOnce(ctx context.Context, productID, userID string, rating int, comment string) (domain.Review, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Review{}, false, err
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	var id string
	err = tx.GetContext(ctx, &id, tx.Rebind(`SELECT id FROM reviews WHERE product_id = ? AND user_id = ?`), productID, userID)
	created := errors.Is(err, sql.ErrNoRows)
	switch {
	case created:
		id = uuid.NewString()
		_, err = tx.ExecContext(ctx, tx.Rebind(`
		  INSERT INTO reviews(id,product_id,user_id,rating,comment,created_at,updated_at)
		  VALUES(?,?,?,?,?,?,?)`), id, productID, userID, rating, comment, ts, ts)
	case err == nil:
		_, err = tx.ExecContext(ctx, tx.Rebind(`
		  UPDATE reviews SET rating = ?, comment = ?, updated_at = ? WHERE id = ?`), rating, comment, ts, id)
	}
	if err != nil {
		return domain.Review{}, false, err
	}

	var rev domain.Review
	if err := tx.GetContext(ctx, &rev, tx.Rebind(reviewSelect+` WHERE r.id = ?`), id); err != nil {
		return domain.Review{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Review{}, false, err
	}
	return rev, created, nil
}

// ListByProduct returns reviews newest first.
func (r *ReviewRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	out := []domain.Review{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(reviewSelect+`
  WHERE r.product_id = ?
  ORDER BY r.updated_at DESC, r.id DESC`), productID)
	return out, err
}

// Summary never yields NULL: no reviews is an average of 0.
func (r *ReviewRepo) Summary(ctx context.Context, productID string) (domain.ReviewSummary, error) {
	var s domain.ReviewSummary
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`
  SELECT CAST(COALESCE(AVG(rating), 0) AS DOUBLE PRECISION) AS avg, COUNT(*) AS cnt
  FROM reviews WHERE product_id = ?`), productID)
	return s, err
}
