package repos

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"freshgrocer/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productSelect = `
  SELECT
    p.id, p.owner_id, p.category_id,
    COALESCE(c.name,'') AS category_name, COALESCE(c.slug,'') AS category_slug,
    p.title, p.price, p.description, p.image, p.active, p.created_at, p.updated_at
  FROM products p
  LEFT JOIN categories c ON c.id = p.category_id`

// ProductFilter is the public catalog query: active rows only.
type ProductFilter struct {
	Q            string
	CategorySlug string
	Limit        int
	Offset       int
}

func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(q)) + "%"
}

func (f ProductFilter) where() (string, []any) {
	where := `p.active`
	args := []any{}
	if f.Q != "" {
		where += ` AND (fold(p.title) LIKE ? ESCAPE '\' OR fold(p.description) LIKE ? ESCAPE '\')`
		pat := likePattern(f.Q)
		args = append(args, pat, pat)
	}
	if f.CategorySlug != "" {
		where += ` AND c.slug = ?`
		args = append(args, f.CategorySlug)
	}
	return where, args
}

func (r *ProductRepo) Search(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	where, args := f.where()
	q := productSelect + `
  WHERE ` + where + `
  ORDER BY p.created_at DESC, p.id DESC
  LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...)
	return out, err
}

func (r *ProductRepo) Count(ctx context.Context, f ProductFilter) (int, error) {
	where, args := f.where()
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`
  SELECT COUNT(*) FROM products p LEFT JOIN categories c ON c.id = p.category_id
  WHERE `+where), args...)
	return n, err
}

// GetActive is the public lookup; inactive rows are not found.
func (r *ProductRepo) GetActive(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, r.db.Rebind(productSelect+` WHERE p.id = ? AND p.active`), id)
	return p, notFound(err)
}

// GetOwned matches primary key and owner in one lookup.
func (r *ProductRepo) GetOwned(ctx context.Context, id, ownerID string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, r.db.Rebind(productSelect+` WHERE p.id = ? AND p.owner_id = ?`), id, ownerID)
	return p, notFound(err)
}

// ByIDs resolves many ids in one query, keyed by id. Unknown ids are absent.
func (r *ProductRepo) ByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(productSelect+` WHERE p.id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Product
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// ListByOwner is the farmer dashboard query and includes inactive rows.
func (r *ProductRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(productSelect+`
  WHERE p.owner_id = ?
  ORDER BY p.created_at DESC, p.id DESC`), ownerID)
	return out, err
}

func (r *ProductRepo) ListActiveByOwner(ctx context.Context, ownerID string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(productSelect+`
  WHERE p.owner_id = ? AND p.active
  ORDER BY p.created_at DESC, p.id DESC`), ownerID)
	return out, err
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	ts := now()
	p.CreatedAt, p.UpdatedAt = ts, ts
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO products(id,owner_id,category_id,title,price,description,image,active,created_at,updated_at)
	  VALUES(?,?,?,?,?,?,?,?,?,?)`),
		p.ID, p.OwnerID, p.CategoryID, p.Title, p.Price, p.Description, p.Image, p.Active, p.CreatedAt, p.UpdatedAt)
	return err
}

// UpdateOwned rewrites the editable fields of a row matching id and owner.
// An empty image keeps the stored one.
func (r *ProductRepo) UpdateOwned(ctx context.Context, id, ownerID string, in domain.ProductInput, image string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  UPDATE products
	  SET title = ?, price = ?, description = ?, category_id = ?, active = ?,
	      image = CASE WHEN ? = '' THEN image ELSE ? END,
	      updated_at = ?
	  WHERE id = ? AND owner_id = ?`),
		in.Title, in.Price, in.Description, nullString(in.CategoryID), in.Active,
		image, image, now(), id, ownerID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteOwned removes a row matching id and owner and returns its image
// path. Reviews and wishlist entries cascade.
func (r *ProductRepo) DeleteOwned(ctx context.Context, id, ownerID string) (string, error) {
	var image string
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
	  DELETE FROM products WHERE id = ? AND owner_id = ? RETURNING image`), id, ownerID).Scan(&image)
	return image, notFound(err)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
