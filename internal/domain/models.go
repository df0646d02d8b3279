package domain

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}

type Product struct {
	ID           string          `db:"id"`
	OwnerID      sql.NullString  `db:"owner_id"`
	CategoryID   sql.NullString  `db:"category_id"`
	CategoryName string          `db:"category_name"`
	CategorySlug string          `db:"category_slug"`
	Title        string          `db:"title"`
	Price        decimal.Decimal `db:"price"`
	Description  string          `db:"description"`
	Image        string          `db:"image"` // relative to MEDIA_DIR, "" when none
	Active       bool            `db:"active"`
	CreatedAt    string          `db:"created_at"`
	UpdatedAt    string          `db:"updated_at"`
}

// OwnedBy reports whether userID is the product's owner. Unowned products
// belong to nobody.
func (p Product) OwnedBy(userID string) bool {
	return p.OwnerID.Valid && userID != "" && p.OwnerID.String == userID
}

// ProductInput carries the editable fields of a listing.
type ProductInput struct {
	Title       string
	Price       decimal.Decimal
	Description string
	CategoryID  string
	Active      bool
}

type Review struct {
	ID        string `db:"id" json:"id"`
	ProductID string `db:"product_id" json:"product"`
	UserID    string `db:"user_id" json:"-"`
	Username  string `db:"username" json:"user"`
	Rating    int    `db:"rating" json:"rating"`
	Comment   string `db:"comment" json:"comment"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}

// ReviewSummary holds the read-only aggregates for a product.
type ReviewSummary struct {
	Average float64 `db:"avg" json:"rating_avg"`
	Count   int     `db:"cnt" json:"rating_count"`
}

type WishlistItem struct {
	ProductID string          `db:"product_id"`
	Title     string          `db:"title"`
	Price     decimal.Decimal `db:"price"`
	Image     string          `db:"image"`
	Active    bool            `db:"active"`
	SavedAt   string          `db:"created_at"`
}
