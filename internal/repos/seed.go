package repos

import (
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	applog "freshgrocer/internal/log"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "Passw0rd!"

// Seed inserts demo categories, users and listings. Safe to run on every
// startup (idempotent).
func Seed(db *sqlx.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	exec := func(q string, args ...any) error {
		_, err := tx.Exec(tx.Rebind(q), args...)
		return err
	}

	cats := [][3]string{
		{"c-veg", "Vegetables", "vegetables"},
		{"c-pantry", "Pantry", "pantry"},
		{"c-dairy", "Dairy & Eggs", "dairy-eggs"},
	}
	for _, c := range cats {
		if err := exec(`INSERT INTO categories(id,name,slug) VALUES(?,?,?) ON CONFLICT(id) DO NOTHING`, c[0], c[1], c[2]); err != nil {
			return err
		}
	}

	users := []struct{ id, username, role string }{
		{"u-fiona", "fiona", "FARMER"},
		{"u-frank", "frank", "FARMER"},
		{"u-carl", "carl", "CUSTOMER"},
		{"u-cora", "cora", "CUSTOMER"},
	}
	ts := "2025-01-01 00:00:00.000000"
	for _, u := range users {
		if err := exec(`INSERT INTO users(id,username,email,password_hash,created_at) VALUES(?,?,?,?,?) ON CONFLICT(id) DO NOTHING`,
			u.id, u.username, u.username+"@freshgrocer.test", string(hash), ts); err != nil {
			return err
		}
		if err := exec(`INSERT INTO profiles(user_id,role) VALUES(?,?) ON CONFLICT(user_id) DO NOTHING`, u.id, u.role); err != nil {
			return err
		}
	}

	products := []struct {
		id, owner, cat, title, price, desc, created string
		active                                      bool
	}{
		{"p-carrots", "u-fiona", "c-veg", "Rainbow Carrots", "2.50", "Bunch of heirloom carrots", "2025-01-02 08:00:00.000000", true},
		{"p-eggs", "u-frank", "c-dairy", "Free-range Eggs", "4.25", "A dozen brown eggs", "2025-01-03 08:00:00.000000", true},
		{"p-kale", "u-frank", "c-veg", "Curly Kale", "3.00", "Out of season", "2025-01-04 08:00:00.000000", false},
		{"p-honey", "u-fiona", "c-pantry", "Wildflower Honey", "9.99", "Raw honey, 500g jar", "2025-01-05 08:00:00.000000", true},
	}
	for _, p := range products {
		if err := exec(`
			INSERT INTO products(id,owner_id,category_id,title,price,description,image,active,created_at,updated_at)
			VALUES(?,?,?,?,?,?,'',?,?,?)
			ON CONFLICT(id) DO NOTHING`,
			p.id, p.owner, p.cat, p.title, p.price, p.desc, p.active, p.created, p.created); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	applog.L().Info("seed.done")
	return nil
}
