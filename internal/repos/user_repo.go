package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"freshgrocer/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// The profile join resolves the role once; a missing profile scans as
// domain.RoleNone.
const userSelect = `
  SELECT u.id, u.username, u.email, u.password_hash, pr.role
  FROM users u
  LEFT JOIN profiles pr ON pr.user_id = u.id`

func (r *UserRepo) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := r.DB.GetContext(ctx, &u, r.DB.Rebind(userSelect+` WHERE LOWER(u.username) = LOWER(?)`), username); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.DB.GetContext(ctx, &u, r.DB.Rebind(userSelect+` WHERE u.id = ?`), id); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Create inserts the user and its profile together. A taken username is
// domain.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`
	  INSERT INTO users(id,username,email,password_hash,created_at) VALUES(?,?,?,?,?)`),
		u.ID, u.Username, u.Email, u.Hash, now()); err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	if u.Role != domain.RoleNone {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO profiles(user_id,role) VALUES(?,?)`), u.ID, u.Role); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Farmers lists users with a FARMER profile, optionally filtered by
// username initial and substring.
func (r *UserRepo) Farmers(ctx context.Context, letter, search string) ([]domain.User, error) {
	q := userSelect + ` WHERE pr.role = 'FARMER'`
	args := []any{}
	if letter != "" {
		q += ` AND fold(u.username) LIKE ? ESCAPE '\'`
		args = append(args, likePrefix(letter))
	}
	if search != "" {
		q += ` AND fold(u.username) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(search))
	}
	q += ` ORDER BY LOWER(u.username)`
	out := []domain.User{}
	err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(q), args...)
	return out, err
}

func likePrefix(s string) string {
	p := likePattern(s)
	return p[1:]
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	ts := now()
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`INSERT INTO sessions(id,user_id,created_at,last_seen)
                          VALUES(?,?,?,?)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=excluded.last_seen`), sid, userID, ts, ts)
	return err
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`
      SELECT u.id, u.username, u.email, u.password_hash, pr.role
      FROM sessions s
      JOIN users u ON u.id = s.user_id
      LEFT JOIN profiles pr ON pr.user_id = u.id
      WHERE s.id = ?`), sid)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// UnbindSession logs the session out and drops its cart.
func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE sessions SET user_id=NULL,last_seen=? WHERE id=?`), now(), sid); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM cart_items WHERE session_id=?`), sid); err != nil {
		return err
	}
	return tx.Commit()
}
