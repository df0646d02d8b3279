package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Role is resolved once when an identity is loaded. RoleNone means the user
// has no profile row at all.
type Role int

const (
	RoleNone Role = iota
	RoleCustomer
	RoleFarmer
)

func (r Role) String() string {
	switch r {
	case RoleCustomer:
		return "CUSTOMER"
	case RoleFarmer:
		return "FARMER"
	default:
		return ""
	}
}

// ParseRole maps a stored or submitted role name. Unknown names are RoleNone.
func ParseRole(s string) Role {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CUSTOMER":
		return RoleCustomer
	case "FARMER":
		return RoleFarmer
	default:
		return RoleNone
	}
}

// Scan implements sql.Scanner; NULL (missing profile) scans to RoleNone.
func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = RoleNone
	case string:
		*r = ParseRole(v)
	case []byte:
		*r = ParseRole(string(v))
	default:
		return fmt.Errorf("role: cannot scan %T", src)
	}
	return nil
}

func (r Role) Value() (driver.Value, error) {
	if r == RoleNone {
		return nil, nil
	}
	return r.String(), nil
}

type User struct {
	ID       string `db:"id"`
	Username string `db:"username"`
	Email    string `db:"email"`
	Hash     string `db:"password_hash"`
	Role     Role   `db:"role"`
}

func (u *User) IsFarmer() bool { return u != nil && u.Role == RoleFarmer }
