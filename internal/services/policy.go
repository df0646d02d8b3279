package services

import "freshgrocer/internal/domain"

// IsFarmer is true iff the user has a profile with role FARMER.
func IsFarmer(u *domain.User) bool { return u.IsFarmer() }

// RequireFarmer gates every farmer-only operation.
func RequireFarmer(u *domain.User) error {
	if u == nil {
		return domain.ErrUnauthenticated
	}
	if !IsFarmer(u) {
		return domain.ErrForbidden
	}
	return nil
}

// RequireOwner masks a foreign listing as missing so its existence does
// not leak.
func RequireOwner(u *domain.User, p domain.Product) error {
	if err := RequireFarmer(u); err != nil {
		return err
	}
	if !p.OwnedBy(u.ID) {
		return domain.ErrNotFound
	}
	return nil
}

// CanPurchase stops sellers from buying their own listings. Anonymous
// buyers own nothing.
func CanPurchase(u *domain.User, p domain.Product) error {
	if u != nil && p.OwnedBy(u.ID) {
		return domain.ErrForbidden
	}
	return nil
}
