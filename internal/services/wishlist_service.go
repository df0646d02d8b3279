package services

import (
	"context"

	"freshgrocer/internal/domain"
	"freshgrocer/internal/repos"
)

type WishlistService struct {
	Repo  *repos.WishlistRepo
	Prods ProductLookup
}

func NewWishlistService(r *repos.WishlistRepo, prods ProductLookup) *WishlistService {
	return &WishlistService{Repo: r, Prods: prods}
}

// Save is idempotent: saving the same product twice keeps one row.
func (s *WishlistService) Save(ctx context.Context, u *domain.User, productID string) error {
	if u == nil {
		return domain.ErrUnauthenticated
	}
	if _, err := s.Prods.GetActive(ctx, productID); err != nil {
		return err
	}
	return s.Repo.Add(ctx, u.ID, productID)
}

func (s *WishlistService) Remove(ctx context.Context, u *domain.User, productID string) error {
	if u == nil {
		return domain.ErrUnauthenticated
	}
	return s.Repo.Remove(ctx, u.ID, productID)
}

func (s *WishlistService) List(ctx context.Context, u *domain.User) ([]domain.WishlistItem, error) {
	if u == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.Repo.List(ctx, u.ID)
}

// Has reports whether u saved productID. Anonymous users have saved nothing.
func (s *WishlistService) Has(ctx context.Context, u *domain.User, productID string) (bool, error) {
	if u == nil {
		return false, nil
	}
	n, err := s.Repo.Count(ctx, u.ID, productID)
	return n > 0, err
}
