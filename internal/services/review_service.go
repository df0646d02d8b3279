package services

import (
	"context"
	"fmt"

	"freshgrocer/internal/domain"
	"freshgrocer/internal/repos"
	"freshgrocer/internal/validate"
)

type ReviewService struct {
	Reviews *repos.ReviewRepo
	Prods   ProductLookup
}

func NewReviewService(reviews *repos.ReviewRepo, prods ProductLookup) *ReviewService {
	return &ReviewService{Reviews: reviews, Prods: prods}
}

// Upsert keeps at most one review per (product, author). rating is clamped
// into [1,5]; a blank comment is rejected before anything is written.
func (s *ReviewService) Upsert(ctx context.Context, productID string, author *domain.User, rating int, comment string) (domain.Review, bool, error) {
	if author == nil {
		return domain.Review{}, false, domain.ErrUnauthenticated
	}
	if _, err := s.Prods.GetActive(ctx, productID); err != nil {
		return domain.Review{}, false, err
	}
	text, ok := validate.Comment(comment)
	if !ok {
		return domain.Review{}, false, domain.Invalid("comment", "comment is required")
	}
	rev, created, err := s.Reviews.Upsert(ctx, productID, author.ID, validate.ClampRating(rating), text)
	if err != nil {
		return domain.Review{}, false, fmt.Errorf("upsert review: %w", err)
	}
	return rev, created, nil
}

func (s *ReviewService) List(ctx context.Context, productID string) ([]domain.Review, error) {
	return s.Reviews.ListByProduct(ctx, productID)
}

func (s *ReviewService) Summary(ctx context.Context, productID string) (domain.ReviewSummary, error) {
	return s.Reviews.Summary(ctx, productID)
}
