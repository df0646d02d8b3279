package services

import (
	"context"
	"database/sql"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"freshgrocer/internal/domain"
	applog "freshgrocer/internal/log"
	"freshgrocer/internal/repos"
	"freshgrocer/internal/validate"
)

const PageSize = 12

type CatalogService struct {
	Cats    *repos.CategoryRepo
	Prods   *repos.ProductRepo
	Reviews *repos.ReviewRepo
	Users   *repos.UserRepo
	Media   *MediaStore
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, reviews *repos.ReviewRepo, users *repos.UserRepo, media *MediaStore) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Reviews: reviews, Users: users, Media: media}
}

type ProductPage struct {
	Items   []domain.Product
	Count   int
	Page    int
	HasNext bool
	HasPrev bool
}

type ProductDetail struct {
	Product domain.Product
	Reviews []domain.Review
	Summary domain.ReviewSummary
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

// Home is one page of the newest active products, optionally filtered by q.
func (s *CatalogService) Home(ctx context.Context, q string, page int) (ProductPage, error) {
	return s.Page(ctx, q, "", page)
}

// Page is the paginated public listing; page numbers start at 1.
func (s *CatalogService) Page(ctx context.Context, q, categorySlug string, page int) (ProductPage, error) {
	if page < 1 {
		page = 1
	}
	f := repos.ProductFilter{Q: q, CategorySlug: categorySlug, Limit: PageSize, Offset: (page - 1) * PageSize}
	n, err := s.Prods.Count(ctx, f)
	if err != nil {
		return ProductPage{}, fmt.Errorf("count products: %w", err)
	}
	items, err := s.Prods.Search(ctx, f)
	if err != nil {
		return ProductPage{}, fmt.Errorf("search products: %w", err)
	}
	return ProductPage{
		Items:   items,
		Count:   n,
		Page:    page,
		HasNext: page*PageSize < n,
		HasPrev: page > 1,
	}, nil
}

func (s *CatalogService) Product(ctx context.Context, id string) (domain.Product, error) {
	return s.Prods.GetActive(ctx, id)
}

// Detail bundles a product with its reviews and rating summary.
func (s *CatalogService) Detail(ctx context.Context, id string) (ProductDetail, error) {
	p, err := s.Prods.GetActive(ctx, id)
	if err != nil {
		return ProductDetail{}, err
	}
	revs, err := s.Reviews.ListByProduct(ctx, id)
	if err != nil {
		return ProductDetail{}, fmt.Errorf("list reviews: %w", err)
	}
	sum, err := s.Reviews.Summary(ctx, id)
	if err != nil {
		return ProductDetail{}, fmt.Errorf("review summary: %w", err)
	}
	return ProductDetail{Product: p, Reviews: revs, Summary: sum}, nil
}

func (s *CatalogService) Dashboard(ctx context.Context, u *domain.User) ([]domain.Product, error) {
	if err := RequireFarmer(u); err != nil {
		return nil, err
	}
	return s.Prods.ListByOwner(ctx, u.ID)
}

// Owned loads a listing for its owner's edit form.
func (s *CatalogService) Owned(ctx context.Context, u *domain.User, id string) (domain.Product, error) {
	if err := RequireFarmer(u); err != nil {
		return domain.Product{}, err
	}
	return s.Prods.GetOwned(ctx, id, u.ID)
}

func (s *CatalogService) checkInput(ctx context.Context, in *domain.ProductInput) error {
	title, ok := validate.Title(in.Title)
	if !ok {
		return domain.Invalid("title", "title is required")
	}
	in.Title = title
	if in.Price.IsNegative() {
		return domain.Invalid("price", "price must not be negative")
	}
	if in.CategoryID != "" {
		ok, err := s.Cats.Exists(ctx, in.CategoryID)
		if err != nil {
			return fmt.Errorf("check category: %w", err)
		}
		if !ok {
			return domain.Invalid("category", "unknown category")
		}
	}
	return nil
}

// Create stores a new listing owned by u. image may be nil.
func (s *CatalogService) Create(ctx context.Context, u *domain.User, in domain.ProductInput, image *multipart.FileHeader) (domain.Product, error) {
	if err := RequireFarmer(u); err != nil {
		return domain.Product{}, err
	}
	if err := s.checkInput(ctx, &in); err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{
		ID:          uuid.NewString(),
		OwnerID:     validNull(u.ID),
		CategoryID:  validNull(in.CategoryID),
		Title:       in.Title,
		Price:       in.Price,
		Description: in.Description,
		Active:      in.Active,
	}
	if image != nil {
		rel, err := s.Media.Save(u.ID, image)
		if err != nil {
			return domain.Product{}, fmt.Errorf("store image: %w", err)
		}
		p.Image = rel
	}
	if err := s.Prods.Create(ctx, &p); err != nil {
		s.dropImage(p.Image)
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// Update edits a listing in place; only the owner's rows match.
func (s *CatalogService) Update(ctx context.Context, u *domain.User, id string, in domain.ProductInput, image *multipart.FileHeader) error {
	if err := RequireFarmer(u); err != nil {
		return err
	}
	if err := s.checkInput(ctx, &in); err != nil {
		return err
	}
	old, err := s.Prods.GetOwned(ctx, id, u.ID)
	if err != nil {
		return err
	}
	rel := ""
	if image != nil {
		if rel, err = s.Media.Save(u.ID, image); err != nil {
			return fmt.Errorf("store image: %w", err)
		}
	}
	if err := s.Prods.UpdateOwned(ctx, id, u.ID, in, rel); err != nil {
		s.dropImage(rel)
		return err
	}
	if rel != "" && old.Image != "" {
		s.dropImage(old.Image)
	}
	return nil
}

// Delete removes a listing and, best-effort, its image.
func (s *CatalogService) Delete(ctx context.Context, u *domain.User, id string) error {
	if err := RequireFarmer(u); err != nil {
		return err
	}
	image, err := s.Prods.DeleteOwned(ctx, id, u.ID)
	if err != nil {
		return err
	}
	s.dropImage(image)
	return nil
}

func (s *CatalogService) dropImage(rel string) {
	if rel == "" || s.Media == nil {
		return
	}
	if err := s.Media.Remove(rel); err != nil {
		applog.L().Warn("media.remove_failed", zap.String("image", rel), zap.Error(err))
	}
}

// Farmers is the farmer directory, filtered by initial and substring.
func (s *CatalogService) Farmers(ctx context.Context, letter, search string) ([]domain.User, error) {
	return s.Users.Farmers(ctx, letter, search)
}

// FarmerProfile returns a farmer and their active listings. Users without
// a farmer profile are not found.
func (s *CatalogService) FarmerProfile(ctx context.Context, id string) (*domain.User, []domain.Product, error) {
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !IsFarmer(u) {
		return nil, nil, domain.ErrNotFound
	}
	prods, err := s.Prods.ListActiveByOwner(ctx, u.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("farmer products: %w", err)
	}
	return u, prods, nil
}

func validNull(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
