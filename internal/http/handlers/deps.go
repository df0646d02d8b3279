package handlers

import (
	"github.com/jmoiron/sqlx"

	"freshgrocer/internal/config"
	"freshgrocer/internal/repos"
	"freshgrocer/internal/services"
)

type Deps struct {
	Cfg  config.Config
	Auth *services.AuthService

	CatalogHandler   *CatalogHandler
	ProductHandler   *ProductHandler
	CartHandler      *CartHandler
	WishlistHandler  *WishlistHandler
	FarmerHandler    *FarmerHandler
	DirectoryHandler *DirectoryHandler
	AuthHandler      *AuthHandler
	APIHandler       *APIHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	reviewRepo := repos.NewReviewRepo(db)
	userRepo := repos.NewUserRepo(db)
	cartRepo := repos.NewCartRepo(db)
	wishRepo := repos.NewWishlistRepo(db)

	media := &services.MediaStore{Root: cfg.MediaDir}
	authSvc := services.NewAuthService(userRepo, cfg.JWTSecret)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, reviewRepo, userRepo, media)
	reviewSvc := services.NewReviewService(reviewRepo, prodRepo)
	var carts services.CartStore = cartRepo
	if cfg.CartStore == "memory" {
		carts = services.NewMemoryCartStore()
	}
	cartSvc := services.NewCartService(carts, prodRepo)
	wishSvc := services.NewWishlistService(wishRepo, prodRepo)

	return &Deps{
		Cfg:              cfg,
		Auth:             authSvc,
		CatalogHandler:   &CatalogHandler{Catalog: catalogSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc, Reviews: reviewSvc, Wish: wishSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		WishlistHandler:  &WishlistHandler{Wish: wishSvc},
		FarmerHandler:    &FarmerHandler{Catalog: catalogSvc},
		DirectoryHandler: &DirectoryHandler{Catalog: catalogSvc},
		AuthHandler:      &AuthHandler{Auth: authSvc, Cart: cartSvc, Secure: cfg.CookieSecure},
		APIHandler:       &APIHandler{Catalog: catalogSvc, Reviews: reviewSvc, Cart: cartSvc, Auth: authSvc},
	}
}
