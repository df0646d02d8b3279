package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"freshgrocer/internal/domain"
	"freshgrocer/internal/validate"
)

// CartStore persists a session's cart. repos.CartRepo is the durable one.
type CartStore interface {
	Load(ctx context.Context, sessionID string) (domain.Cart, error)
	Save(ctx context.Context, sessionID string, c domain.Cart) error
	Clear(ctx context.Context, sessionID string) error
}

// ProductLookup is the slice of the catalog the cart needs.
type ProductLookup interface {
	GetActive(ctx context.Context, id string) (domain.Product, error)
	ByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type CartService struct {
	Store CartStore
	Prods ProductLookup
}

func NewCartService(store CartStore, prods ProductLookup) *CartService {
	return &CartService{Store: store, Prods: prods}
}

// Add puts qty more of productID into the session cart. buyer may be nil
// for anonymous API carts.
func (s *CartService) Add(ctx context.Context, sessionID string, buyer *domain.User, productID string, qty int) (domain.Cart, error) {
	qty = validate.ClampQty(qty)
	p, err := s.Prods.GetActive(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := CanPurchase(buyer, p); err != nil {
		return nil, err
	}
	cart, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	cart.Add(p.ID, qty)
	if err := s.Store.Save(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// View prices every line with one batched product lookup. Lines whose
// product is gone and malformed quantities are skipped, not fatal.
func (s *CartService) View(ctx context.Context, sessionID string) (domain.CartView, error) {
	view := domain.CartView{Lines: []domain.CartLine{}, Total: decimal.Zero}
	cart, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return view, fmt.Errorf("load cart: %w", err)
	}
	ids := cart.ProductIDs()
	products, err := s.Prods.ByIDs(ctx, ids)
	if err != nil {
		return view, fmt.Errorf("resolve cart products: %w", err)
	}
	for _, id := range ids {
		p, ok := products[id]
		qty := cart[id]
		if !ok || qty < 1 {
			continue
		}
		line := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		view.Lines = append(view.Lines, domain.CartLine{Product: p, Qty: qty, LineTotal: line})
		view.Total = view.Total.Add(line)
		view.Count += qty
	}
	return view, nil
}

// Remove is a no-op when the product is not in the cart.
func (s *CartService) Remove(ctx context.Context, sessionID, productID string) (domain.Cart, error) {
	cart, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if _, ok := cart[productID]; !ok {
		return cart, nil
	}
	cart.Remove(productID)
	if err := s.Store.Save(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	return s.Store.Clear(ctx, sessionID)
}

func (s *CartService) Contents(ctx context.Context, sessionID string) (domain.Cart, error) {
	return s.Store.Load(ctx, sessionID)
}
