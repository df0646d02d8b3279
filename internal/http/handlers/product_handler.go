package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"freshgrocer/internal/domain"
	applog "freshgrocer/internal/log"
	"freshgrocer/internal/services"
	"freshgrocer/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Reviews *services.ReviewService
	Wish    *services.WishlistService
}

const goneMsg = "This item is no longer available"

// GET /product/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFoundPage(c, goneMsg)
	}
	d, err := h.Catalog.Detail(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return notFoundPage(c, goneMsg)
	}
	if err != nil {
		return err
	}
	u := currentUser(c)
	var mine *domain.Review
	if u != nil {
		for i := range d.Reviews {
			if d.Reviews[i].UserID == u.ID {
				mine = &d.Reviews[i]
			}
		}
	}
	saved, err := h.Wish.Has(c.UserContext(), u, id)
	if err != nil {
		return err
	}
	return render(c, "product", fiber.Map{
		"P":         d.Product,
		"Reviews":   d.Reviews,
		"Avg":       fmt.Sprintf("%.1f", d.Summary.Average),
		"Count":     d.Summary.Count,
		"Own":       services.RequireOwner(u, d.Product) == nil,
		"Saved":     saved,
		"MyReview":  mine,
		"CanReview": u != nil,
	})
}

// POST /product/:id/review
func (h *ProductHandler) Review(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundPage(c, goneMsg)
	}
	rating := validate.Rating(c.FormValue("rating"))
	rev, created, err := h.Reviews.Upsert(c.UserContext(), id, currentUser(c), rating, c.FormValue("comment"))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return notFoundPage(c, goneMsg)
	case errors.Is(err, domain.ErrValidation):
		applog.Security(c, "validation.fail", map[string]any{"field": "comment", "product": id})
		setFlash(c, "error", "Please write a comment with your rating.")
		return c.Redirect("/product/" + id)
	case err != nil:
		return err
	}
	action, msg := "review.update", "Your review was updated."
	if created {
		action, msg = "review.create", "Thanks for your review!"
	}
	applog.Audit(c, action, map[string]any{"product": id, "review": rev.ID, "rating": rev.Rating})
	setFlash(c, "ok", msg)
	return c.Redirect("/product/" + id)
}
