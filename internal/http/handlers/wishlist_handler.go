package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"freshgrocer/internal/domain"
	applog "freshgrocer/internal/log"
	"freshgrocer/internal/services"
	"freshgrocer/internal/validate"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	items, err := h.Wish.List(c.UserContext(), currentUser(c))
	if err != nil {
		applog.Error(c, "wishlist.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load wishlist"})
	}
	return render(c, "wishlist", fiber.Map{"Items": items})
}

// POST /wishlist/add/:id
func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundPage(c, goneMsg)
	}
	err := h.Wish.Save(c.UserContext(), currentUser(c), pid)
	if errors.Is(err, domain.ErrNotFound) {
		return notFoundPage(c, goneMsg)
	}
	if err != nil {
		applog.Error(c, "wishlist.save.fail", err, map[string]any{"product": pid})
		return err
	}
	applog.Audit(c, "wishlist.save", map[string]any{"product": pid})
	setFlash(c, "ok", "Saved to your wishlist.")
	return c.Redirect(backTo(c.FormValue("next"), "/wishlist"))
}

// POST /wishlist/remove/:id
func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Redirect("/wishlist")
	}
	if err := h.Wish.Remove(c.UserContext(), currentUser(c), pid); err != nil {
		applog.Error(c, "wishlist.unsave.fail", err, map[string]any{"product": pid})
		return err
	}
	applog.Audit(c, "wishlist.unsave", map[string]any{"product": pid})
	return c.Redirect("/wishlist")
}
