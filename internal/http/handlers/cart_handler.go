package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"freshgrocer/internal/domain"
	applog "freshgrocer/internal/log"
	"freshgrocer/internal/services"
	"freshgrocer/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), sessionID(c))
	if err != nil {
		return err
	}
	return render(c, "cart", fiber.Map{"Cart": cv})
}

// POST /cart/add/:id
func (h *CartHandler) Add(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundPage(c, goneMsg)
	}
	qty := validate.Qty(c.FormValue("qty"))
	_, err := h.Cart.Add(c.UserContext(), sessionID(c), currentUser(c), id, qty)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		setFlash(c, "error", goneMsg)
		return c.Redirect("/")
	case errors.Is(err, domain.ErrForbidden):
		applog.Security(c, "cart.add.own_product", map[string]any{"product": id})
		setFlash(c, "error", "You cannot buy your own product.")
		return c.Redirect("/product/" + id)
	case err != nil:
		return err
	}
	applog.Audit(c, "cart.add", map[string]any{"product": id, "qty": qty})
	setFlash(c, "ok", "Added to cart.")
	return c.Redirect(backTo(c.FormValue("next"), "/cart"))
}

// POST /cart/remove/:id
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Redirect("/cart")
	}
	if _, err := h.Cart.Remove(c.UserContext(), sessionID(c), id); err != nil {
		return err
	}
	applog.Audit(c, "cart.remove", map[string]any{"product": id})
	return c.Redirect("/cart")
}

// POST /cart/clear
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(c.UserContext(), sessionID(c)); err != nil {
		return err
	}
	applog.Audit(c, "cart.clear", nil)
	setFlash(c, "ok", "Cart cleared.")
	return c.Redirect("/cart")
}
