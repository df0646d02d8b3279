package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "freshgrocer/internal/log"
	"freshgrocer/internal/services"
	"freshgrocer/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

// GET /?q=&page=&new=
func (h *CatalogHandler) Home(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	q := ""
	if strings.TrimSpace(rawQ) != "" {
		var ok bool
		if q, ok = validate.Q(rawQ); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "q"})
			return c.Status(fiber.StatusBadRequest).Render("home", fiber.Map{
				"Q": "", "Products": nil, "Err": "Enter a valid keyword (letters/numbers only)",
			})
		}
	}
	page, err := h.Catalog.Home(c.UserContext(), q, c.QueryInt("page", 1))
	if err != nil {
		applog.Error(c, "catalog.home.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load products. Please retry."})
	}
	newID, _ := validate.ID(c.Query("new"))
	return render(c, "home", fiber.Map{
		"Q": q, "Products": page.Items, "NewID": newID,
		"Page": page.Page, "HasPrev": page.HasPrev, "HasNext": page.HasNext,
		"PrevPage": page.Page - 1, "NextPage": page.Page + 1,
	})
}
