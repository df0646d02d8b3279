package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"freshgrocer/internal/domain"
	applog "freshgrocer/internal/log"
	"freshgrocer/internal/services"
	"freshgrocer/internal/validate"
)

type DirectoryHandler struct {
	Catalog *services.CatalogService
}

var alphabet = strings.Split("ABCDEFGHIJKLMNOPQRSTUVWXYZ", "")

// GET /farmers?letter=&search=
func (h *DirectoryHandler) List(c *fiber.Ctx) error {
	letter, _ := validate.Letter(c.Query("letter"))
	search := ""
	if raw := c.Query("search"); strings.TrimSpace(raw) != "" {
		var ok bool
		if search, ok = validate.Q(raw); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "search"})
			search = ""
		}
	}
	farmers, err := h.Catalog.Farmers(c.UserContext(), letter, search)
	if err != nil {
		return err
	}
	return render(c, "farmers", fiber.Map{
		"Farmers": farmers, "Letter": letter, "Search": search, "Alphabet": alphabet,
	})
}

// GET /farmers/:id
func (h *DirectoryHandler) Profile(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundPage(c, "Farmer not found")
	}
	farmer, prods, err := h.Catalog.FarmerProfile(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return notFoundPage(c, "Farmer not found")
	}
	if err != nil {
		return err
	}
	return render(c, "farmer", fiber.Map{"Farmer": farmer, "Products": prods})
}
