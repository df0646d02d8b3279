package handlers

import (
	"errors"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"freshgrocer/internal/domain"
	applog "freshgrocer/internal/log"
	"freshgrocer/internal/services"
	"freshgrocer/internal/validate"
)

// MaxImageBytes caps a single product photo.
const MaxImageBytes = 5 << 20

type FarmerHandler struct {
	Catalog *services.CatalogService
}

// productForm echoes submitted values back into product_form.html.
type productForm struct {
	ID          string
	Title       string
	Price       string
	Description string
	CategoryID  string
	Active      bool
	Image       string
}

func formFromProduct(p domain.Product) productForm {
	return productForm{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price.StringFixed(2),
		Description: p.Description,
		CategoryID:  p.CategoryID.String,
		Active:      p.Active,
		Image:       p.Image,
	}
}

func parseProductForm(c *fiber.Ctx) (productForm, domain.ProductInput, *multipart.FileHeader, error) {
	f := productForm{
		Title:       strings.TrimSpace(c.FormValue("title")),
		Price:       strings.TrimSpace(c.FormValue("price")),
		Description: strings.TrimSpace(c.FormValue("description")),
		CategoryID:  strings.TrimSpace(c.FormValue("category")),
		Active:      c.FormValue("active") != "",
	}
	in := domain.ProductInput{Title: f.Title, Description: f.Description, CategoryID: f.CategoryID, Active: f.Active}
	price, ok := validate.Price(f.Price)
	if !ok {
		return f, in, nil, domain.Invalid("price", "Enter a price like 4.50")
	}
	in.Price = price
	if f.CategoryID != "" {
		if _, ok := validate.ID(f.CategoryID); !ok {
			return f, in, nil, domain.Invalid("category", "Unknown category")
		}
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return f, in, nil, nil
	}
	if fh.Size > MaxImageBytes {
		return f, in, nil, domain.Invalid("image", "Image is too large")
	}
	return f, in, fh, nil
}

func (h *FarmerHandler) form(c *fiber.Ctx, status int, f productForm, errMsg string) error {
	cats, err := h.Catalog.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return render(c.Status(status), "product_form", fiber.Map{"Form": f, "Categories": cats, "Err": errMsg})
}

// ownerError turns a failed owner-scoped lookup into a page.
func ownerError(c *fiber.Ctx, err error, id string) error {
	if errors.Is(err, domain.ErrNotFound) {
		applog.Security(c, "access.denied.owner", map[string]any{"product": id})
		return notFoundPage(c, "Product not found")
	}
	return err
}

// GET /farmer/dashboard
func (h *FarmerHandler) Dashboard(c *fiber.Ctx) error {
	prods, err := h.Catalog.Dashboard(c.UserContext(), currentUser(c))
	if err != nil {
		applog.Error(c, "farmer.dashboard.fail", err, nil)
		return err
	}
	return render(c, "farmer_dashboard", fiber.Map{"Products": prods})
}

// GET /farmer/products/new
func (h *FarmerHandler) NewForm(c *fiber.Ctx) error {
	return h.form(c, fiber.StatusOK, productForm{Active: true}, "")
}

// POST /farmer/products/new
func (h *FarmerHandler) Create(c *fiber.Ctx) error {
	f, in, fh, err := parseProductForm(c)
	if err == nil {
		var p domain.Product
		if p, err = h.Catalog.Create(c.UserContext(), currentUser(c), in, fh); err == nil {
			applog.Audit(c, "product.create", map[string]any{"product": p.ID})
			setFlash(c, "ok", "Product created.")
			return c.Redirect("/?new=" + p.ID)
		}
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		applog.Security(c, "validation.fail", map[string]any{"field": ve.Field})
		return h.form(c, fiber.StatusBadRequest, f, ve.Message)
	}
	return err
}

// GET /farmer/products/:id/edit
func (h *FarmerHandler) EditForm(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundPage(c, "Product not found")
	}
	p, err := h.Catalog.Owned(c.UserContext(), currentUser(c), id)
	if err != nil {
		return ownerError(c, err, id)
	}
	return h.form(c, fiber.StatusOK, formFromProduct(p), "")
}

// POST /farmer/products/:id/edit
func (h *FarmerHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundPage(c, "Product not found")
	}
	f, in, fh, err := parseProductForm(c)
	f.ID = id
	if err == nil {
		if err = h.Catalog.Update(c.UserContext(), currentUser(c), id, in, fh); err == nil {
			applog.Audit(c, "product.update", map[string]any{"product": id})
			setFlash(c, "ok", "Product updated.")
			return c.Redirect("/farmer/dashboard")
		}
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		applog.Security(c, "validation.fail", map[string]any{"field": ve.Field})
		return h.form(c, fiber.StatusBadRequest, f, ve.Message)
	}
	return ownerError(c, err, id)
}

// POST /farmer/products/:id/delete
func (h *FarmerHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundPage(c, "Product not found")
	}
	if err := h.Catalog.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return ownerError(c, err, id)
	}
	applog.Audit(c, "product.delete", map[string]any{"product": id})
	setFlash(c, "ok", "Product deleted.")
	return c.Redirect("/farmer/dashboard")
}
