package handlers

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"freshgrocer/internal/domain"
	applog "freshgrocer/internal/log"
	"freshgrocer/internal/services"
	"freshgrocer/internal/validate"
)

type APIHandler struct {
	Catalog *services.CatalogService
	Reviews *services.ReviewService
	Cart    *services.CartService
	Auth    *services.AuthService
}

type categoryJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type productJSON struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Price       string        `json:"price"`
	ImageURL    *string       `json:"image_url"`
	Category    *categoryJSON `json:"category"`
	Owner       string        `json:"owner,omitempty"`
	Active      bool          `json:"active"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`

	RatingAvg   *float64 `json:"rating_avg,omitempty"`
	RatingCount *int     `json:"rating_count,omitempty"`
}

func toProductJSON(c *fiber.Ctx, p domain.Product) productJSON {
	out := productJSON{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Owner:       p.OwnerID.String,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Image != "" {
		u := c.BaseURL() + "/media/" + p.Image
		out.ImageURL = &u
	}
	if p.CategoryID.Valid {
		out.Category = &categoryJSON{ID: p.CategoryID.String, Name: p.CategoryName, Slug: p.CategorySlug}
	}
	return out
}

// pageURL rebuilds the list URL for another page, keeping the filters.
func pageURL(c *fiber.Ctx, q, category string, page int) *string {
	v := url.Values{}
	if q != "" {
		v.Set("q", q)
	}
	if category != "" {
		v.Set("category", category)
	}
	v.Set("page", strconv.Itoa(page))
	s := c.BaseURL() + "/api/products?" + v.Encode()
	return &s
}

// GET /api/products?q=&category=&page=
func (h *APIHandler) Products(c *fiber.Ctx) error {
	q := ""
	if raw := c.Query("q"); strings.TrimSpace(raw) != "" {
		var ok bool
		if q, ok = validate.Q(raw); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "q"})
			return apiError(c, domain.Invalid("q", "invalid search keyword"))
		}
	}
	category := strings.TrimSpace(c.Query("category"))
	page := c.QueryInt("page", 1)
	res, err := h.Catalog.Page(c.UserContext(), q, category, page)
	if err != nil {
		return apiError(c, err)
	}
	results := make([]productJSON, 0, len(res.Items))
	for _, p := range res.Items {
		results = append(results, toProductJSON(c, p))
	}
	body := fiber.Map{"count": res.Count, "next": nil, "previous": nil, "results": results}
	if res.HasNext {
		body["next"] = pageURL(c, q, category, res.Page+1)
	}
	if res.HasPrev {
		body["previous"] = pageURL(c, q, category, res.Page-1)
	}
	return c.JSON(body)
}

// GET /api/products/:id
func (h *APIHandler) Product(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return apiError(c, domain.ErrNotFound)
	}
	d, err := h.Catalog.Detail(c.UserContext(), id)
	if err != nil {
		return apiError(c, err)
	}
	out := toProductJSON(c, d.Product)
	out.RatingAvg, out.RatingCount = &d.Summary.Average, &d.Summary.Count
	return c.JSON(out)
}

// GET /api/categories
func (h *APIHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.Categories(c.UserContext())
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(cats)
}

// GET /api/products/:id/reviews
func (h *APIHandler) ListReviews(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return apiError(c, domain.ErrNotFound)
	}
	if _, err := h.Catalog.Product(c.UserContext(), id); err != nil {
		return apiError(c, err)
	}
	revs, err := h.Reviews.List(c.UserContext(), id)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(revs)
}

// reviewBody accepts rating as a number or a string.
type reviewBody struct {
	Rating  any    `json:"rating"`
	Comment string `json:"comment"`
}

// coerceInt degrades unparseable input to def. Numbers beyond int32 are
// pinned to its bounds so callers clamp them toward the right end.
func coerceInt(v any, def int) int {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) {
			return def
		}
		if t > math.MaxInt32 {
			return math.MaxInt32
		}
		if t < math.MinInt32 {
			return math.MinInt32
		}
		return int(t)
	case string:
		if n, ok := validate.Int(t); ok {
			return n
		}
	}
	return def
}

// POST /api/products/:id/reviews
func (h *APIHandler) PostReview(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return apiError(c, domain.ErrNotFound)
	}
	var body reviewBody
	if err := c.BodyParser(&body); err != nil {
		return apiError(c, domain.Invalid("body", "malformed request body"))
	}
	rev, created, err := h.Reviews.Upsert(c.UserContext(), id, currentUser(c), coerceInt(body.Rating, 5), body.Comment)
	if err != nil {
		return apiError(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	applog.Audit(c, "api.review.upsert", map[string]any{"product": id, "created": created})
	return c.Status(status).JSON(rev)
}

type cartItemJSON struct {
	Product   productJSON `json:"product"`
	Qty       int         `json:"qty"`
	LineTotal string      `json:"line_total"`
}

func (h *APIHandler) cartBody(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), sessionID(c))
	if err != nil {
		return apiError(c, err)
	}
	items := make([]cartItemJSON, 0, len(cv.Lines))
	for _, l := range cv.Lines {
		items = append(items, cartItemJSON{Product: toProductJSON(c, l.Product), Qty: l.Qty, LineTotal: l.LineTotal.StringFixed(2)})
	}
	return c.JSON(fiber.Map{"items": items, "total": cv.Total.StringFixed(2), "count": cv.Count})
}

// GET /api/cart
func (h *APIHandler) GetCart(c *fiber.Ctx) error {
	return h.cartBody(c)
}

type cartBody struct {
	Product string `json:"product"`
	Qty     any    `json:"qty"`
}

// POST /api/cart {product, qty}
func (h *APIHandler) AddToCart(c *fiber.Ctx) error {
	var body cartBody
	if err := c.BodyParser(&body); err != nil {
		return apiError(c, domain.Invalid("body", "malformed request body"))
	}
	id, ok := validate.ID(body.Product)
	if !ok {
		return apiError(c, domain.Invalid("product", "product is required"))
	}
	qty := validate.ClampQty(coerceInt(body.Qty, 1))
	cart, err := h.Cart.Add(c.UserContext(), sessionID(c), currentUser(c), id, qty)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			applog.Security(c, "cart.add.own_product", map[string]any{"product": id})
		}
		return apiError(c, err)
	}
	applog.Audit(c, "api.cart.add", map[string]any{"product": id, "qty": qty})
	return c.JSON(fiber.Map{"message": "Added", "cart": cart})
}

// DELETE /api/cart/:id
func (h *APIHandler) RemoveFromCart(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return apiError(c, domain.ErrNotFound)
	}
	if _, err := h.Cart.Remove(c.UserContext(), sessionID(c), id); err != nil {
		return apiError(c, err)
	}
	return h.cartBody(c)
}

// DELETE /api/cart
func (h *APIHandler) ClearCart(c *fiber.Ctx) error {
	if err := h.Cart.Clear(c.UserContext(), sessionID(c)); err != nil {
		return apiError(c, err)
	}
	return h.cartBody(c)
}

type tokenBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/token
func (h *APIHandler) Token(c *fiber.Ctx) error {
	var body tokenBody
	if err := c.BodyParser(&body); err != nil {
		return apiError(c, domain.Invalid("body", "malformed request body"))
	}
	u, err := h.Auth.Authenticate(c.UserContext(), body.Username, body.Password)
	if err != nil {
		applog.Security(c, "api.token.fail", map[string]any{"username": body.Username})
		return apiError(c, err)
	}
	tok, err := h.Auth.IssueToken(u)
	if err != nil {
		return apiError(c, err)
	}
	c.Locals("user_id", u.ID)
	applog.Audit(c, "api.token.issue", nil)
	return c.JSON(fiber.Map{"token": tok, "expires_in": int(services.TokenTTL.Seconds())})
}
