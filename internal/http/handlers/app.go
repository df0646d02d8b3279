package handlers

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	applog "freshgrocer/internal/log"
)

const accessFormat = `{"ts":"${time}","level":"info","action":"http.access","req_id":"${locals:requestid}","ip":"${ip}","method":"${method}","path":"${path}","status":${status},"latency":"${latency}"}` + "\n"

// Media serves uploaded images from dir, refusing traversal attempts.
func Media(dir string) fiber.Handler {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		// encoded traversal as well as raw .. or null bytes
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(dir, clean), true)
	}
}

// NewApp builds the fiber application with middleware and every route.
func NewApp(d *Deps) *fiber.App {
	cfg := d.Cfg
	engine := html.New(cfg.TemplatesDir, ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		BodyLimit:    cfg.MaxBodyBytes,
		ErrorHandler: ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{Format: accessFormat, Output: applog.Writer()}))
	app.Use(helmet.New())
	app.Use(Session(d.Auth, cfg.CookieSecure))
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/media/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		ContextKey:     "csrf",
		Next: func(c *fiber.Ctx) bool {
			// token-or-cookie JSON clients; the sid cookie is SameSite=Lax
			return strings.HasPrefix(c.Path(), "/api/")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	app.Get("/media/*", Media(cfg.MediaDir))

	// ---------- Public pages ----------
	app.Get("/", d.CatalogHandler.Home)
	app.Get("/product/:id", d.ProductHandler.Detail)
	app.Post("/product/:id/review", RequireUser(), d.ProductHandler.Review)
	app.Get("/farmers", d.DirectoryHandler.List)
	app.Get("/farmers/:id", d.DirectoryHandler.Profile)

	// ---------- Cart & wishlist ----------
	cart := app.Group("/cart", RequireUser())
	cart.Get("/", d.CartHandler.View)
	cart.Post("/add/:id", d.CartHandler.Add)
	cart.Post("/remove/:id", d.CartHandler.Remove)
	cart.Post("/clear", d.CartHandler.Clear)

	wish := app.Group("/wishlist", RequireUser())
	wish.Get("/", d.WishlistHandler.List)
	wish.Post("/add/:id", d.WishlistHandler.Save)
	wish.Post("/remove/:id", d.WishlistHandler.Unsave)

	// ---------- Farmer ----------
	// per route: a group middleware on /farmer would also match /farmers
	farmer := app.Group("/farmer")
	onlyFarmers := RequireFarmer()
	farmer.Get("/dashboard", onlyFarmers, d.FarmerHandler.Dashboard)
	farmer.Get("/products/new", onlyFarmers, d.FarmerHandler.NewForm)
	farmer.Post("/products/new", onlyFarmers, d.FarmerHandler.Create)
	farmer.Get("/products/:id/edit", onlyFarmers, d.FarmerHandler.EditForm)
	farmer.Post("/products/:id/edit", onlyFarmers, d.FarmerHandler.Update)
	farmer.Post("/products/:id/delete", onlyFarmers, d.FarmerHandler.Delete)

	// ---------- Accounts (login throttled) ----------
	authH := d.AuthHandler
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return render(c.Status(fiber.StatusTooManyRequests), "login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	app.Get("/register", authH.RegisterForm)
	app.Post("/register", authH.Register)
	app.Post("/logout", authH.Logout)

	// ---------- API ----------
	apiH := d.APIHandler
	api := app.Group("/api", cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
	}), APIIdentity(d.Auth))
	api.Get("/products", apiH.Products)
	api.Get("/products/:id", apiH.Product)
	api.Get("/products/:id/reviews", apiH.ListReviews)
	api.Post("/products/:id/reviews", RequireAPIUser(), apiH.PostReview)
	api.Get("/categories", apiH.Categories)
	api.Get("/cart", apiH.GetCart)
	api.Post("/cart", apiH.AddToCart)
	api.Delete("/cart/:id", apiH.RemoveFromCart)
	api.Delete("/cart", apiH.ClearCart)
	api.Post("/token", limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|token"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.token.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), apiH.Token)

	// ---------- Health & 404 ----------
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})
	return app
}
