package handlers

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"freshgrocer/internal/domain"
	applog "freshgrocer/internal/log"
	"freshgrocer/internal/services"
)

const sidCookie = "sid"

func sidCookieFor(sid string, secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   secure,
	}
}

// Session gives every request an opaque sid cookie and attaches the
// logged-in user, if any, to Locals("user").
func Session(auth *services.AuthService, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(sidCookie)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			c.Cookie(sidCookieFor(sid, secure))
		}
		c.Locals("sid", sid)
		if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
			setUser(c, u)
		}
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, u *domain.User) {
	c.Locals("user", u)
	c.Locals("user_id", u.ID)
}

func sessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals("sid").(string)
	return sid
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

func loginRedirect(c *fiber.Ctx) error {
	return c.Redirect("/login?next=" + url.QueryEscape(c.OriginalURL()))
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return loginRedirect(c)
		}
		return c.Next()
	}
}

// RequireFarmer lets only FARMER profiles through. Anonymous users go to
// the login page, everyone else gets a 403.
func RequireFarmer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := services.RequireFarmer(currentUser(c))
		switch {
		case err == nil:
			return c.Next()
		case errors.Is(err, domain.ErrUnauthenticated):
			return loginRedirect(c)
		default:
			applog.Security(c, "access.denied.farmer", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
	}
}

// APIIdentity resolves a bearer token when one is sent; without a token
// the session user set by Session stands.
func APIIdentity(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(fiber.HeaderAuthorization)
		if h == "" {
			return c.Next()
		}
		tok, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			applog.Security(c, "api.auth.malformed", nil)
			return apiError(c, domain.ErrUnauthenticated)
		}
		u, err := auth.UserFromToken(c.UserContext(), strings.TrimSpace(tok))
		if err != nil {
			applog.Security(c, "api.auth.bad_token", nil)
			return apiError(c, domain.ErrUnauthenticated)
		}
		setUser(c, u)
		return c.Next()
	}
}

// RequireAPIUser answers 401 JSON when no identity was presented.
func RequireAPIUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return apiError(c, domain.ErrUnauthenticated)
		}
		return c.Next()
	}
}

func expireCookie(c *fiber.Ctx, name string, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   secure,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}
