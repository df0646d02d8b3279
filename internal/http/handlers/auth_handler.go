package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"freshgrocer/internal/domain"
	"freshgrocer/internal/log"
	"freshgrocer/internal/services"
)

type AuthHandler struct {
	Auth   *services.AuthService
	Cart   *services.CartService
	Secure bool
}

// rotate moves the session cart to the fresh sid and hands it to the
// browser, so a pre-login session id cannot be replayed afterwards.
func (h *AuthHandler) rotate(ctx context.Context, c *fiber.Ctx, sid string) error {
	if old := sessionID(c); old != "" {
		cart, err := h.Cart.Contents(ctx, old)
		if err != nil {
			return err
		}
		if len(cart) > 0 {
			if err := h.Cart.Store.Save(ctx, sid, cart); err != nil {
				return err
			}
			if err := h.Cart.Clear(ctx, old); err != nil {
				return err
			}
		}
	}
	c.Cookie(sidCookieFor(sid, h.Secure))
	c.Locals("sid", sid)
	return nil
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": "", "Next": backTo(c.Query("next"), "")})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	pass := c.FormValue("password")
	next := backTo(c.FormValue("next"), "")
	sid := uuid.NewString()
	u, err := h.Auth.Login(c.UserContext(), sid, username, pass)
	if errors.Is(err, services.ErrBadCreds) {
		log.Security(c, "auth.login.fail", map[string]any{"username": username})
		return render(c.Status(fiber.StatusUnauthorized), "login", fiber.Map{
			"Err": "Invalid username or password", "Username": username, "Next": next,
		})
	}
	if err != nil {
		return err
	}
	if err := h.rotate(c.UserContext(), c, sid); err != nil {
		return err
	}
	setUser(c, u)
	log.Audit(c, "auth.login.success", map[string]any{"username": u.Username})
	return c.Redirect(backTo(next, "/"))
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return render(c, "register", fiber.Map{"Role": "CUSTOMER"})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	in := services.RegisterInput{
		Username:  c.FormValue("username"),
		Email:     c.FormValue("email"),
		Password:  c.FormValue("password"),
		Password2: c.FormValue("password2"),
		Role:      c.FormValue("role"),
	}
	u, err := h.Auth.Register(c.UserContext(), in)
	if err != nil {
		msg := "Could not create the account."
		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve):
			msg = ve.Message
		case errors.Is(err, domain.ErrConflict):
			msg = "That username is taken."
		default:
			return err
		}
		log.Security(c, "auth.register.fail", map[string]any{"username": in.Username, "reason": msg})
		return render(c.Status(fiber.StatusBadRequest), "register", fiber.Map{
			"Err": msg, "Username": in.Username, "Email": in.Email, "Role": in.Role,
		})
	}
	sid := uuid.NewString()
	if err := h.Auth.StartSession(c.UserContext(), sid, u); err != nil {
		return err
	}
	if err := h.rotate(c.UserContext(), c, sid); err != nil {
		return err
	}
	setUser(c, u)
	log.Audit(c, "auth.register", map[string]any{"username": u.Username, "role": u.Role.String()})
	if services.IsFarmer(u) {
		return c.Redirect("/farmer/dashboard")
	}
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := sessionID(c)
	if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
		log.Error(c, "auth.logout.fail", err, nil)
	}
	if err := h.Cart.Clear(c.UserContext(), sid); err != nil {
		log.Error(c, "auth.logout.cart", err, nil)
	}
	expireCookie(c, sidCookie, h.Secure)
	log.Audit(c, "auth.logout", nil)
	return c.Redirect("/")
}
