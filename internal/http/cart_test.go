package handlers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshgrocer/internal/config"
	"freshgrocer/internal/validate"
)

type cartJSON struct {
	Items []struct {
		Product struct {
			ID    string `json:"id"`
			Price string `json:"price"`
		} `json:"product"`
		Qty       int    `json:"qty"`
		LineTotal string `json:"line_total"`
	} `json:"items"`
	Total string `json:"total"`
	Count int    `json:"count"`
}

func TestCartPagesRequireLogin(t *testing.T) {
	a := newTestApp(t)
	resp := a.post(t, "/cart/add/p-honey", url.Values{"qty": {"1"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fcart%2Fadd%2Fp-honey", resp.Header.Get("Location"))
}

func TestCartTotalsOverHTTP(t *testing.T) {
	a := newTestApp(t)
	a.login(t, "carl")

	resp := a.post(t, "/cart/add/p-honey", url.Values{"qty": {"2"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/cart", resp.Header.Get("Location"))
	a.post(t, "/cart/add/p-eggs", url.Values{"qty": {"3"}})

	body := readBody(t, a.get(t, "/cart"))
	assert.Contains(t, body, "Added to cart.")
	assert.Contains(t, body, "$19.98")
	assert.Contains(t, body, "$12.75")
	assert.Contains(t, body, "Total: $32.73 (5 items)")

	// adding again accumulates
	a.post(t, "/cart/add/p-honey", url.Values{"qty": {"1"}})
	assert.Contains(t, readBody(t, a.get(t, "/cart")), "Total: $42.72 (6 items)")

	a.post(t, "/cart/remove/p-honey", nil)
	assert.Contains(t, readBody(t, a.get(t, "/cart")), "Total: $12.75 (3 items)")

	a.post(t, "/cart/clear", nil)
	assert.Contains(t, readBody(t, a.get(t, "/cart")), "Your cart is empty.")
}

func TestCartRefusesOwnAndUnavailableProducts(t *testing.T) {
	logs := captureLogs(t)
	a := newTestApp(t)
	a.login(t, "fiona")

	resp := a.post(t, "/cart/add/p-honey", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/product/p-honey", resp.Header.Get("Location"))
	assert.Contains(t, readBody(t, a.get(t, "/product/p-honey")), "You cannot buy your own product.")
	_, ok := findLog(logs.entries(), "cart.add.own_product")
	assert.True(t, ok)

	resp = a.post(t, "/cart/add/p-kale", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Contains(t, readBody(t, a.get(t, "/")), "This item is no longer available")

	assert.Contains(t, readBody(t, a.get(t, "/cart")), "Your cart is empty.")
}

func TestAPICartIsSessionScoped(t *testing.T) {
	a := newTestApp(t)

	resp := a.api(t, http.MethodPost, "/api/cart", "", map[string]any{"product": "p-eggs", "qty": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cart cartJSON
	decode(t, a.api(t, http.MethodGet, "/api/cart", "", nil), &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p-eggs", cart.Items[0].Product.ID)
	assert.Equal(t, "8.50", cart.Items[0].LineTotal)
	assert.Equal(t, "8.50", cart.Total)

	// another browser has its own cart
	var other cartJSON
	decode(t, a.browser().api(t, http.MethodGet, "/api/cart", "", nil), &other)
	assert.Empty(t, other.Items)
	assert.Equal(t, "0.00", other.Total)

	// the cart follows the session through login
	a.login(t, "carl")
	decode(t, a.api(t, http.MethodGet, "/api/cart", "", nil), &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Qty)
	assert.Equal(t, 2, cart.Count)

	decode(t, a.api(t, http.MethodDelete, "/api/cart/p-eggs", "", nil), &cart)
	assert.Empty(t, cart.Items)
	assert.Equal(t, "0.00", cart.Total)
}

func TestMemoryCartStore(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) { c.CartStore = "memory" })
	a.login(t, "cora")
	a.post(t, "/cart/add/p-honey", url.Values{"qty": {"3"}})
	assert.Contains(t, readBody(t, a.get(t, "/cart")), "Total: $29.97 (3 items)")

	var n int
	require.NoError(t, a.db.Get(&n, `SELECT COUNT(*) FROM cart_items`))
	assert.Zero(t, n, "memory carts must not touch the database")

	a.post(t, "/logout", nil)
	a.login(t, "cora")
	assert.Contains(t, readBody(t, a.get(t, "/cart")), "Your cart is empty.")
}

func TestAPICartRejections(t *testing.T) {
	a := newTestApp(t)
	tok := a.token(t, "frank")

	resp := a.api(t, http.MethodPost, "/api/cart", tok, map[string]any{"product": "p-eggs", "qty": 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.api(t, http.MethodPost, "/api/cart", tok, map[string]any{"product": "p-kale"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = a.api(t, http.MethodPost, "/api/cart", tok, map[string]any{"qty": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var e struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	decode(t, resp, &e)
	assert.Equal(t, "product", e.Field)

	// qty is clamped rather than refused
	resp = a.api(t, http.MethodPost, "/api/cart", tok, map[string]any{"product": "p-honey", "qty": "-4"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cart cartJSON
	decode(t, a.api(t, http.MethodGet, "/api/cart", tok, nil), &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Qty)

	// huge quantities clamp to the ceiling, not the floor
	for _, qty := range []any{1e20, "99999999999999999999"} {
		b := a.browser()
		resp = b.api(t, http.MethodPost, "/api/cart", "", map[string]any{"product": "p-honey", "qty": qty})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decode(t, b.api(t, http.MethodGet, "/api/cart", "", nil), &cart)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, validate.MaxQty, cart.Items[0].Qty, "qty %v", qty)
	}
}
