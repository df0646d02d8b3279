package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"freshgrocer/internal/repos"
)

func TestSeededPasswordsAreHashed(t *testing.T) {
	a := newTestApp(t)
	var hashes []string
	require.NoError(t, a.db.Select(&hashes, `SELECT password_hash FROM users`))
	require.NotEmpty(t, hashes)
	for _, h := range hashes {
		assert.NotContains(t, h, repos.DemoPassword)
		assert.True(t, strings.HasPrefix(h, "$2"), "unexpected hash format: %s", h)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte(repos.DemoPassword)))
	}
}

func TestLoginSuccessFailAndThrottle(t *testing.T) {
	a := newTestApp(t)

	bad := a.post(t, "/login", url.Values{"username": {"carl"}, "password": {"wrongpass!"}})
	assert.Equal(t, http.StatusUnauthorized, bad.StatusCode)
	assert.Contains(t, readBody(t, bad), "Invalid username or password")

	before := a.jar["sid"]
	require.NotEmpty(t, before)
	var bound int
	require.NoError(t, a.db.Get(&bound, `SELECT COUNT(*) FROM sessions WHERE user_id IS NOT NULL`))
	assert.Zero(t, bound, "a failed login binds nothing")

	good := a.post(t, "/login", url.Values{"username": {"carl"}, "password": {repos.DemoPassword}})
	require.Equal(t, http.StatusFound, good.StatusCode)
	assert.Equal(t, "/", good.Header.Get("Location"))
	assert.NotEqual(t, before, a.jar["sid"], "session id must rotate on login")

	var owner string
	require.NoError(t, a.db.Get(&owner, a.db.Rebind(`SELECT user_id FROM sessions WHERE id = ?`), a.jar["sid"]))
	assert.Equal(t, "u-carl", owner)

	// five attempts per window; two used above
	for i := 0; i < 3; i++ {
		resp := a.post(t, "/login", url.Values{"username": {"carl"}, "password": {"nope"}})
		require.NotEqual(t, http.StatusTooManyRequests, resp.StatusCode, "throttled too early at %d", i)
	}
	resp := a.post(t, "/login", url.Values{"username": {"carl"}, "password": {repos.DemoPassword}})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Too many attempts")
}

func TestLoginHonoursOnlyLocalNext(t *testing.T) {
	a := newTestApp(t)
	resp := a.post(t, "/login", url.Values{"username": {"cora"}, "password": {repos.DemoPassword}, "next": {"/wishlist"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/wishlist", resp.Header.Get("Location"))

	b := a.browser()
	resp = b.post(t, "/login", url.Values{"username": {"cora"}, "password": {repos.DemoPassword}, "next": {"//evil.example/x"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestLogoutEndsSession(t *testing.T) {
	a := newTestApp(t)
	a.login(t, "carl")
	require.Equal(t, http.StatusOK, a.get(t, "/cart").StatusCode)

	sid := a.jar["sid"]
	resp := a.post(t, "/logout", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var n int
	require.NoError(t, a.db.Get(&n, a.db.Rebind(`SELECT COUNT(*) FROM sessions WHERE id = ? AND user_id IS NOT NULL`), sid))
	assert.Zero(t, n, "session still bound to a user")

	resp = a.get(t, "/cart")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fcart", resp.Header.Get("Location"))
}

func TestRegisterFarmerLandsOnDashboard(t *testing.T) {
	a := newTestApp(t)
	resp := a.post(t, "/register", url.Values{
		"username": {"gwen"}, "email": {"gwen@farm.test"},
		"password": {"longenough1"}, "password2": {"longenough1"}, "role": {"FARMER"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/farmer/dashboard", resp.Header.Get("Location"))
	assert.Equal(t, http.StatusOK, a.get(t, "/farmer/dashboard").StatusCode)

	b := a.browser()
	resp = b.post(t, "/register", url.Values{
		"username": {"gwen"}, "password": {"longenough1"}, "password2": {"longenough1"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "That username is taken.")

	resp = b.post(t, "/register", url.Values{
		"username": {"hank"}, "password": {"longenough1"}, "password2": {"different1"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "passwords do not match")
}

func TestPostWithoutCSRFTokenIsRejected(t *testing.T) {
	a := newTestApp(t)
	a.csrf(t)
	req := strings.NewReader(url.Values{"username": {"carl"}, "password": {repos.DemoPassword}}.Encode())
	r := mustFormRequest(t, "/login", req)
	resp := a.do(t, r)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Security check failed")
}
