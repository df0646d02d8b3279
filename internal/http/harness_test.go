package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"freshgrocer/internal/config"
	"freshgrocer/internal/http/handlers"
	applog "freshgrocer/internal/log"
	"freshgrocer/internal/repos"
)

// testApp is the full application over a seeded in-memory database, plus
// a cookie jar so consecutive requests behave like one browser.
type testApp struct {
	app  *fiber.App
	db   *sqlx.DB
	deps *handlers.Deps
	cfg  config.Config
	jar  map[string]string
}

func newTestApp(t *testing.T, opts ...func(*config.Config)) *testApp {
	t.Helper()
	cfg := config.Defaults()
	cfg.DBDSN = ":memory:"
	cfg.TemplatesDir = "../../web/templates"
	cfg.MediaDir = t.TempDir()
	cfg.JWTSecret = "test-secret"
	cfg.MaxBodyBytes = 1 << 20
	for _, o := range opts {
		o(&cfg)
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repos.Seed(db))

	d := handlers.NewDeps(db, cfg)
	return &testApp{app: handlers.NewApp(d), db: db, deps: d, cfg: cfg, jar: map[string]string{}}
}

// browser returns another client of the same app with an empty jar.
func (a *testApp) browser() *testApp {
	return &testApp{app: a.app, db: a.db, deps: a.deps, cfg: a.cfg, jar: map[string]string{}}
}

func (a *testApp) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	for name, v := range a.jar {
		req.AddCookie(&http.Cookie{Name: name, Value: v})
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	for _, c := range resp.Cookies() {
		expired := c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now()))
		if expired || c.Value == "" {
			delete(a.jar, c.Name)
			continue
		}
		a.jar[c.Name] = c.Value
	}
	return resp
}

func (a *testApp) get(t *testing.T, path string) *http.Response {
	t.Helper()
	return a.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

// csrf makes sure the jar holds a token, fetching the login page if needed.
func (a *testApp) csrf(t *testing.T) string {
	t.Helper()
	if tok := a.jar["csrf_"]; tok != "" {
		return tok
	}
	a.get(t, "/login")
	tok := a.jar["csrf_"]
	require.NotEmpty(t, tok, "csrf cookie missing")
	return tok
}

func (a *testApp) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", a.csrf(t))
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(t, req)
}

func (a *testApp) login(t *testing.T, username string) {
	t.Helper()
	resp := a.post(t, "/login", url.Values{"username": {username}, "password": {repos.DemoPassword}})
	require.Equal(t, http.StatusFound, resp.StatusCode, "login as %s", username)
}

// api sends a JSON request; token may be empty.
func (a *testApp) api(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.do(t, req)
}

func (a *testApp) token(t *testing.T, username string) string {
	t.Helper()
	resp := a.browser().api(t, http.MethodPost, "/api/token", "", map[string]string{"username": username, "password": repos.DemoPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	decode(t, resp, &out)
	require.NotEmpty(t, out.Token)
	require.Equal(t, 86400, out.ExpiresIn)
	return out.Token
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Status int            `json:"status"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuf) entries() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, line := range strings.Split(strings.TrimSpace(l.b.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil {
			out = append(out, e)
		}
	}
	return out
}

// captureLogs redirects the process logger until the test ends. Call it
// before newTestApp so the access logger picks up the buffer too.
func captureLogs(t *testing.T) *lockedBuf {
	t.Helper()
	buf := &lockedBuf{}
	old := applog.Writer()
	applog.SetOutput(buf)
	t.Cleanup(func() { applog.SetOutput(old) })
	return buf
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

// mustFormRequest builds a form POST that carries no csrf field.
func mustFormRequest(t *testing.T, path string, body io.Reader) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}
