package account_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstolbov/passlink/modules/account"
	"github.com/mstolbov/passlink/pkg/auth"
	"github.com/mstolbov/passlink/pkg/cookie"
	"github.com/mstolbov/passlink/pkg/email"
	"github.com/mstolbov/passlink/pkg/session"
)

var linkTokenRe = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)

// captureSender records outbound mail so tests can fish the link token
// out of the message body.
type captureSender struct {
	mu   sync.Mutex
	last email.SendEmailParams
}

func (s *captureSender) SendEmail(_ context.Context, params email.SendEmailParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = params
	return nil
}

func (s *captureSender) lastToken(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	m := linkTokenRe.FindStringSubmatch(s.last.BodyText)
	require.Len(t, m, 2, "sign-in email should contain a token link")
	return m[1]
}

type testEnv struct {
	server *httptest.Server
	client *http.Client
	sender *captureSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cookies, err := cookie.New([]string{"0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)

	sessionStore := session.NewMemoryStore(0)
	t.Cleanup(sessionStore.Close)
	sessions, err := session.NewManager(sessionStore, cookies, session.WithLogger(logger))
	require.NoError(t, err)

	store := auth.NewMemoryStore()
	sender := &captureSender{}
	svc, err := auth.NewService(store, store, sender,
		"https://app.example.com/auth/callback", auth.WithLogger(logger))
	require.NoError(t, err)

	router := account.Router(account.RouterOptions{
		MagicLink: account.NewMagicLinkService(svc, sessions, account.Config{
			StateSecret: "fedcba9876543210fedcba9876543210",
		}, logger),
		Profile:   account.NewProfileService(svc, sessions, logger),
		Sessions:  sessions,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testEnv{server: server, client: client, sender: sender}
}

func (e *testEnv) requestLink(t *testing.T, email string) *http.Response {
	t.Helper()
	resp, err := e.client.Post(e.server.URL+"/auth/magic-link", "application/json",
		strings.NewReader(`{"email":"`+email+`"}`))
	require.NoError(t, err)
	return resp
}

func (e *testEnv) signIn(t *testing.T, email string) {
	t.Helper()
	resp := e.requestLink(t, email)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = e.get(t, "/auth/callback?token="+e.sender.lastToken(t))
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) do(t *testing.T, method, path, contentType, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestMagicLinkFlow(t *testing.T) {
	t.Parallel()

	t.Run("request accepted", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		resp := env.requestLink(t, "user@example.com")
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "magic_link_sent", body["code"])
		assert.NotEmpty(t, env.sender.lastToken(t))
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		resp := env.requestLink(t, "not-an-email")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("callback starts a session", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		env.signIn(t, "user@example.com")

		resp := env.get(t, "/auth/session")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		data := body["data"].(map[string]any)
		user := data["user"].(map[string]any)
		assert.Equal(t, "user@example.com", user["email"])
		assert.NotNil(t, user["email_verified"])
	})

	t.Run("redirect target honored after sign-in", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		resp := env.do(t, http.MethodPost, "/auth/magic-link", "application/json",
			`{"email":"back@example.com","redirect":"/es/settings"}`)
		resp.Body.Close()
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		resp = env.get(t, "/auth/callback?token="+env.sender.lastToken(t))
		resp.Body.Close()
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/es/settings", resp.Header.Get("Location"))

		// The target rides along only once; the next sign-in falls back
		// to the default landing page.
		resp = env.requestLink(t, "back@example.com")
		resp.Body.Close()
		resp = env.get(t, "/auth/callback?token="+env.sender.lastToken(t))
		resp.Body.Close()
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})

	t.Run("off-site redirect target ignored", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		resp := env.do(t, http.MethodPost, "/auth/magic-link", "application/json",
			`{"email":"strict@example.com","redirect":"//evil.example/phish"}`)
		resp.Body.Close()
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		resp = env.get(t, "/auth/callback?token="+env.sender.lastToken(t))
		resp.Body.Close()
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})

	t.Run("link is single use", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		resp := env.requestLink(t, "once@example.com")
		resp.Body.Close()
		tok := env.sender.lastToken(t)

		resp = env.get(t, "/auth/callback?token="+tok)
		resp.Body.Close()
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))

		resp = env.get(t, "/auth/callback?token="+tok)
		resp.Body.Close()
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Location"), "/auth/error?error=invalid_link")
	})

	t.Run("unknown or missing token redirects to error page", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		for _, path := range []string{"/auth/callback?token=bogus", "/auth/callback"} {
			resp := env.get(t, path)
			resp.Body.Close()
			require.Equal(t, http.StatusSeeOther, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Location"), "error=invalid_link")
		}
	})

	t.Run("logout ends the session", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		env.signIn(t, "user@example.com")

		resp := env.do(t, http.MethodPost, "/auth/logout", "", "")
		resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = env.get(t, "/auth/session")
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("session endpoint requires authentication", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		resp := env.get(t, "/auth/session")
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestProfile(t *testing.T) {
	t.Parallel()

	t.Run("requires authentication", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		resp := env.get(t, "/profile")
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("name update keeps verification", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.signIn(t, "user@example.com")

		resp := env.do(t, http.MethodPatch, "/profile", "application/json", `{"name":"Ada"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		data := decodeBody(t, resp)["data"].(map[string]any)
		assert.Equal(t, "Ada", data["name"])
		assert.NotNil(t, data["email_verified"])
	})

	t.Run("email update resets verification", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.signIn(t, "old@example.com")

		resp := env.do(t, http.MethodPatch, "/profile", "application/json", `{"email":"new@example.com"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		data := decodeBody(t, resp)["data"].(map[string]any)
		assert.Equal(t, "new@example.com", data["email"])
		assert.Nil(t, data["email_verified"])

		// The browser that made the change keeps a session.
		resp = env.get(t, "/auth/session")
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("email collision rejected", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.signIn(t, "taken@example.com")
		env.signIn(t, "user@example.com")

		resp := env.do(t, http.MethodPatch, "/profile", "application/json", `{"email":"taken@example.com"}`)
		resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}
