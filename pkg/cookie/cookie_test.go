package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstolbov/passlink/pkg/cookie"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newManager(t *testing.T, opts ...cookie.Option) *cookie.Manager {
	t.Helper()
	m, err := cookie.New([]string{testSecret}, opts...)
	require.NoError(t, err)
	return m
}

func requestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires a secret", func(t *testing.T) {
		t.Parallel()
		_, err := cookie.New(nil)
		assert.ErrorIs(t, err, cookie.ErrNoSecret)

		_, err = cookie.New([]string{""})
		assert.ErrorIs(t, err, cookie.ErrNoSecret)
	})

	t.Run("rejects short secrets", func(t *testing.T) {
		t.Parallel()
		_, err := cookie.New([]string{"short"})
		assert.ErrorIs(t, err, cookie.ErrSecretTooShort)
	})
}

func TestSetGet(t *testing.T) {
	t.Parallel()

	m := newManager(t)

	rec := httptest.NewRecorder()
	m.Set(rec, "lang", "es", cookie.WithMaxAge(31536000))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "lang", cookies[0].Name)
	assert.Equal(t, "es", cookies[0].Value)
	assert.Equal(t, 31536000, cookies[0].MaxAge)
	assert.Equal(t, "/", cookies[0].Path)
	assert.True(t, cookies[0].HttpOnly)

	got, err := m.Get(requestWithCookies(rec), "lang")
	require.NoError(t, err)
	assert.Equal(t, "es", got)
}

func TestGetMissing(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := m.Get(r, "absent")
	assert.ErrorIs(t, err, cookie.ErrNotFound)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	m := newManager(t)

	rec := httptest.NewRecorder()
	m.Delete(rec, "sid")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Empty(t, cookies[0].Value)
}

func TestSignedCookies(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		m := newManager(t)
		rec := httptest.NewRecorder()
		m.SetSigned(rec, "sid", "session-token-value")

		got, err := m.GetSigned(requestWithCookies(rec), "sid")
		require.NoError(t, err)
		assert.Equal(t, "session-token-value", got)
	})

	t.Run("rejects tampered value", func(t *testing.T) {
		t.Parallel()

		m := newManager(t)
		rec := httptest.NewRecorder()
		m.SetSigned(rec, "sid", "session-token-value")

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		c := rec.Result().Cookies()[0]
		c.Value = "tampered." + c.Value
		r.AddCookie(c)

		_, err := m.GetSigned(r, "sid")
		assert.Error(t, err)
	})

	t.Run("verifies against rotated secrets", func(t *testing.T) {
		t.Parallel()

		oldSecret := "fedcba9876543210fedcba9876543210"
		oldManager, err := cookie.New([]string{oldSecret})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		oldManager.SetSigned(rec, "sid", "survives-rotation")

		rotated, err := cookie.New([]string{testSecret, oldSecret})
		require.NoError(t, err)

		got, err := rotated.GetSigned(requestWithCookies(rec), "sid")
		require.NoError(t, err)
		assert.Equal(t, "survives-rotation", got)
	})

	t.Run("rejects plain value as signed", func(t *testing.T) {
		t.Parallel()

		m := newManager(t)
		rec := httptest.NewRecorder()
		m.Set(rec, "sid", "no-signature-here")

		_, err := m.GetSigned(requestWithCookies(rec), "sid")
		assert.Error(t, err)
	})
}
