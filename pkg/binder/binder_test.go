package binder_test

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstolbov/passlink/pkg/binder"
)

type signInPayload struct {
	Email    string `json:"email" form:"email"`
	Remember bool   `json:"remember" form:"remember"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes valid payload", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.com","remember":true}`))
		var p signInPayload
		require.NoError(t, binder.JSON(r, &p))
		assert.Equal(t, "a@b.com", p.Email)
		assert.True(t, p.Remember)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.com","extra":1}`))
		var p signInPayload
		assert.ErrorIs(t, binder.JSON(r, &p), binder.ErrInvalidJSON)
	})

	t.Run("rejects empty body", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(""))
		var p signInPayload
		assert.ErrorIs(t, binder.JSON(r, &p), binder.ErrInvalidJSON)
	})

	t.Run("rejects trailing data", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.com"}{"email":"c@d.com"}`))
		var p signInPayload
		assert.ErrorIs(t, binder.JSON(r, &p), binder.ErrInvalidJSON)
	})
}

func TestForm(t *testing.T) {
	t.Parallel()

	form := url.Values{"email": {"a@b.com"}, "remember": {"on"}}
	r := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var p signInPayload
	require.NoError(t, binder.Form(r, &p))
	assert.Equal(t, "a@b.com", p.Email)
	assert.True(t, p.Remember)
}

func TestQuery(t *testing.T) {
	t.Parallel()

	type callbackParams struct {
		Token string   `query:"token"`
		Tags  []string `query:"tags"`
		Page  *int     `query:"page"`
	}

	t.Run("binds scalars, slices and pointers", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/?token=abc&tags=a,b&tags=c&page=2", nil)
		var p callbackParams
		require.NoError(t, binder.Query(r, &p))
		assert.Equal(t, "abc", p.Token)
		assert.Equal(t, []string{"a", "b", "c"}, p.Tags)
		require.NotNil(t, p.Page)
		assert.Equal(t, 2, *p.Page)
	})

	t.Run("absent parameters keep zero values", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		var p callbackParams
		require.NoError(t, binder.Query(r, &p))
		assert.Empty(t, p.Token)
		assert.Nil(t, p.Page)
	})

	t.Run("reports type mismatches", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/?page=two", nil)
		var p callbackParams
		assert.ErrorIs(t, binder.Query(r, &p), binder.ErrInvalidQuery)
	})
}

func TestBody(t *testing.T) {
	t.Parallel()

	t.Run("routes by content type", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.com"}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")
		var p signInPayload
		require.NoError(t, binder.Body(r, &p))
		assert.Equal(t, "a@b.com", p.Email)
	})

	t.Run("rejects unsupported media type", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader("<xml/>"))
		r.Header.Set("Content-Type", "text/xml")
		var p signInPayload
		assert.ErrorIs(t, binder.Body(r, &p), binder.ErrUnsupportedMediaType)
	})
}
