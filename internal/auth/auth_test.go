package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/auth"
)

func TestSignCookieValue(t *testing.T) {
	a := auth.New("test-secret")
	userID := "user123"
	signed := a.SignCookieValue(userID)

	parts := strings.SplitN(signed, ":", 2)
	assert.Len(t, parts, 2)
	assert.Equal(t, userID, parts[0])
	assert.Equal(t, a.SignCookieValue(userID), signed)
	assert.NotEqual(t, auth.New("other-secret").SignCookieValue(userID), signed)
}

func TestIssueCookie(t *testing.T) {
	a := auth.New("test-secret")
	rec := httptest.NewRecorder()
	userID := a.GetOrSetUserID(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, userID)

	resp := rec.Result()
	defer resp.Body.Close()

	cookies := resp.Cookies()
	assert.NotEmpty(t, cookies)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, a.SignCookieValue(userID), cookies[0].Value)
}

func TestGetOrSetUserID_Valid(t *testing.T) {
	a := auth.New("test-secret")
	userID := "test-user"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: a.SignCookieValue(userID)})

	rec := httptest.NewRecorder()
	assert.Equal(t, userID, a.GetOrSetUserID(rec, req))
	assert.Empty(t, rec.Header().Values("Set-Cookie"), "valid cookie must not be reissued")
}

func TestGetOrSetUserID_Invalid(t *testing.T) {
	a := auth.New("test-secret")

	for _, value := range []string{"invalidformat", ":sig", "user:bad-signature"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: value})

		rec := httptest.NewRecorder()
		userID := a.GetOrSetUserID(rec, req)
		assert.NotEmpty(t, userID)
		assert.NotEqual(t, "user", userID)
		assert.NotEmpty(t, rec.Header().Values("Set-Cookie"))
	}
}

func TestValidateUserID(t *testing.T) {
	a := auth.New("test-secret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: a.SignCookieValue("valid-user")})

	id, ok := a.ValidateUserID(req)
	assert.True(t, ok)
	assert.Equal(t, "valid-user", id)

	id, ok = a.ValidateUserID(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestUserIDContext(t *testing.T) {
	assert.Empty(t, auth.UserID(context.Background()))
	assert.Equal(t, "u1", auth.UserID(auth.WithUserID(context.Background(), "u1")))
}
