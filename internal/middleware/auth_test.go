package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iceymoss/go-blog/internal/middleware"
	"github.com/iceymoss/go-blog/pkg/db/objects"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(a *middleware.Auth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.GET("/me", a.Authenticate(), func(c *gin.Context) {
		u := middleware.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"username": u.Username, "role": u.Role})
	})
	e.POST("/admin-only", a.Authenticate(), a.RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return e
}

func get(e *gin.Engine, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	e.ServeHTTP(w, req)
	return w
}

func TestAuthenticateMissingToken(t *testing.T) {
	e := newAuthRouter(middleware.NewAuth("secret", time.Hour))

	w := get(e, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateBearerRoundTrip(t *testing.T) {
	a := middleware.NewAuth("secret", time.Hour)
	e := newAuthRouter(a)

	token, err := a.Sign(&objects.User{ID: 1, Username: "alice", Role: objects.RoleAdmin})
	require.NoError(t, err)

	w := get(e, "/me", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestAuthenticateCookieFallback(t *testing.T) {
	a := middleware.NewAuth("secret", time.Hour)
	e := newAuthRouter(a)

	token, err := a.Sign(&objects.User{ID: 2, Username: "bob", Role: objects.RoleUser})
	require.NoError(t, err)

	w := get(e, "/me", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "token", Value: token})
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bob")
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	e := newAuthRouter(middleware.NewAuth("secret", time.Hour))

	w := get(e, "/me", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-jwt")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateRejectsWrongSecret(t *testing.T) {
	signer := middleware.NewAuth("other-secret", time.Hour)
	e := newAuthRouter(middleware.NewAuth("secret", time.Hour))

	token, err := signer.Sign(&objects.User{ID: 3, Username: "mallory", Role: objects.RoleAdmin})
	require.NoError(t, err)

	w := get(e, "/me", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateRejectsExpired(t *testing.T) {
	// ttl 为负，签出来就是过期的
	a := middleware.NewAuth("secret", -time.Hour)
	e := newAuthRouter(a)

	token, err := a.Sign(&objects.User{ID: 4, Username: "late", Role: objects.RoleAdmin})
	require.NoError(t, err)

	w := get(e, "/me", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	a := middleware.NewAuth("secret", time.Hour)
	e := newAuthRouter(a)

	adminToken, err := a.Sign(&objects.User{ID: 1, Username: "root", Role: objects.RoleAdmin})
	require.NoError(t, err)
	userToken, err := a.Sign(&objects.User{ID: 2, Username: "reader", Role: objects.RoleUser})
	require.NoError(t, err)

	do := func(token string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin-only", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		e.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do(adminToken).Code)
	assert.Equal(t, http.StatusForbidden, do(userToken).Code, "已认证但角色不够是 403 不是 401")
}
