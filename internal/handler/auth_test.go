package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/iceymoss/go-blog/internal/handler"
	"github.com/iceymoss/go-blog/internal/middleware"
	"github.com/iceymoss/go-blog/internal/repo"
	"github.com/iceymoss/go-blog/pkg/db/objects"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newAuthEnv(t *testing.T) (*gin.Engine, *middleware.Auth) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "users.db")), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	pool, err := gdb.DB()
	require.NoError(t, err)
	pool.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(&objects.User{}))

	auth := middleware.NewAuth("test-secret", time.Hour)
	h := handler.NewAuth(repo.NewUserRepo(gdb), auth)

	e := gin.New()
	e.POST("/api/auth/register", h.Register)
	e.POST("/api/auth/login", h.Login)
	e.GET("/api/auth/me", auth.Authenticate(), h.Me)
	return e, auth
}

func postJSON(e *gin.Engine, path string, body gin.H) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	e.ServeHTTP(w, req)
	return w
}

func TestRegisterFirstUserIsAdmin(t *testing.T) {
	e, _ := newAuthEnv(t)

	w := postJSON(e, "/api/auth/register", gin.H{"username": "first", "password": "pw123"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), objects.RoleAdmin)

	w = postJSON(e, "/api/auth/register", gin.H{"username": "second", "password": "pw123"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), objects.RoleUser)
}

func TestRegisterValidation(t *testing.T) {
	e, _ := newAuthEnv(t)

	w := postJSON(e, "/api/auth/register", gin.H{"username": "nopass"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginAutoRegisters(t *testing.T) {
	e, _ := newAuthEnv(t)

	// 未注册的用户第一次登录即注册，第一个用户是管理员
	w := postJSON(e, "/api/auth/login", gin.H{"username": "boss", "password": "pw123"})
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, objects.RoleAdmin, res.User.Role)

	// token 能通过认证中间件
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+res.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "boss")
}

func TestLoginWrongPassword(t *testing.T) {
	e, _ := newAuthEnv(t)

	w := postJSON(e, "/api/auth/login", gin.H{"username": "boss", "password": "right"})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(e, "/api/auth/login", gin.H{"username": "boss", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 密码对了还能登录
	w = postJSON(e, "/api/auth/login", gin.H{"username": "boss", "password": "right"})
	assert.Equal(t, http.StatusOK, w.Code)
}
