package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iceymoss/go-blog/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(rdb *redis.Client, max int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.GET("/ping", middleware.RateLimit(rdb, time.Minute, max), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return e
}

func ping(e *gin.Engine) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	e.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitWithinWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	e := newLimitedRouter(rdb, 3)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, ping(e), "第 %d 次请求在额度内", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, ping(e), "超额后是 429")

	// 窗口过期后额度恢复
	mr.FastForward(61 * time.Second)
	assert.Equal(t, http.StatusOK, ping(e))
}

func TestRateLimitFailOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	e := newLimitedRouter(rdb, 1)

	// redis 不可用时放行
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, ping(e))
	}
}

func TestRateLimitNilClient(t *testing.T) {
	e := newLimitedRouter(nil, 1)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, ping(e))
	}
}
