package middleware

import (
	"net/http"
	"time"

	zLog "github.com/iceymoss/go-blog/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RateLimit /api 固定窗口限流，按客户端 IP 计数
// redis 出问题时放行（fail open），限流是保护措施不是功能语义
func RateLimit(rdb *redis.Client, window time.Duration, max int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}
		key := "ratelimit:" + c.ClientIP()
		count, err := rdb.Incr(c.Request.Context(), key).Result()
		if err != nil {
			zLog.Warn("rate limit incr failed, fail open", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(c.Request.Context(), key, window)
		}
		if count > int64(max) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				gin.H{"message": "请求过于频繁，请稍后再试"})
			return
		}
		c.Next()
	}
}
