package db

import (
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisOptions redis 连接配置
type RedisOptions struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedis 建立 redis 客户端
// 连接失败不在这里报错，缓存层按不可用降级处理
func NewRedis(opt RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", opt.Host, opt.Port),
		Password: opt.Password,
		DB:       opt.DB,
	})
}
