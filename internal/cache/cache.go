package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	zLog "github.com/iceymoss/go-blog/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Origin 标记一次读请求的数据来源，透出到 X-Cache 响应头
type Origin string

const (
	OriginHit  Origin = "HIT"
	OriginMiss Origin = "MISS"
	OriginSkip Origin = "SKIP" // 缓存后端不可用，直接穿透
)

// 文章命名空间下的 key 统一从这里构造，避免散落在各处
const (
	namespace = "articles:"
	TagsKey   = namespace + "tags"
)

// ListKey 列表缓存 key，由完整参数元组决定
func ListKey(page, pageSize int, tag, sortKey string) string {
	return fmt.Sprintf("%slist:%d:%d:%s:%s", namespace, page, pageSize, tag, sortKey)
}

// DetailKey 详情缓存 key
func DetailKey(id uint64) string {
	return fmt.Sprintf("%sdetail:%d", namespace, id)
}

// ArticleCache 文章读路径的旁路缓存
// 只服务读接口，任何文章写操作整体失效 articles:* 命名空间
// 缓存是可选优化：后端不可用时读路径透明退化为直查，不影响正确性
type ArticleCache struct {
	rdb       *redis.Client
	listTTL   time.Duration
	detailTTL time.Duration
}

func NewArticleCache(rdb *redis.Client, listTTL, detailTTL time.Duration) *ArticleCache {
	return &ArticleCache{rdb: rdb, listTTL: listTTL, detailTTL: detailTTL}
}

func (c *ArticleCache) ListTTL() time.Duration   { return c.listTTL }
func (c *ArticleCache) DetailTTL() time.Duration { return c.detailTTL }

// Lookup 按 key 查缓存并反序列化到 dest
// 命中返回 HIT；key 不存在返回 MISS；后端出错返回 SKIP，调用方不要再回填
func (c *ArticleCache) Lookup(ctx context.Context, key string, dest interface{}) Origin {
	if c == nil || c.rdb == nil {
		return OriginSkip
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return OriginMiss
		}
		zLog.Warn("cache lookup failed, bypass", zap.String("key", key), zap.Error(err))
		return OriginSkip
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// 序列化格式对不上按未命中处理，顺手清掉脏数据
		zLog.Warn("cache entry corrupt, drop", zap.String("key", key), zap.Error(err))
		c.rdb.Del(ctx, key)
		return OriginMiss
	}
	return OriginHit
}

// Store 回填缓存，失败只记日志
// "不存在" 的结果不要回填（无负缓存），由调用方保证
func (c *ArticleCache) Store(ctx context.Context, key string, val interface{}, ttl time.Duration) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		zLog.Error("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		zLog.Warn("cache store failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateAll 整体失效文章命名空间
// 粗粒度换简单：任何写之后不会再读到旧值
// 在写接口返回响应之前调用，失败只记日志，不影响写本身
func (c *ArticleCache) InvalidateAll(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	keys, err := c.rdb.Keys(ctx, namespace+"*").Result()
	if err != nil {
		zLog.Warn("cache invalidate scan failed", zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		zLog.Warn("cache invalidate delete failed", zap.Error(err))
	}
}
