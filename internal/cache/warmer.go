package cache

import (
	"context"
	"time"

	"github.com/iceymoss/go-blog/internal/repo"
	zLog "github.com/iceymoss/go-blog/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Warmer 定时把最热的两个 key（标签云、首页第一页）预热进缓存
// 纯机会性优化：算不出来就记日志跳过，下一轮再试
type Warmer struct {
	cron     *cron.Cron
	cache    *ArticleCache
	articles *repo.ArticleRepo
	spec     string
}

func NewWarmer(c *ArticleCache, articles *repo.ArticleRepo, spec string) *Warmer {
	return &Warmer{
		cron:     cron.New(),
		cache:    c,
		articles: articles,
		spec:     spec,
	}
}

func (w *Warmer) Start() error {
	if _, err := w.cron.AddFunc(w.spec, w.warm); err != nil {
		return err
	}
	w.cron.Start()
	zLog.Info("cache warmer started", zap.String("cron", w.spec))
	return nil
}

func (w *Warmer) Stop() {
	w.cron.Stop()
}

func (w *Warmer) warm() {
	defer func() {
		if r := recover(); r != nil {
			zLog.Error("cache warm panic", zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if tags, err := w.articles.TagCloud(ctx); err != nil {
		zLog.Warn("warm tag cloud failed", zap.Error(err))
	} else {
		w.cache.Store(ctx, TagsKey, tags, w.cache.DetailTTL())
	}

	if list, err := w.articles.ListPublished(ctx, 1, repo.DefaultPageSize, "", repo.SortNewest); err != nil {
		zLog.Warn("warm first page failed", zap.Error(err))
	} else {
		w.cache.Store(ctx, ListKey(list.Page, list.PageSize, "", repo.SortNewest), list, w.cache.ListTTL())
	}
}
