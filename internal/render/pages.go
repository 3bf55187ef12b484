package render

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/iceymoss/go-blog/internal/repo"
	"github.com/iceymoss/go-blog/pkg/db/objects"
	zLog "github.com/iceymoss/go-blog/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 单次取数的超时上限，超时走降级路径而不是无限等
const fetchTimeout = 5 * time.Second

// ArticleReader 页面取数依赖的查询操作
type ArticleReader interface {
	ListPublished(ctx context.Context, page, pageSize int, tag, sortKey string) (*repo.ListResult, error)
	GetByID(ctx context.Context, id uint64, includeDraft bool) (*repo.ArticleItem, error)
	IncrementViews(ctx context.Context, id uint64) error
	TagCloud(ctx context.Context) ([]repo.TagCount, error)
}

// CommentReader 详情页的评论取数
type CommentReader interface {
	ListByArticle(ctx context.Context, articleID uint64) ([]*objects.Comment, error)
}

// Pages 页面路由处理器
// 约定：除了结构性非法输入（400）和文章不存在（404），
// 页面路由永远返回一份可渲染的 HTML —— 取数失败时降级渲染空数据，
// 打上 X-Degraded 头，由客户端水合后自行补数
type Pages struct {
	render   *Renderer
	articles ArticleReader
	comments CommentReader
}

func NewPages(r *Renderer, articles ArticleReader, comments CommentReader) *Pages {
	return &Pages{render: r, articles: articles, comments: comments}
}

// Home 首页：文章列表 + 标签云
func (p *Pages) Home(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page <= 0 {
		page = 1
	}
	tag := c.Query("tag")
	sortKey := c.DefaultQuery("sort", repo.SortNewest)

	ctx, cancel := context.WithTimeout(c.Request.Context(), fetchTimeout)
	defer cancel()

	list, err := p.articles.ListPublished(ctx, page, repo.DefaultPageSize, tag, sortKey)
	var tags []repo.TagCount
	if err == nil {
		tags, err = p.articles.TagCloud(ctx)
	}
	if err != nil {
		zLog.Error("ssr home fetch failed, degrade to csr", zap.Error(err))
		p.emit(c, true, &BootstrapData{
			Page:       "home",
			Articles:   []*repo.ArticleItem{},
			Pagination: &Pagination{Page: 1, PageSize: repo.DefaultPageSize, Total: 0},
			TagCloud:   []repo.TagCount{},
			Degraded:   true,
		})
		return
	}

	p.emit(c, false, &BootstrapData{
		Page:       "home",
		Articles:   list.Articles,
		Pagination: &Pagination{Page: list.Page, PageSize: list.PageSize, Total: list.Total},
		TagCloud:   tags,
		FilterTag:  tag,
		Sort:       sortKey,
		Degraded:   false,
	})
}

// Detail 详情页：文章 + 评论
// 浏览量 +1 在取数成功后异步触发，失败不影响响应
func (p *Pages) Detail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		// 结构性非法输入是真正的 400，不走降级
		c.String(http.StatusBadRequest, "Bad id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), fetchTimeout)
	defer cancel()

	article, err := p.articles.GetByID(ctx, id, false)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			c.String(http.StatusNotFound, "文章不存在")
			return
		}
		zLog.Error("ssr detail fetch failed, degrade to csr", zap.Uint64("id", id), zap.Error(err))
		p.emit(c, true, &BootstrapData{
			Page:      "detail",
			ArticleID: id,
			Comments:  []*objects.Comment{},
			Degraded:  true,
		})
		return
	}

	// 阅读量 +1，不等待也不影响本次响应
	go p.bumpViews(id)

	comments, err := p.comments.ListByArticle(ctx, id)
	if err != nil {
		zLog.Error("ssr comments fetch failed, degrade to csr", zap.Uint64("id", id), zap.Error(err))
		p.emit(c, true, &BootstrapData{
			Page:      "detail",
			ArticleID: id,
			Comments:  []*objects.Comment{},
			Degraded:  true,
		})
		return
	}

	p.emit(c, false, &BootstrapData{
		Page:      "detail",
		Article:   article,
		ArticleID: id,
		Comments:  comments,
		Degraded:  false,
	})
}

// Admin 后台壳页面，数据全部由客户端拉取
func (p *Pages) Admin(c *gin.Context) {
	p.emit(c, false, &BootstrapData{Page: "admin", Degraded: false})
}

// emit 终态输出：Ready 和 Degraded 都落在这里，都是一份 200 的 HTML
func (p *Pages) emit(c *gin.Context, degraded bool, data *BootstrapData) {
	c.Header("Cache-Control", "no-cache")
	if degraded {
		c.Header("X-Degraded", "1")
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := p.render.RenderPage(c.Writer, data); err != nil {
		// 渲染本身失败已经没有更低的降级层，只能记日志
		zLog.Error("render page failed", zap.Error(err))
	}
}

func (p *Pages) bumpViews(id uint64) {
	defer func() {
		if r := recover(); r != nil {
			zLog.Error("increment views panic", zap.Any("panic", r))
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	if err := p.articles.IncrementViews(ctx, id); err != nil {
		zLog.Error("increment views failed", zap.Uint64("id", id), zap.Error(err))
	}
}
