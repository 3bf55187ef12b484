package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/iceymoss/go-blog/internal/cache"
	"github.com/iceymoss/go-blog/internal/middleware"
	"github.com/iceymoss/go-blog/internal/repo"
	zLog "github.com/iceymoss/go-blog/pkg/logger"
	"github.com/iceymoss/go-blog/pkg/db/objects"
	"github.com/iceymoss/go-blog/pkg/xerr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 单次存储访问的超时上限
const storeTimeout = 5 * time.Second

// Articles 文章 API
// 读接口走旁路缓存并在 X-Cache 头透出来源，写接口落库后整体失效缓存
type Articles struct {
	articles *repo.ArticleRepo
	comments *repo.CommentRepo
	cache    *cache.ArticleCache
	screen   CommentScreener
}

// CommentScreener 评论内容筛查，nil 实现表示不筛查
type CommentScreener interface {
	Validate(content string) (bool, string)
}

func NewArticles(articles *repo.ArticleRepo, comments *repo.CommentRepo, c *cache.ArticleCache, screen CommentScreener) *Articles {
	return &Articles{articles: articles, comments: comments, cache: c, screen: screen}
}

func storeCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), storeTimeout)
}

// List GET /api/articles 公开文章列表
func (h *Articles) List(c *gin.Context) {
	rawPage, _ := strconv.Atoi(c.Query("page"))
	rawSize, _ := strconv.Atoi(c.Query("pageSize"))
	page, pageSize := repo.NormalizePage(rawPage, rawSize, repo.MaxPublicPageSize)
	tag := c.Query("tag")
	sortKey := repo.NormalizeSort(c.Query("sort"))

	ctx, cancel := storeCtx(c)
	defer cancel()

	key := cache.ListKey(page, pageSize, tag, sortKey)
	var cached repo.ListResult
	origin := h.cache.Lookup(ctx, key, &cached)
	if origin == cache.OriginHit {
		c.Header("X-Cache", string(origin))
		c.Header("Cache-Control", "no-cache")
		c.JSON(http.StatusOK, &cached)
		return
	}

	data, err := h.articles.ListPublished(ctx, page, pageSize, tag, sortKey)
	if err != nil {
		serverError(c, "list articles failed", err)
		return
	}
	if origin == cache.OriginMiss {
		h.cache.Store(ctx, key, data, h.cache.ListTTL())
	}
	c.Header("X-Cache", string(origin))
	c.Header("Cache-Control", "no-cache")
	c.JSON(http.StatusOK, data)
}

// ListAdmin GET /api/articles/admin 后台列表，含草稿，不走缓存
func (h *Articles) ListAdmin(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = 50
	}
	status := c.Query("status")
	if status != "" && status != objects.StatusDraft && status != objects.StatusPublished {
		badRequest(c, "未知的文章状态")
		return
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	data, err := h.articles.ListAdmin(ctx, page, pageSize, status)
	if err != nil {
		serverError(c, "list admin articles failed", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// Tags GET /api/articles/tags 标签云
func (h *Articles) Tags(c *gin.Context) {
	ctx, cancel := storeCtx(c)
	defer cancel()

	var cached []repo.TagCount
	origin := h.cache.Lookup(ctx, cache.TagsKey, &cached)
	if origin == cache.OriginHit {
		c.Header("X-Cache", string(origin))
		c.JSON(http.StatusOK, gin.H{"tags": cached})
		return
	}

	tags, err := h.articles.TagCloud(ctx)
	if err != nil {
		serverError(c, "tag cloud failed", err)
		return
	}
	if origin == cache.OriginMiss {
		h.cache.Store(ctx, cache.TagsKey, tags, h.cache.DetailTTL())
	}
	c.Header("X-Cache", string(origin))
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// Detail GET /api/articles/:id 文章详情（允许管理端预览草稿）
func (h *Articles) Detail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	key := cache.DetailKey(id)
	var cached repo.ArticleItem
	origin := h.cache.Lookup(ctx, key, &cached)
	if origin == cache.OriginHit {
		c.Header("X-Cache", string(origin))
		c.Header("Cache-Control", "no-cache")
		c.JSON(http.StatusOK, gin.H{"article": &cached})
		return
	}

	article, err := h.articles.GetByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// 不存在的结果不回填缓存
			c.JSON(http.StatusNotFound, gin.H{"code": xerr.ErrNotFound, "message": "文章不存在"})
			return
		}
		serverError(c, "get article failed", err)
		return
	}
	if origin == cache.OriginMiss {
		h.cache.Store(ctx, key, article, h.cache.DetailTTL())
	}
	c.Header("X-Cache", string(origin))
	c.Header("Cache-Control", "no-cache")
	c.JSON(http.StatusOK, gin.H{"article": article})
}

// ListComments GET /api/articles/:id/comments
func (h *Articles) ListComments(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	comments, err := h.comments.ListByArticle(ctx, id)
	if err != nil {
		serverError(c, "list comments failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

type addCommentReq struct {
	AuthorName string `json:"authorName"`
	Content    string `json:"content"`
}

// AddComment POST /api/articles/:id/comments
func (h *Articles) AddComment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req addCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求体不是合法 JSON")
		return
	}
	if req.AuthorName == "" || req.Content == "" {
		badRequest(c, "参数不完整")
		return
	}
	if h.screen != nil {
		if ok, word := h.screen.Validate(req.Content); !ok {
			badRequest(c, "评论包含敏感词: "+word)
			return
		}
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	if err := h.comments.Add(ctx, id, req.AuthorName, req.Content); err != nil {
		serverError(c, "add comment failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type createArticleReq struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Status  string   `json:"status"`
}

// Create POST /api/articles 管理员新建文章
func (h *Articles) Create(c *gin.Context) {
	var req createArticleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求体不是合法 JSON")
		return
	}
	if req.Title == "" || req.Content == "" {
		badRequest(c, "标题和内容必填")
		return
	}
	if req.Status != "" && req.Status != objects.StatusDraft && req.Status != objects.StatusPublished {
		badRequest(c, "未知的文章状态")
		return
	}

	var authorID *uint64
	if user := middleware.CurrentUser(c); user != nil {
		authorID = &user.ID
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	id, err := h.articles.Create(ctx, repo.CreateArticleInput{
		Title:    req.Title,
		Summary:  req.Summary,
		Content:  req.Content,
		Tags:     req.Tags,
		Status:   req.Status,
		AuthorID: authorID,
	})
	if err != nil {
		serverError(c, "create article failed", err)
		return
	}

	// 响应返回前整体失效，保证写完成后开始的读不会拿到旧缓存
	h.cache.InvalidateAll(ctx)
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

type updateArticleReq struct {
	Title   *string  `json:"title"`
	Summary *string  `json:"summary"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
	Status  *string  `json:"status"`
}

// Update PUT /api/articles/:id 部分更新，没给的字段不动
func (h *Articles) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateArticleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求体不是合法 JSON")
		return
	}
	if req.Status != nil && *req.Status != objects.StatusDraft && *req.Status != objects.StatusPublished {
		badRequest(c, "未知的文章状态")
		return
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	err := h.articles.Update(ctx, id, repo.UpdateArticleInput{
		Title:   req.Title,
		Summary: req.Summary,
		Content: req.Content,
		Tags:    req.Tags,
		Status:  req.Status,
	})
	if err != nil {
		serverError(c, "update article failed", err)
		return
	}

	h.cache.InvalidateAll(ctx)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete DELETE /api/articles/:id 逻辑删除
func (h *Articles) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	if err := h.articles.Delete(ctx, id); err != nil {
		serverError(c, "delete article failed", err)
		return
	}

	h.cache.InvalidateAll(ctx)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// parseID 路径里的文章 ID，非数字是真正的 400
func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": xerr.ErrInvalidInput, "message": "Invalid id"})
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": xerr.ErrBadRequest, "message": msg})
}

// serverError 意外失败统一 500，细节只进日志不出响应
func serverError(c *gin.Context, logMsg string, err error) {
	zLog.Error(logMsg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"code": xerr.ErrInternalServer, "message": "服务器内部错误"})
}
