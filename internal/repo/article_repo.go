package repo

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/iceymoss/go-blog/pkg/db/objects"
	"github.com/iceymoss/go-blog/pkg/utils"

	"gorm.io/gorm"
)

// ErrNotFound 不存在、草稿被隐藏、已逻辑删除三种情况统一返回
// 调用方不区分原因，避免信息泄露
var ErrNotFound = errors.New("article not found")

const (
	DefaultPageSize   = 10
	MaxPublicPageSize = 50  // 公开列表上限
	MaxAdminPageSize  = 100 // 后台列表上限
)

// 排序方式
const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortPopular = "popular"
)

// ArticleItem 对外暴露的文章结构，标签已拆成列表
type ArticleItem struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content,omitempty"`
	Tags      []string  `json:"tags"`
	Status    string    `json:"status,omitempty"`
	Views     uint64    `json:"views"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListResult 分页结果，page/pageSize 是修正后的生效值
type ListResult struct {
	Articles []*ArticleItem `json:"articles"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// TagCount 标签云条目，不落库，按缓存未命中现算
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CreateArticleInput 新建文章入参，handler 侧已完成校验
type CreateArticleInput struct {
	Title    string
	Summary  string
	Content  string
	Tags     []string
	Status   string
	AuthorID *uint64 // 认证协作方给出的 ID，不校验直接落库
}

// UpdateArticleInput 部分更新，nil 字段保持原值
type UpdateArticleInput struct {
	Title   *string
	Summary *string
	Content *string
	Tags    []string // nil 表示不改，空切片表示清空
	Status  *string
}

type ArticleRepo struct {
	db *gorm.DB
}

func NewArticleRepo(db *gorm.DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

// NormalizePage 页码和页大小修正：非正数回退默认值，页大小夹在上限内
// handler 侧构造缓存 key 时也用它，保证 key 由生效参数决定
func NormalizePage(page, pageSize, max int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > max {
		pageSize = max
	}
	return page, pageSize
}

// NormalizeSort 未知排序一律回退最新
func NormalizeSort(sortKey string) string {
	switch sortKey {
	case SortOldest, SortPopular:
		return sortKey
	default:
		return SortNewest
	}
}

func orderExpr(sortKey string) string {
	switch NormalizeSort(sortKey) {
	case SortOldest:
		return "created_at ASC"
	case SortPopular:
		return "views DESC"
	default:
		return "created_at DESC"
	}
}

// tagFilter 标签成员匹配，存储格式是无转义的逗号拼接
// 用四段 LIKE 覆盖 独占/开头/结尾/中间，等价于 MySQL 的 FIND_IN_SET
func tagFilter(q *gorm.DB, tag string) *gorm.DB {
	return q.Where("tags = ? OR tags LIKE ? OR tags LIKE ? OR tags LIKE ?",
		tag, tag+",%", "%,"+tag, "%,"+tag+",%")
}

func toItem(a *objects.Article, withContent bool) *ArticleItem {
	item := &ArticleItem{
		ID:        a.ID,
		Title:     a.Title,
		Summary:   a.Summary,
		Tags:      utils.NormalizeTags(a.Tags),
		Status:    a.Status,
		Views:     a.Views,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if withContent {
		item.Content = a.Content
	}
	return item
}

// ListPublished 公开文章列表，只出已发布且未删除的行
func (r *ArticleRepo) ListPublished(ctx context.Context, page, pageSize int, tag, sortKey string) (*ListResult, error) {
	page, pageSize = NormalizePage(page, pageSize, MaxPublicPageSize)

	base := r.db.WithContext(ctx).Model(&objects.Article{}).
		Where("is_deleted = ? AND status = ?", false, objects.StatusPublished)
	if tag != "" {
		base = tagFilter(base, tag)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []*objects.Article
	err := base.Order(orderExpr(sortKey)).
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]*ArticleItem, 0, len(rows))
	for _, a := range rows {
		items = append(items, toItem(a, false))
	}
	return &ListResult{Articles: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListAdmin 后台列表，包含草稿，可按状态过滤
func (r *ArticleRepo) ListAdmin(ctx context.Context, page, pageSize int, status string) (*ListResult, error) {
	page, pageSize = NormalizePage(page, pageSize, MaxAdminPageSize)

	base := r.db.WithContext(ctx).Model(&objects.Article{}).Where("is_deleted = ?", false)
	if status != "" {
		base = base.Where("status = ?", status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []*objects.Article
	err := base.Order("created_at DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]*ArticleItem, 0, len(rows))
	for _, a := range rows {
		items = append(items, toItem(a, false))
	}
	return &ListResult{Articles: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// GetByID 取单篇文章
// includeDraft=false 时草稿与已删除行一律按不存在处理
func (r *ArticleRepo) GetByID(ctx context.Context, id uint64, includeDraft bool) (*ArticleItem, error) {
	q := r.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", id, false)
	if !includeDraft {
		q = q.Where("status = ?", objects.StatusPublished)
	}

	var a objects.Article
	if err := q.First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toItem(&a, true), nil
}

// IncrementViews 浏览量 +1
// 用 SQL 表达式原子自增，并发调用不会丢更新
func (r *ArticleRepo) IncrementViews(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&objects.Article{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

// Create 新建文章，返回数据库分配的 ID
// summary 缺省时从正文截取
func (r *ArticleRepo) Create(ctx context.Context, in CreateArticleInput) (uint64, error) {
	status := in.Status
	if status == "" {
		status = objects.StatusDraft
	}
	summary := in.Summary
	if summary == "" {
		summary = deriveSummary(in.Content)
	}
	a := objects.Article{
		Title:    in.Title,
		Summary:  summary,
		Content:  in.Content,
		Tags:     utils.JoinTags(in.Tags),
		Status:   status,
		AuthorID: in.AuthorID,
	}
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return 0, err
	}
	return a.ID, nil
}

// Update 部分更新：只写显式给出的字段，已删除的行不可更新
func (r *ArticleRepo) Update(ctx context.Context, id uint64, in UpdateArticleInput) error {
	fields := make(map[string]interface{})
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.Summary != nil {
		fields["summary"] = *in.Summary
	}
	if in.Content != nil {
		fields["content"] = *in.Content
	}
	if in.Tags != nil {
		fields["tags"] = utils.JoinTags(in.Tags)
	}
	if in.Status != nil {
		fields["status"] = *in.Status
	}
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&objects.Article{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(fields).Error
}

// Delete 逻辑删除，行保留用于审计
func (r *ArticleRepo) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&objects.Article{}).
		Where("id = ?", id).
		Update("is_deleted", true).Error
}

// TagCloud 扫全部已发布文章的标签字段，聚合计数后按次数降序
func (r *ArticleRepo) TagCloud(ctx context.Context) ([]TagCount, error) {
	var rows []struct {
		Tags string
	}
	err := r.db.WithContext(ctx).Model(&objects.Article{}).
		Select("tags").
		Where("is_deleted = ? AND status = ?", false, objects.StatusPublished).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, row := range rows {
		for _, tag := range utils.NormalizeTags(row.Tags) {
			if _, ok := counts[tag]; !ok {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	tags := make([]TagCount, 0, len(order))
	for _, name := range order {
		tags = append(tags, TagCount{Name: name, Count: counts[name]})
	}
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Count > tags[j].Count
	})
	return tags, nil
}

// deriveSummary 从正文开头截取摘要
func deriveSummary(content string) string {
	const maxRunes = 120
	runes := []rune(content)
	if len(runes) <= maxRunes {
		return content
	}
	return string(runes[:maxRunes])
}
