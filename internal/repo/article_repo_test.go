package repo_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/iceymoss/go-blog/internal/repo"
	"github.com/iceymoss/go-blog/pkg/db/objects"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的 sqlite 文件库
// 单连接避免并发写时的 SQLITE_BUSY
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "blog.db")), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	pool, err := gdb.DB()
	require.NoError(t, err)
	pool.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(&objects.Article{}, &objects.Comment{}, &objects.User{}))
	return gdb
}

func seedArticle(t *testing.T, gdb *gorm.DB, a *objects.Article) uint64 {
	t.Helper()
	require.NoError(t, gdb.Create(a).Error)
	return a.ID
}

func TestListPublishedExcludesDraftAndDeleted(t *testing.T) {
	gdb := newTestDB(t)
	r := repo.NewArticleRepo(gdb)
	ctx := context.Background()

	seedArticle(t, gdb, &objects.Article{Title: "已发布", Content: "a", Status: objects.StatusPublished})
	seedArticle(t, gdb, &objects.Article{Title: "草稿", Content: "b", Status: objects.StatusDraft})
	seedArticle(t, gdb, &objects.Article{Title: "已删除", Content: "c", Status: objects.StatusPublished, IsDeleted: true})

	res, err := r.ListPublished(ctx, 1, 10, "", repo.SortNewest)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total, "只有已发布且未删除的文章可见")
	require.Len(t, res.Articles, 1)
	assert.Equal(t, "已发布", res.Articles[0].Title)
}

func TestListPublishedPageSizeClamp(t *testing.T) {
	gdb := newTestDB(t)
	r := repo.NewArticleRepo(gdb)

	res, err := r.ListPublished(context.Background(), 0, 1000, "", repo.SortNewest)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page, "非正页码回退到 1")
	assert.Equal(t, repo.MaxPublicPageSize, res.PageSize, "页大小夹在公开上限")

	res, err = r.ListAdmin(context.Background(), -3, 1000, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, repo.MaxAdminPageSize, res.PageSize, "后台上限是 100")
}

func TestListPublishedSortAndTagFilter(t *testing.T) {
	gdb := newTestDB(t)
	r := repo.NewArticleRepo(gdb)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedArticle(t, gdb, &objects.Article{Title: "旧文", Content: "a", Status: objects.StatusPublished,
		Tags: "go,cache", Views: 5, CreatedAt: base})
	seedArticle(t, gdb, &objects.Article{Title: "新文", Content: "b", Status: objects.StatusPublished,
		Tags: "go", Views: 50, CreatedAt: base.Add(time.Hour)})
	seedArticle(t, gdb, &objects.Article{Title: "无关", Content: "c", Status: objects.StatusPublished,
		Tags: "web", Views: 500, CreatedAt: base.Add(2 * time.Hour)})

	res, err := r.ListPublished(ctx, 1, 10, "", repo.SortNewest)
	require.NoError(t, err)
	require.Len(t, res.Articles, 3)
	assert.Equal(t, "无关", res.Articles[0].Title)

	res, err = r.ListPublished(ctx, 1, 10, "", repo.SortOldest)
	require.NoError(t, err)
	assert.Equal(t, "旧文", res.Articles[0].Title)

	res, err = r.ListPublished(ctx, 1, 10, "", repo.SortPopular)
	require.NoError(t, err)
	assert.Equal(t, "无关", res.Articles[0].Title)

	// 未知排序回退最新
	res, err = r.ListPublished(ctx, 1, 10, "", "bogus")
	require.NoError(t, err)
	assert.Equal(t, "无关", res.Articles[0].Title)

	// 标签过滤是整项匹配，不做子串匹配
	res, err = r.ListPublished(ctx, 1, 10, "go", repo.SortNewest)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)

	res, err = r.ListPublished(ctx, 1, 10, "ca", repo.SortNewest)
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Total, "标签的子串不应命中")
}

func TestGetByIDDraftHidden(t *testing.T) {
	gdb := newTestDB(t)
	r := repo.NewArticleRepo(gdb)
	ctx := context.Background()

	id := seedArticle(t, gdb, &objects.Article{Title: "草稿", Content: "x", Status: objects.StatusDraft})

	// includeDraft=false 时草稿等同不存在，重复调用结果一致
	for i := 0; i < 2; i++ {
		_, err := r.GetByID(ctx, id, false)
		assert.ErrorIs(t, err, repo.ErrNotFound, "第 %d 次调用", i+1)
	}

	got, err := r.GetByID(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, "草稿", got.Title)
	assert.Equal(t, "x", got.Content, "详情带正文")
}

func TestGetByIDDeletedHidden(t *testing.T) {
	gdb := newTestDB(t)
	r := repo.NewArticleRepo(gdb)
	ctx := context.Background()

	id := seedArticle(t, gdb, &objects.Article{Title: "已删", Content: "x", Status: objects.StatusPublished, IsDeleted: true})

	// 已删除的行连 includeDraft=true 也看不到
	_, err := r.GetByID(ctx, id, true)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestDraftPublishScenario(t *testing.T) {
	gdb := newTestDB(t)
	r := repo.NewArticleRepo(gdb)
	ctx := context.Background()

	id, err := r.Create(ctx, repo.CreateArticleInput{
		Title:   "发布流程",
		Content: "正文",
		Tags:    []string{"x", "y"},
		Status:  objects.StatusDraft,
	})
	require.NoError(t, err)

	res, err := r.ListPublished(ctx, 1, 10, "", repo.SortNewest)
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Total, "草稿不出现在公开列表")

	status := objects.StatusPublished
	require.NoError(t, r.Update(ctx, id, repo.UpdateArticleInput{Status: &status}))

	res, err = r.ListPublished(ctx, 1, 10, "", repo.SortNewest)
	require.NoError(t, err)
	require.Len(t, res.Articles, 1)
	assert.Equal(t, []string{"x", "y"}, res.Articles[0].Tags, "标签在发布后保持不变")
}

func TestUpdatePartialFields(t *testing.T) {
	gdb := newTestDB(t)
	r := repo.NewArticleRepo(gdb)
	ctx := context.Background()

	id, err := r.Create(ctx, repo.CreateArticleInput{
		Title: "原标题", Summary: "原摘要", Content: "原正文",
		Tags: []string{"a"}, Status: objects.StatusPublished,
	})
	require.NoError(t, err)

	newTitle := "新标题"
	require.NoError(t, r.Update(ctx, id, repo.UpdateArticleInput{Title: &newTitle}))

	got, err := r.GetByID(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, "新标题", got.Title)
	assert.Equal(t, "原摘要", got.Summary, "未提供的字段保持原值")
	assert.Equal(t, "原正文", got.Content)
	assert.Equal(t, []string{"a"}, got.Tags)

	// 全空的更新是空操作
	require.NoError(t, r.Update(ctx, id, repo.UpdateArticleInput{}))
}

func TestDeleteIsLogical(t *testing.T) {
	gdb := newTestDB(t)
	r := repo.NewArticleRepo(gdb)
	ctx := context.Background()

	id, err := r.Create(ctx, repo.CreateArticleInput{Title: "待删", Content: "x", Status: objects.StatusPublished})
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, id))

	_, err = r.GetByID(ctx, id, true)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	// 行还在，只是打了删除标记
	var raw objects.Article
	require.NoError(t, gdb.Unscoped().Where("id = ?", id).First(&raw).Error)
	assert.True(t, raw.IsDeleted)
}

func TestIncrementViewsConcurrent(t *testing.T) {
	gdb := newTestDB(t)
	r := repo.NewArticleRepo(gdb)
	ctx := context.Background()

	id := seedArticle(t, gdb, &objects.Article{Title: "热文", Content: "x", Status: objects.StatusPublished, Views: 10})

	// 两次并发自增都要生效，不允许丢更新
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.IncrementViews(ctx, id))
		}()
	}
	wg.Wait()

	got, err := r.GetByID(ctx, id, true)
	require.NoError(t, err)
	assert.EqualValues(t, 12, got.Views)
}

func TestCreateDerivesSummary(t *testing.T) {
	gdb := newTestDB(t)
	r := repo.NewArticleRepo(gdb)
	ctx := context.Background()

	id, err := r.Create(ctx, repo.CreateArticleInput{Title: "无摘要", Content: "这是正文开头"})
	require.NoError(t, err)

	got, err := r.GetByID(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, "这是正文开头", got.Summary, "摘要缺省时取正文开头")
	assert.Equal(t, objects.StatusDraft, got.Status, "状态缺省是草稿")
}

func TestTagCloud(t *testing.T) {
	gdb := newTestDB(t)
	r := repo.NewArticleRepo(gdb)
	ctx := context.Background()

	seedArticle(t, gdb, &objects.Article{Title: "a", Content: "x", Status: objects.StatusPublished, Tags: "go,cache"})
	seedArticle(t, gdb, &objects.Article{Title: "b", Content: "x", Status: objects.StatusPublished, Tags: "go"})
	seedArticle(t, gdb, &objects.Article{Title: "c", Content: "x", Status: objects.StatusDraft, Tags: "draft-only"})
	seedArticle(t, gdb, &objects.Article{Title: "d", Content: "x", Status: objects.StatusPublished, Tags: "go,go, cache"})

	tags, err := r.TagCloud(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2, "草稿的标签不进标签云")
	assert.Equal(t, repo.TagCount{Name: "go", Count: 3}, tags[0], "同一篇文章里的重复标签只算一次")
	assert.Equal(t, repo.TagCount{Name: "cache", Count: 2}, tags[1])
}

func TestCommentsOrderedAsc(t *testing.T) {
	gdb := newTestDB(t)
	r := repo.NewCommentRepo(gdb)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, gdb.Create(&objects.Comment{ArticleID: 1, AuthorName: "乙", Content: "后排", CreatedAt: base.Add(time.Minute)}).Error)
	require.NoError(t, gdb.Create(&objects.Comment{ArticleID: 1, AuthorName: "甲", Content: "前排", CreatedAt: base}).Error)
	require.NoError(t, gdb.Create(&objects.Comment{ArticleID: 2, AuthorName: "丙", Content: "别的文章", CreatedAt: base}).Error)

	got, err := r.ListByArticle(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "甲", got[0].AuthorName, "评论按时间正序")
	assert.Equal(t, "乙", got[1].AuthorName)

	empty, err := r.ListByArticle(ctx, 99)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Len(t, empty, 0)
}
