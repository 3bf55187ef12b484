package repo

import (
	"context"

	"github.com/iceymoss/go-blog/pkg/db/objects"

	"gorm.io/gorm"
)

type CommentRepo struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) *CommentRepo {
	return &CommentRepo{db: db}
}

// ListByArticle 某篇文章的评论，按发表时间正序
func (r *CommentRepo) ListByArticle(ctx context.Context, articleID uint64) ([]*objects.Comment, error) {
	rows := make([]*objects.Comment, 0)
	err := r.db.WithContext(ctx).
		Where("article_id = ? AND is_deleted = ?", articleID, false).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// Add 追加一条评论，评论创建后不可修改
func (r *CommentRepo) Add(ctx context.Context, articleID uint64, authorName, content string) error {
	c := objects.Comment{
		ArticleID:  articleID,
		AuthorName: authorName,
		Content:    content,
	}
	return r.db.WithContext(ctx).Create(&c).Error
}
