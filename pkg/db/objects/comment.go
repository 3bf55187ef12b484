package objects

import (
	"time"
)

// Comment 对应数据库表 comments
// 评论创建后不可修改，只支持逻辑删除
type Comment struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// 所属文章
	ArticleID uint64 `gorm:"not null;index" json:"article_id"`

	// 展示用的作者名，不关联用户表
	AuthorName string `gorm:"type:varchar(64);not null" json:"authorName"`

	Content string `gorm:"type:text;not null" json:"content"`

	IsDeleted bool `gorm:"not null;default:false;index" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime;type:datetime" json:"createdAt"`
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comments"
}
