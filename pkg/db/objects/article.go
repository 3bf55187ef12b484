package objects

import (
	"time"
)

// 文章状态
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Article 对应数据库表 articles
// tags 是逗号拼接的文本字段，读取侧用 utils.NormalizeTags 拆成列表
type Article struct {
	// ID 主键
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// 标题
	Title string `gorm:"type:varchar(255);not null" json:"title"`

	// 摘要，可由服务端截取生成
	Summary string `gorm:"type:varchar(512)" json:"summary"`

	// 正文，Markdown 格式
	Content string `gorm:"type:longtext" json:"content,omitempty"`

	// 标签，逗号分隔存储，不转义内嵌逗号
	Tags string `gorm:"type:varchar(255);comment:逗号分隔的标签" json:"-"`

	// 状态 draft / published
	Status string `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`

	// 浏览量，只增不减，更新走 views = views + 1
	Views uint64 `gorm:"not null;default:0" json:"views"`

	// 作者 ID，来自认证协作方，不做校验，原样落库
	AuthorID *uint64 `gorm:"index" json:"author_id,omitempty"`

	// 逻辑删除标记，删除不物理清除行
	IsDeleted bool `gorm:"not null;default:false;index" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime;type:datetime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;type:datetime" json:"updated_at"`
}

// TableName 指定表名
func (Article) TableName() string {
	return "articles"
}
