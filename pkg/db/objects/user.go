package objects

import (
	"time"
)

// 用户角色
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User 对应数据库表 users
// 只服务于认证协作方：注册/登录/角色判断
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	Username string `gorm:"type:varchar(64);not null;uniqueIndex" json:"username"`

	// bcrypt 哈希
	PasswordHash string `gorm:"type:varchar(128);not null" json:"-"`

	// admin / user，第一个注册的用户是 admin
	Role string `gorm:"type:varchar(16);not null;default:'user'" json:"role"`

	CreatedAt time.Time `gorm:"autoCreateTime;type:datetime" json:"created_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
