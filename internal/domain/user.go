// Package domain 定义了游戏中使用的核心数据结构。
package domain

import (
	"strings"
	"time"
)

// Role 表示用户角色，创建时确定，之后不可修改。
type Role string

const (
	RoleAdmin Role = "admin"
	RoleHost  Role = "host"
)

// User 表示一个参与者。
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(191);not null" json:"name"`
	NameKey   string    `gorm:"type:varchar(191);uniqueIndex:idx_users_name_key;not null" json:"-"` // 小写后的名字，用于大小写不敏感的唯一约束
	Role      Role      `gorm:"type:varchar(20);not null" json:"role"`
	Color     string    `gorm:"type:varchar(191);not null" json:"-"` // 共享口令，明文比较
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// IsAdmin 判断用户是否为管理员。
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// NameKeyOf 返回名字的归一化形式。
func NameKeyOf(name string) string {
	return strings.ToLower(name)
}
