package repository

import (
	"context"

	"github.com/AlanChernakoff/Photogame/internal/domain"
)

// UserRepository 定义了用户数据的存储和检索操作。
type UserRepository interface {
	// Create 插入新用户并回填 ID。
	// 名字（大小写不敏感）已存在时返回 ErrDuplicateEntry。
	Create(ctx context.Context, user *domain.User) error

	// FindByID 根据 ID 查找用户，不存在时返回 ErrUserNotFound。
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// FindByNameCI 大小写不敏感地按名字查找用户，不存在时返回 ErrUserNotFound。
	FindByNameCI(ctx context.Context, name string) (*domain.User, error)

	// Count 返回用户总数。
	Count(ctx context.Context) (int64, error)

	// List 按 ID 升序返回全部用户。
	List(ctx context.Context) ([]domain.User, error)
}
