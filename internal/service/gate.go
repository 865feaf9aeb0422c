package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/AlanChernakoff/Photogame/internal/domain"
	"github.com/AlanChernakoff/Photogame/internal/repository"
)

// Gate 解析调用者并执行角色检查，PhotoService 和 GameService 在任何修改前都要先经过它。
type Gate struct {
	userRepo repository.UserRepository
}

// NewGate 创建 Gate 实例
func NewGate(userRepo repository.UserRepository) *Gate {
	if userRepo == nil {
		panic("UserRepository cannot be nil for Gate")
	}
	return &Gate{userRepo: userRepo}
}

// ResolveCaller 把 callerID 解析为用户。0 视为缺失。
func (g *Gate) ResolveCaller(ctx context.Context, callerID uint) (*domain.User, error) {
	if callerID == 0 {
		return nil, ErrCallerRequired
	}
	return findUser(ctx, g.userRepo, callerID)
}

// RequireAdmin 要求调用者存在且为 admin。
func (g *Gate) RequireAdmin(ctx context.Context, callerID uint) (*domain.User, error) {
	user, err := g.ResolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		logrus.WithField("user_id", callerID).Warn("Gate: admin only")
		return nil, ErrAdminOnly
	}
	return user, nil
}
