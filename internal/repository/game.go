package repository

import (
	"context"

	"github.com/AlanChernakoff/Photogame/internal/domain"
)

// GameRepository 读写唯一的游戏会话记录。
type GameRepository interface {
	// Get 返回当前会话。记录不存在时返回 waiting 状态的默认会话，而不是错误。
	Get(ctx context.Context) (*domain.GameSession, error)

	// Save 覆盖写入会话记录。
	Save(ctx context.Context, game *domain.GameSession) error
}
