package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/AlanChernakoff/Photogame/internal/domain"
)

// GormGameRepository 是 GameRepository 接口的 GORM 实现。
// 表中只有一行，主键固定为 domain.GameSessionID。
type GormGameRepository struct {
	db *gorm.DB
}

// NewGormGameRepository 创建 GormGameRepository 实例
func NewGormGameRepository(db *gorm.DB) *GormGameRepository {
	if db == nil {
		panic("database connection cannot be nil for GormGameRepository")
	}
	return &GormGameRepository{db: db}
}

// Get 读取会话，没有记录时返回默认的 waiting 会话
func (r *GormGameRepository) Get(ctx context.Context) (*domain.GameSession, error) {
	var game domain.GameSession
	err := r.db.WithContext(ctx).First(&game, domain.GameSessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewGameSession(), nil
		}
		return nil, fmt.Errorf("gorm: get game session: %w", err)
	}
	if game.Order == nil {
		game.Order = []uint{}
	}
	return &game, nil
}

// Save 以 upsert 的方式写入会话
func (r *GormGameRepository) Save(ctx context.Context, game *domain.GameSession) error {
	game.ID = domain.GameSessionID
	if err := r.db.WithContext(ctx).Save(game).Error; err != nil {
		return fmt.Errorf("gorm: save game session (status: %s): %w", game.Status, err)
	}
	return nil
}
