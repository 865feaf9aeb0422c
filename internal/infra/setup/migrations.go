package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/AlanChernakoff/Photogame/internal/domain"
)

// MigrateDB 迁移 users / photos / game_sessions 三张表，并确保会话记录存在。
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	if err := db.AutoMigrate(&domain.User{}, &domain.Photo{}, &domain.GameSession{}); err != nil {
		logrus.Errorf("Failed to auto-migrate tables: %v", err)
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}

	if err := seedGameSession(db); err != nil {
		return err
	}

	logrus.Info("Database migration completed successfully")
	return nil
}

// seedGameSession 首次启动时写入 waiting 状态的会话记录
func seedGameSession(db *gorm.DB) error {
	var count int64
	if err := db.Model(&domain.GameSession{}).Where("id = ?", domain.GameSessionID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check game session row: %w", err)
	}
	if count > 0 {
		return nil
	}
	if err := db.Create(domain.NewGameSession()).Error; err != nil {
		return fmt.Errorf("failed to create game session row: %w", err)
	}
	logrus.Info("Game session row created")
	return nil
}
