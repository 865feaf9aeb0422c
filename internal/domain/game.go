package domain

import "time"

// GameStatus 是游戏会话的状态。
type GameStatus string

const (
	GameWaiting  GameStatus = "waiting"
	GameRunning  GameStatus = "running"
	GameFinished GameStatus = "finished"
)

// GameSessionID 唯一会话记录的主键。整个系统只有这一条记录。
const GameSessionID uint = 1

// GameSession 是全局唯一的游戏会话。
// Order 在 start 时固定，之后不随照片的增删重新校验。
type GameSession struct {
	ID         uint       `gorm:"primaryKey" json:"-"`
	Status     GameStatus `gorm:"type:varchar(20);not null" json:"status"`
	Order      []uint     `gorm:"column:reveal_order;serializer:json;type:text" json:"order"`
	Index      int        `gorm:"column:reveal_index;not null" json:"index"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt"`
}

// NewGameSession 返回处于 waiting 状态的初始会话。
func NewGameSession() *GameSession {
	return &GameSession{
		ID:     GameSessionID,
		Status: GameWaiting,
		Order:  []uint{},
	}
}

// Total 返回本轮的照片总数。
func (g *GameSession) Total() int {
	return len(g.Order)
}
