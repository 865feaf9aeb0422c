package jsonfile

import (
	"context"

	"github.com/AlanChernakoff/Photogame/internal/domain"
)

// GameRepository 是 repository.GameRepository 的文件实现
type GameRepository struct {
	store *Store
}

// Get 返回会话的副本，调用方修改后需要 Save
func (r *GameRepository) Get(_ context.Context) (*domain.GameSession, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneGame(s.doc.Game), nil
}

func (r *GameRepository) Save(_ context.Context, game *domain.GameSession) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.doc.Game
	s.doc.Game = cloneGame(game)
	s.doc.Game.ID = domain.GameSessionID
	if err := s.flush(); err != nil {
		s.doc.Game = previous
		return err
	}
	return nil
}

func cloneGame(g *domain.GameSession) *domain.GameSession {
	if g == nil {
		return domain.NewGameSession()
	}
	c := *g
	c.Order = append([]uint{}, g.Order...)
	return &c
}
