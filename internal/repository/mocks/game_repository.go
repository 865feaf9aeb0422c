package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/AlanChernakoff/Photogame/internal/domain"
)

// GameRepository 是 repository.GameRepository 的 mock。
type GameRepository struct {
	mock.Mock
}

func (m *GameRepository) Get(ctx context.Context) (*domain.GameSession, error) {
	args := m.Called(ctx)
	game, _ := args.Get(0).(*domain.GameSession)
	return game, args.Error(1)
}

func (m *GameRepository) Save(ctx context.Context, game *domain.GameSession) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}
