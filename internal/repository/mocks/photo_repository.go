package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/AlanChernakoff/Photogame/internal/domain"
)

// PhotoRepository 是 repository.PhotoRepository 的 mock。
type PhotoRepository struct {
	mock.Mock
}

func (m *PhotoRepository) CreateBatch(ctx context.Context, ownerID uint, photos []*domain.Photo, quota int) error {
	args := m.Called(ctx, ownerID, photos, quota)
	return args.Error(0)
}

func (m *PhotoRepository) FindByID(ctx context.Context, id uint) (*domain.Photo, error) {
	args := m.Called(ctx, id)
	photo, _ := args.Get(0).(*domain.Photo)
	return photo, args.Error(1)
}

func (m *PhotoRepository) ListByOwner(ctx context.Context, ownerID uint) ([]domain.Photo, error) {
	args := m.Called(ctx, ownerID)
	photos, _ := args.Get(0).([]domain.Photo)
	return photos, args.Error(1)
}

func (m *PhotoRepository) ListAll(ctx context.Context) ([]domain.Photo, error) {
	args := m.Called(ctx)
	photos, _ := args.Get(0).([]domain.Photo)
	return photos, args.Error(1)
}

func (m *PhotoRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *PhotoRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *PhotoRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
