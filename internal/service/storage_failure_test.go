package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AlanChernakoff/Photogame/internal/domain"
	"github.com/AlanChernakoff/Photogame/internal/infra/blob"
	"github.com/AlanChernakoff/Photogame/internal/infra/persistence/jsonfile"
	"github.com/AlanChernakoff/Photogame/internal/repository"
	"github.com/AlanChernakoff/Photogame/internal/repository/mocks"
	"github.com/AlanChernakoff/Photogame/internal/service"
)

// mockedEnv 用户走真实存储，照片和会话仓库换成 mock
type mockedEnv struct {
	auth      *service.AuthService
	photos    *service.PhotoService
	game      *service.GameService
	photoRepo *mocks.PhotoRepository
	gameRepo  *mocks.GameRepository
	blobDir   string
}

func newMockedEnv(t *testing.T) *mockedEnv {
	t.Helper()
	dir := t.TempDir()
	store, err := jsonfile.Open(filepath.Join(dir, "data.json"))
	require.NoError(t, err)
	blobDir := filepath.Join(dir, "uploads")
	files, err := blob.NewLocalProvider(blobDir)
	require.NoError(t, err)

	photoRepo := new(mocks.PhotoRepository)
	gameRepo := new(mocks.GameRepository)
	gate := service.NewGate(store.Users())
	return &mockedEnv{
		auth:      service.NewAuthService(store.Users(), nil),
		photos:    service.NewPhotoService(gate, photoRepo, files, nil, 0),
		game:      service.NewGameService(gate, photoRepo, gameRepo, files, nil, nil),
		photoRepo: photoRepo,
		gameRepo:  gameRepo,
		blobDir:   blobDir,
	}
}

func TestUpload_RecordWriteFailureRemovesFiles(t *testing.T) {
	testCases := []struct {
		desc    string
		repoErr error
		wantErr error
	}{
		{desc: "lost slot race", repoErr: repository.ErrSlotTaken, wantErr: service.ErrSlotTaken},
		{desc: "lost quota race", repoErr: repository.ErrQuotaExceeded, wantErr: service.ErrQuotaExceeded},
		{desc: "storage failure", repoErr: errors.New("disk full"), wantErr: service.ErrInternalServer},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			ctx := context.Background()
			env := newMockedEnv(t)
			ana, err := env.auth.Register(ctx, "Ana", "red")
			require.NoError(t, err)

			env.photoRepo.On("CountByOwner", ctx, ana.ID).Return(int64(0), nil).Once()
			env.photoRepo.On("ListByOwner", ctx, ana.ID).Return([]domain.Photo{}, nil).Once()
			env.photoRepo.On("CreateBatch", ctx, ana.ID, mock.Anything, domain.MaxPhotosPerOwner).Return(tc.repoErr).Once()

			_, err = env.photos.Upload(ctx, ana.ID, slots(domain.TipoChico, domain.TipoVergonzosa))
			assert.ErrorIs(t, err, tc.wantErr)

			entries, err := os.ReadDir(env.blobDir)
			require.NoError(t, err)
			assert.Empty(t, entries, "written files must be removed when the records are rejected")
			env.photoRepo.AssertExpectations(t)
		})
	}
}

func TestGame_StorageFailures(t *testing.T) {
	ctx := context.Background()
	env := newMockedEnv(t)
	admin, err := env.auth.Register(ctx, "Ana", "red")
	require.NoError(t, err)

	env.photoRepo.On("ListAll", ctx).Return([]domain.Photo{{ID: 1}, {ID: 2}}, nil).Once()
	env.gameRepo.On("Save", ctx, mock.AnythingOfType("*domain.GameSession")).Return(errors.New("write failed")).Once()
	_, err = env.game.Start(ctx, admin.ID)
	assert.ErrorIs(t, err, service.ErrInternalServer)

	env.gameRepo.On("Get", ctx).Return(nil, errors.New("read failed")).Twice()
	_, err = env.game.Next(ctx, admin.ID)
	assert.ErrorIs(t, err, service.ErrInternalServer)
	_, err = env.game.Status(ctx, admin.ID)
	assert.ErrorIs(t, err, service.ErrInternalServer)

	env.photoRepo.AssertExpectations(t)
	env.gameRepo.AssertExpectations(t)
}

func TestUpload_QuotaCheckedFromOwnerCount(t *testing.T) {
	ctx := context.Background()
	env := newMockedEnv(t)
	ana, err := env.auth.Register(ctx, "Ana", "red")
	require.NoError(t, err)

	env.photoRepo.On("CountByOwner", ctx, ana.ID).Return(int64(domain.MaxPhotosPerOwner), nil).Once()

	_, err = env.photos.Upload(ctx, ana.ID, slots(domain.TipoChico))
	assert.ErrorIs(t, err, service.ErrQuotaExceeded)

	env.photoRepo.AssertExpectations(t)
	env.photoRepo.AssertNotCalled(t, "ListByOwner", mock.Anything, mock.Anything)
	env.photoRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
