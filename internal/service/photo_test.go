package service_test

import (
	"bytes"
	"context"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlanChernakoff/Photogame/internal/domain"
	"github.com/AlanChernakoff/Photogame/internal/service"
)

func blobCount(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestPhotoService_Upload_BothSlots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana := env.register(t, "Ana", "red")

	accepted := env.upload(t, ana.ID, domain.TipoVergonzosa, domain.TipoChico)

	// 槽位按固定顺序处理
	assert.Equal(t, []domain.Tipo{domain.TipoChico, domain.TipoVergonzosa}, accepted)

	photos, err := env.photos.ListOwnPhotos(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Less(t, photos[0].ID, photos[1].ID)
	assert.Equal(t, domain.TipoChico, photos[0].Tipo)
	for _, p := range photos {
		assert.Equal(t, ana.ID, p.OwnerID)
		assert.True(t, strings.HasPrefix(p.Filename, "photo_"), p.Filename)
		assert.Equal(t, ".png", filepath.Ext(p.Filename))
		assert.Equal(t, "image/png", p.Mime)
		assert.FileExists(t, filepath.Join(env.blobDir, p.Filename))
	}
}

func TestPhotoService_Upload_QuotaRejectsWholeBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Ana", "red")
	bea := env.register(t, "Bea", "blue")
	env.upload(t, bea.ID, domain.TipoChico)

	accepted, err := env.photos.Upload(ctx, bea.ID, slots(domain.TipoChico, domain.TipoVergonzosa))

	assert.Nil(t, accepted)
	assert.ErrorIs(t, err, service.ErrQuotaExceeded)
	assert.Equal(t, service.KindQuotaExceeded, service.KindOf(err))

	photos, err := env.photos.ListOwnPhotos(ctx, bea.ID)
	require.NoError(t, err)
	assert.Len(t, photos, 1, "rejected batch must not create records")
	assert.Equal(t, 1, blobCount(t, env.blobDir), "rejected batch must not leave files behind")
}

func TestPhotoService_Upload_SlotTaken(t *testing.T) {
	env := newTestEnv(t)
	ana := env.register(t, "Ana", "red")
	env.upload(t, ana.ID, domain.TipoChico)

	_, err := env.photos.Upload(context.Background(), ana.ID, slots(domain.TipoChico))

	assert.ErrorIs(t, err, service.ErrSlotTaken)
	assert.Equal(t, 1, blobCount(t, env.blobDir))
}

func TestPhotoService_Upload_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana := env.register(t, "Ana", "red")

	gif := slots(domain.TipoChico)
	f := gif[domain.TipoChico]
	f.ContentType = "image/gif"
	gif[domain.TipoChico] = f

	huge := slots(domain.TipoChico)
	f = huge[domain.TipoChico]
	f.Size = service.DefaultMaxUploadBytes + 1
	huge[domain.TipoChico] = f

	testCases := []struct {
		desc     string
		callerID uint
		slots    map[domain.Tipo]service.UploadFile
		wantErr  error
	}{
		{"missing caller", 0, slots(domain.TipoChico), service.ErrCallerRequired},
		{"unknown caller", 42, slots(domain.TipoChico), service.ErrUserNotFound},
		{"no files", ana.ID, map[domain.Tipo]service.UploadFile{}, service.ErrNoFiles},
		{"unknown slot", ana.ID, slots(domain.Tipo("selfie")), service.ErrInvalidTipo},
		{"unsupported type", ana.ID, gif, service.ErrUnsupportedType},
		{"too large", ana.ID, huge, service.ErrFileTooLarge},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := env.photos.Upload(ctx, tc.callerID, tc.slots)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
	assert.Equal(t, 0, blobCount(t, env.blobDir))
}

func TestPhotoService_Upload_ConcurrentSameOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana := env.register(t, "Ana", "red")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tipo := domain.TipoChico
			if i%2 == 1 {
				tipo = domain.TipoVergonzosa
			}
			if _, err := env.photos.Upload(ctx, ana.ID, slots(tipo)); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	photos, err := env.photos.ListOwnPhotos(ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, photos, domain.MaxPhotosPerOwner)
	assert.Equal(t, domain.MaxPhotosPerOwner, accepted)
	assert.Equal(t, domain.MaxPhotosPerOwner, blobCount(t, env.blobDir))
}

func TestPhotoService_ListAllPhotos_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana := env.register(t, "Ana", "red")
	bea := env.register(t, "Bea", "blue")
	env.upload(t, bea.ID, domain.TipoChico)
	env.upload(t, ana.ID, domain.TipoVergonzosa)

	_, err := env.photos.ListAllPhotos(ctx, bea.ID)
	assert.ErrorIs(t, err, service.ErrAdminOnly)

	photos, err := env.photos.ListAllPhotos(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, ana.ID, photos[0].OwnerID)
	assert.Equal(t, bea.ID, photos[1].OwnerID)
}

func TestPhotoService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana := env.register(t, "Ana", "red")
	bea := env.register(t, "Bea", "blue")
	cai := env.register(t, "Cai", "green")
	env.upload(t, bea.ID, domain.TipoChico, domain.TipoVergonzosa)
	photos, err := env.photos.ListOwnPhotos(ctx, bea.ID)
	require.NoError(t, err)
	require.Len(t, photos, 2)

	// 其他 host 不能删除
	err = env.photos.Delete(ctx, cai.ID, photos[0].ID)
	assert.ErrorIs(t, err, service.ErrNotPhotoOwner)
	assert.Equal(t, service.KindForbidden, service.KindOf(err))

	// 主人可以删除，文件一并删除
	require.NoError(t, env.photos.Delete(ctx, bea.ID, photos[0].ID))
	assert.NoFileExists(t, filepath.Join(env.blobDir, photos[0].Filename))

	// 文件已丢失时仍然删除记录
	require.NoError(t, os.Remove(filepath.Join(env.blobDir, photos[1].Filename)))
	require.NoError(t, env.photos.Delete(ctx, ana.ID, photos[1].ID))

	remaining, err := env.photos.ListOwnPhotos(ctx, bea.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	err = env.photos.Delete(ctx, ana.ID, photos[0].ID)
	assert.ErrorIs(t, err, service.ErrPhotoNotFound)

	// 删除后槽位可以重新使用
	env.upload(t, bea.ID, domain.TipoChico)
}

func TestPhotoService_DeleteAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana := env.register(t, "Ana", "red")
	bea := env.register(t, "Bea", "blue")
	env.upload(t, ana.ID, domain.TipoChico)
	env.upload(t, bea.ID, domain.TipoChico, domain.TipoVergonzosa)

	_, err := env.photos.DeleteAll(ctx, bea.ID)
	assert.ErrorIs(t, err, service.ErrAdminOnly)

	count, err := env.photos.DeleteAll(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 0, blobCount(t, env.blobDir))

	photos, err := env.photos.ListAllPhotos(ctx, ana.ID)
	require.NoError(t, err)
	assert.Empty(t, photos)
}

func TestPhotoService_Thumbnail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana := env.register(t, "Ana", "red")
	bea := env.register(t, "Bea", "blue")
	cai := env.register(t, "Cai", "green")
	env.upload(t, bea.ID, domain.TipoChico)
	photos, err := env.photos.ListOwnPhotos(ctx, bea.ID)
	require.NoError(t, err)
	require.Len(t, photos, 1)

	for _, callerID := range []uint{bea.ID, ana.ID} {
		data, err := env.photos.Thumbnail(ctx, callerID, photos[0].ID)
		require.NoError(t, err)
		img, err := jpeg.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.LessOrEqual(t, img.Bounds().Dx(), 300)
		assert.LessOrEqual(t, img.Bounds().Dy(), 300)
	}

	_, err = env.photos.Thumbnail(ctx, cai.ID, photos[0].ID)
	assert.ErrorIs(t, err, service.ErrNotPhotoOwner)

	require.NoError(t, os.Remove(filepath.Join(env.blobDir, photos[0].Filename)))
	_, err = env.photos.Thumbnail(ctx, bea.ID, photos[0].ID)
	assert.ErrorIs(t, err, service.ErrFileMissing)
}
