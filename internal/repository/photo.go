package repository

import (
	"context"

	"github.com/AlanChernakoff/Photogame/internal/domain"
)

// PhotoRepository 定义了照片记录的存储操作。文件本体不在这里管理。
type PhotoRepository interface {
	// CreateBatch 以条件写入的方式插入同一用户的一批照片并回填 ID：
	// 若写入后该用户照片数超过 quota 返回 ErrQuotaExceeded，
	// 若某个槽位已被占用返回 ErrSlotTaken。任一失败时整批不写入。
	CreateBatch(ctx context.Context, ownerID uint, photos []*domain.Photo, quota int) error

	// FindByID 根据 ID 查找照片，不存在时返回 ErrPhotoNotFound。
	FindByID(ctx context.Context, id uint) (*domain.Photo, error)

	// ListByOwner 按 ID 升序返回某用户的照片。
	ListByOwner(ctx context.Context, ownerID uint) ([]domain.Photo, error)

	// ListAll 按 (OwnerID, ID) 升序返回全部照片。
	ListAll(ctx context.Context) ([]domain.Photo, error)

	// CountByOwner 返回某用户的照片数。
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)

	// Delete 删除一条照片记录，不存在时返回 ErrPhotoNotFound。
	Delete(ctx context.Context, id uint) error

	// DeleteAll 清空照片集合。
	DeleteAll(ctx context.Context) error
}
