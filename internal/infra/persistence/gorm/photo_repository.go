package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AlanChernakoff/Photogame/internal/domain"
	"github.com/AlanChernakoff/Photogame/internal/repository"
)

// GormPhotoRepository 是 PhotoRepository 接口的 GORM 实现
type GormPhotoRepository struct {
	db *gorm.DB
}

// NewGormPhotoRepository 创建 GormPhotoRepository 实例
func NewGormPhotoRepository(db *gorm.DB) *GormPhotoRepository {
	if db == nil {
		panic("database connection cannot be nil for GormPhotoRepository")
	}
	return &GormPhotoRepository{db: db}
}

// CreateBatch 在一个事务内检查配额和槽位后整批插入。
// 先以 FOR UPDATE 锁住该用户的行和已有照片，同一用户的并发批次在数据库层串行；
// SQLite 不支持行锁，但单连接下事务本身就是串行的。
func (r *GormPhotoRepository) CreateBatch(ctx context.Context, ownerID uint, photos []*domain.Photo, quota int) error {
	if len(photos) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locking := clause.Locking{Strength: "UPDATE"}
		var owners []domain.User
		if err := tx.Clauses(locking).Select("id").Where("id = ?", ownerID).Limit(1).Find(&owners).Error; err != nil {
			return fmt.Errorf("gorm: lock owner %d: %w", ownerID, err)
		}
		var existing []domain.Photo
		if err := tx.Clauses(locking).Where("owner_id = ?", ownerID).Find(&existing).Error; err != nil {
			return fmt.Errorf("gorm: load photos of owner %d: %w", ownerID, err)
		}
		if len(existing)+len(photos) > quota {
			return repository.ErrQuotaExceeded
		}
		taken := make(map[domain.Tipo]bool, len(existing))
		for _, p := range existing {
			taken[p.Tipo] = true
		}
		for _, p := range photos {
			if taken[p.Tipo] {
				return repository.ErrSlotTaken
			}
			taken[p.Tipo] = true
		}
		// 逐条插入，保证 ID 按槽位顺序递增
		for _, p := range photos {
			p.OwnerID = ownerID
			if err := tx.Create(p).Error; err != nil {
				return fmt.Errorf("gorm: create photo (owner: %d, tipo: %s): %w", ownerID, p.Tipo, err)
			}
		}
		return nil
	})
}

// FindByID 根据 ID 查找照片
func (r *GormPhotoRepository) FindByID(ctx context.Context, id uint) (*domain.Photo, error) {
	var photo domain.Photo
	err := r.db.WithContext(ctx).First(&photo, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("gorm: find photo by id %d: %w", id, err)
	}
	return &photo, nil
}

// ListByOwner 按 ID 升序返回某用户的照片
func (r *GormPhotoRepository) ListByOwner(ctx context.Context, ownerID uint) ([]domain.Photo, error) {
	photos := []domain.Photo{}
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id ASC").Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list photos of owner %d: %w", ownerID, err)
	}
	return photos, nil
}

// ListAll 按 (owner_id, id) 升序返回全部照片
func (r *GormPhotoRepository) ListAll(ctx context.Context) ([]domain.Photo, error) {
	photos := []domain.Photo{}
	if err := r.db.WithContext(ctx).Order("owner_id ASC").Order("id ASC").Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("gorm: list photos: %w", err)
	}
	return photos, nil
}

// CountByOwner 只查询数量
func (r *GormPhotoRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Photo{}).Where("owner_id = ?", ownerID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count photos of owner %d: %w", ownerID, err)
	}
	return count, nil
}

// Delete 删除一条照片记录
func (r *GormPhotoRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Photo{}, id)
	if result.Error != nil {
		return fmt.Errorf("gorm: delete photo %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrPhotoNotFound
	}
	return nil
}

// DeleteAll 清空 photos 表
func (r *GormPhotoRepository) DeleteAll(ctx context.Context) error {
	// 不带条件的删除需要显式开启 AllowGlobalUpdate
	err := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.Photo{}).Error
	if err != nil {
		return fmt.Errorf("gorm: delete all photos: %w", err)
	}
	return nil
}
