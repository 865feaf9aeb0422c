package jsonfile

import (
	"context"
	"sort"
	"time"

	"github.com/AlanChernakoff/Photogame/internal/domain"
	"github.com/AlanChernakoff/Photogame/internal/repository"
)

// PhotoRepository 是 repository.PhotoRepository 的文件实现
type PhotoRepository struct {
	store *Store
}

// nextID 取现有照片和当前会话顺序中出现过的最大 ID 加一，
// 这样删除后再上传也不会复用仍被会话引用的 ID。调用方需持有 mu。
func (r *PhotoRepository) nextID() uint {
	var maxID uint
	for _, p := range r.store.doc.Photos {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	if g := r.store.doc.Game; g != nil {
		for _, id := range g.Order {
			if id > maxID {
				maxID = id
			}
		}
	}
	return maxID + 1
}

func (r *PhotoRepository) CreateBatch(_ context.Context, ownerID uint, photos []*domain.Photo, quota int) error {
	if len(photos) == 0 {
		return nil
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := map[domain.Tipo]bool{}
	existing := 0
	for _, p := range s.doc.Photos {
		if p.OwnerID == ownerID {
			existing++
			taken[p.Tipo] = true
		}
	}
	if existing+len(photos) > quota {
		return repository.ErrQuotaExceeded
	}
	for _, p := range photos {
		if taken[p.Tipo] {
			return repository.ErrSlotTaken
		}
		taken[p.Tipo] = true
	}

	before := len(s.doc.Photos)
	created := make([]domain.Photo, 0, len(photos))
	for _, p := range photos {
		c := *p
		c.ID = r.nextID()
		c.OwnerID = ownerID
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now()
		}
		s.doc.Photos = append(s.doc.Photos, c)
		created = append(created, c)
	}
	if err := s.flush(); err != nil {
		s.doc.Photos = s.doc.Photos[:before]
		return err
	}
	for i, p := range photos {
		*p = created[i]
	}
	return nil
}

func (r *PhotoRepository) FindByID(_ context.Context, id uint) (*domain.Photo, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.doc.Photos {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, repository.ErrPhotoNotFound
}

func (r *PhotoRepository) ListByOwner(_ context.Context, ownerID uint) ([]domain.Photo, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	photos := []domain.Photo{}
	for _, p := range s.doc.Photos {
		if p.OwnerID == ownerID {
			photos = append(photos, p)
		}
	}
	sort.Slice(photos, func(i, j int) bool { return photos[i].ID < photos[j].ID })
	return photos, nil
}

func (r *PhotoRepository) ListAll(_ context.Context) ([]domain.Photo, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	photos := make([]domain.Photo, len(s.doc.Photos))
	copy(photos, s.doc.Photos)
	sort.SliceStable(photos, func(i, j int) bool {
		if photos[i].OwnerID != photos[j].OwnerID {
			return photos[i].OwnerID < photos[j].OwnerID
		}
		return photos[i].ID < photos[j].ID
	})
	return photos, nil
}

func (r *PhotoRepository) CountByOwner(_ context.Context, ownerID uint) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, p := range s.doc.Photos {
		if p.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (r *PhotoRepository) Delete(_ context.Context, id uint) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.doc.Photos {
		if p.ID != id {
			continue
		}
		removed := s.doc.Photos
		s.doc.Photos = append(append([]domain.Photo{}, removed[:i]...), removed[i+1:]...)
		if err := s.flush(); err != nil {
			s.doc.Photos = removed
			return err
		}
		return nil
	}
	return repository.ErrPhotoNotFound
}

func (r *PhotoRepository) DeleteAll(_ context.Context) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.doc.Photos
	s.doc.Photos = []domain.Photo{}
	if err := s.flush(); err != nil {
		s.doc.Photos = removed
		return err
	}
	return nil
}
