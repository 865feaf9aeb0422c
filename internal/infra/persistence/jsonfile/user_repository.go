package jsonfile

import (
	"context"
	"time"

	"github.com/AlanChernakoff/Photogame/internal/domain"
	"github.com/AlanChernakoff/Photogame/internal/repository"
)

// UserRepository 是 repository.UserRepository 的文件实现
type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NameKeyOf(user.Name)
	var lastID uint
	for _, u := range s.doc.Users {
		if u.NameKey == key {
			return repository.ErrDuplicateEntry
		}
		if u.ID > lastID {
			lastID = u.ID
		}
	}

	created := *user
	created.ID = lastID + 1
	created.NameKey = key
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	s.doc.Users = append(s.doc.Users, created)
	if err := s.flush(); err != nil {
		s.doc.Users = s.doc.Users[:len(s.doc.Users)-1]
		return err
	}
	*user = created
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id uint) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.doc.Users {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *UserRepository) FindByNameCI(_ context.Context, name string) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domain.NameKeyOf(name)
	for _, u := range s.doc.Users {
		if u.NameKey == key {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *UserRepository) Count(_ context.Context) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.doc.Users)), nil
}

// List 用户按追加顺序存放，ID 单调递增，因此已经有序
func (r *UserRepository) List(_ context.Context) ([]domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]domain.User, len(s.doc.Users))
	copy(users, s.doc.Users)
	return users, nil
}
