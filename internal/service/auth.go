package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/AlanChernakoff/Photogame/internal/domain"
	"github.com/AlanChernakoff/Photogame/internal/infra/lock"
	"github.com/AlanChernakoff/Photogame/internal/metrics"
	"github.com/AlanChernakoff/Photogame/internal/repository"
)

// registerLockKey 注册时的角色取决于全局用户数，所以锁的范围是整个用户集合
const registerLockKey = "users"

// AuthService 负责用户注册、登录和查询。
// color 是明文共享口令，登录时区分大小写地精确比较，不做哈希。
type AuthService struct {
	userRepo repository.UserRepository
	locker   lock.Locker
}

// NewAuthService 创建 AuthService 实例。
func NewAuthService(userRepo repository.UserRepository, locker lock.Locker) *AuthService {
	if userRepo == nil {
		panic("UserRepository cannot be nil for AuthService")
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &AuthService{userRepo: userRepo, locker: locker}
}

// Register 处理用户注册。第一个注册的用户成为 admin，之后都是 host。
func (s *AuthService) Register(ctx context.Context, name, color string) (*domain.User, error) {
	logCtx := logrus.WithField("name", name)

	// 1. 基本验证
	if strings.TrimSpace(name) == "" || color == "" {
		return nil, ErrNameRequired
	}

	unlock, err := s.locker.Lock(ctx, registerLockKey)
	if err != nil {
		logCtx.WithError(err).Error("Failed to acquire registration lock")
		return nil, ErrInternalServer
	}
	defer unlock()

	// 2. 名字唯一性检查（大小写不敏感）
	if _, err := s.userRepo.FindByNameCI(ctx, name); err == nil {
		logCtx.Warn("Registration failed: name already taken")
		return nil, ErrUserExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		logCtx.WithError(err).Error("Database error checking name uniqueness")
		return nil, ErrInternalServer
	}

	// 3. 角色只在创建时推导一次
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Database error counting users")
		return nil, ErrInternalServer
	}
	role := domain.RoleHost
	if count == 0 {
		role = domain.RoleAdmin
	}

	user := &domain.User{Name: name, Role: role, Color: color}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.WithError(err).Warn("Registration failed: name already taken (repo error)")
			return nil, ErrUserExists
		}
		logCtx.WithError(err).Error("Database error during user creation")
		return nil, ErrInternalServer
	}

	metrics.Registrations.WithLabelValues(string(user.Role)).Inc()
	logCtx.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered successfully")
	return user, nil
}

// Login 按名字查找用户并校验 color。
func (s *AuthService) Login(ctx context.Context, name, color string) (*domain.User, error) {
	logCtx := logrus.WithField("name", name)

	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}

	user, err := s.userRepo.FindByNameCI(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Login attempt failed: User not found")
			return nil, ErrUserNotFound
		}
		logCtx.WithError(err).Error("Login attempt failed: Error finding user")
		return nil, ErrInternalServer
	}

	if user.Color != color {
		logCtx.Warn("Login attempt failed: Invalid color")
		return nil, ErrInvalidCredential
	}

	logCtx.WithField("user_id", user.ID).Info("User logged in successfully")
	return user, nil
}

// ListUsers 按 ID 升序返回全部用户。
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list users")
		return nil, ErrInternalServer
	}
	return users, nil
}

// GetUser 根据 ID 查找用户。
func (s *AuthService) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	return findUser(ctx, s.userRepo, id)
}

// FindUserByName 大小写不敏感地按名字查找用户。
func (s *AuthService) FindUserByName(ctx context.Context, name string) (*domain.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}
	user, err := s.userRepo.FindByNameCI(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).WithField("name", name).Error("FindUserByName: Repository error")
		return nil, ErrInternalServer
	}
	return user, nil
}

// findUser 把仓库层的 not found 映射为业务错误
func findUser(ctx context.Context, repo repository.UserRepository, id uint) (*domain.User, error) {
	user, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).WithField("user_id", id).Error("FindByID: Repository error")
		return nil, ErrInternalServer
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
