package service

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AlanChernakoff/Photogame/internal/domain"
	"github.com/AlanChernakoff/Photogame/internal/infra/blob"
	"github.com/AlanChernakoff/Photogame/internal/infra/lock"
	"github.com/AlanChernakoff/Photogame/internal/metrics"
	"github.com/AlanChernakoff/Photogame/internal/repository"
)

// gameLockKey 会话是全局唯一的，所有读-改-写都在这把锁下完成
const gameLockKey = "game"

// GameOverMessage 揭晓结束后 next 返回的提示
const GameOverMessage = "Game Over"

// 游戏事件类型
const (
	EventGameStarted  = "game_started"
	EventPhotoReveal  = "photo_revealed"
	EventGameFinished = "game_finished"
)

// GameEvent 是推送给观众端的游戏进度。
type GameEvent struct {
	Type      string            `json:"type"`
	Status    domain.GameStatus `json:"status"`
	Index     int               `json:"index"`
	Total     int               `json:"total"`
	PhotoID   uint              `json:"photoId,omitempty"`
	Remaining int               `json:"remaining"`
}

// GameNotifier 接收游戏事件，实现方不能阻塞。
type GameNotifier interface {
	Publish(event GameEvent)
}

type noopNotifier struct{}

func (noopNotifier) Publish(GameEvent) {}

// NextResult 是一次揭晓的结果。Done 为 true 时 PhotoID 无意义。
type NextResult struct {
	Done      bool
	PhotoID   uint
	Remaining int
}

// StatusResult 是会话的只读快照。
type StatusResult struct {
	Status domain.GameStatus `json:"status"`
	Index  int               `json:"index"`
	Total  int               `json:"total"`
}

// ImageStream 是正在揭晓的照片内容，调用方负责关闭 Body。
type ImageStream struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// GameService 管理全局唯一的游戏会话：开始、逐张揭晓、查询状态。
type GameService struct {
	gate      *Gate
	photoRepo repository.PhotoRepository
	gameRepo  repository.GameRepository
	store     blob.Provider
	locker    lock.Locker
	notifier  GameNotifier
	intn      func(n int) int
	now       func() time.Time
}

// NewGameService 创建 GameService 实例。notifier 可以为 nil。
func NewGameService(gate *Gate, photoRepo repository.PhotoRepository, gameRepo repository.GameRepository, store blob.Provider, locker lock.Locker, notifier GameNotifier) *GameService {
	if gate == nil || photoRepo == nil || gameRepo == nil || store == nil {
		panic("Gate, repositories and blob.Provider cannot be nil for GameService")
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &GameService{
		gate:      gate,
		photoRepo: photoRepo,
		gameRepo:  gameRepo,
		store:     store,
		locker:    locker,
		notifier:  notifier,
		intn:      rand.Intn,
		now:       time.Now,
	}
}

// shuffle 原地 Fisher–Yates：i 从末尾递减到 1，j 在 [0, i] 上均匀取值
func (s *GameService) shuffle(ids []uint) {
	for i := len(ids) - 1; i > 0; i-- {
		j := s.intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// Start 用当前全部照片的一个随机排列开始新一轮游戏，返回照片总数。
// 任何状态下都可以调用，之前的进度会被直接覆盖。
func (s *GameService) Start(ctx context.Context, callerID uint) (int, error) {
	if _, err := s.gate.RequireAdmin(ctx, callerID); err != nil {
		return 0, err
	}
	logCtx := logrus.WithField("user_id", callerID)

	unlock, err := s.locker.Lock(ctx, gameLockKey)
	if err != nil {
		logCtx.WithError(err).Error("Failed to acquire game lock")
		return 0, ErrInternalServer
	}
	defer unlock()

	photos, err := s.photoRepo.ListAll(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Failed to list photos for game start")
		return 0, ErrInternalServer
	}
	order := make([]uint, len(photos))
	for i, p := range photos {
		order[i] = p.ID
	}
	s.shuffle(order)

	startedAt := s.now()
	game := &domain.GameSession{
		ID:        domain.GameSessionID,
		Status:    domain.GameRunning,
		Order:     order,
		Index:     0,
		StartedAt: &startedAt,
	}
	if err := s.gameRepo.Save(ctx, game); err != nil {
		logCtx.WithError(err).Error("Failed to save game session")
		return 0, ErrInternalServer
	}

	metrics.GamesStarted.Inc()
	s.notifier.Publish(GameEvent{
		Type:      EventGameStarted,
		Status:    game.Status,
		Total:     game.Total(),
		Remaining: game.Total(),
	})
	logCtx.WithField("total", game.Total()).Info("Game started")
	return game.Total(), nil
}

// Next 揭晓下一张照片。最后一张揭晓后会话仍是 running，管理员还能打开这张图片；
// 下一次调用发现 index 已到末尾才进入 finished。非 running 状态返回 Done 且不修改会话。
func (s *GameService) Next(ctx context.Context, callerID uint) (*NextResult, error) {
	if _, err := s.gate.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	logCtx := logrus.WithField("user_id", callerID)

	unlock, err := s.locker.Lock(ctx, gameLockKey)
	if err != nil {
		logCtx.WithError(err).Error("Failed to acquire game lock")
		return nil, ErrInternalServer
	}
	defer unlock()

	game, err := s.gameRepo.Get(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Failed to load game session")
		return nil, ErrInternalServer
	}

	if game.Status != domain.GameRunning {
		return &NextResult{Done: true}, nil
	}

	if game.Index >= game.Total() {
		finishedAt := s.now()
		game.Status = domain.GameFinished
		game.FinishedAt = &finishedAt
		if err := s.gameRepo.Save(ctx, game); err != nil {
			logCtx.WithError(err).Error("Failed to finish game session")
			return nil, ErrInternalServer
		}
		s.notifier.Publish(GameEvent{
			Type:   EventGameFinished,
			Status: game.Status,
			Index:  game.Index,
			Total:  game.Total(),
		})
		logCtx.Info("Game finished")
		return &NextResult{Done: true}, nil
	}

	photoID := game.Order[game.Index]
	game.Index++
	if err := s.gameRepo.Save(ctx, game); err != nil {
		logCtx.WithError(err).Error("Failed to advance game session")
		return nil, ErrInternalServer
	}

	remaining := game.Total() - game.Index
	metrics.PhotosRevealed.Inc()
	s.notifier.Publish(GameEvent{
		Type:      EventPhotoReveal,
		Status:    game.Status,
		Index:     game.Index,
		Total:     game.Total(),
		PhotoID:   photoID,
		Remaining: remaining,
	})
	logCtx.WithFields(logrus.Fields{"photo_id": photoID, "remaining": remaining}).Debug("Photo revealed")
	return &NextResult{PhotoID: photoID, Remaining: remaining}, nil
}

// Status 返回会话状态，不做修改。
func (s *GameService) Status(ctx context.Context, callerID uint) (*StatusResult, error) {
	if _, err := s.gate.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	game, err := s.gameRepo.Get(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to load game session")
		return nil, ErrInternalServer
	}
	return &StatusResult{Status: game.Status, Index: game.Index, Total: game.Total()}, nil
}

// OpenImage 在游戏进行中把照片内容交给 admin 展示。
func (s *GameService) OpenImage(ctx context.Context, callerID, photoID uint) (*ImageStream, error) {
	if _, err := s.gate.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	game, err := s.gameRepo.Get(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to load game session")
		return nil, ErrInternalServer
	}
	if game.Status != domain.GameRunning {
		return nil, ErrGameNotRunning
	}

	photo, err := s.photoRepo.FindByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			// 开局后被删除的照片仍在顺序里，与从未存在的 id 区分开
			if slices.Contains(game.Order, photoID) {
				return nil, ErrPhotoRemoved
			}
			return nil, ErrPhotoNotFound
		}
		logrus.WithError(err).WithField("photo_id", photoID).Error("Failed to find photo")
		return nil, ErrInternalServer
	}

	obj, err := s.store.Get(ctx, photo.Filename)
	if err != nil {
		if errors.Is(err, blob.ErrNotExist) {
			logrus.WithField("photo_id", photoID).Warn("Photo record exists but file is missing")
			return nil, ErrFileMissing
		}
		logrus.WithError(err).WithField("photo_id", photoID).Error("Failed to open photo file")
		return nil, ErrInternalServer
	}

	contentType := photo.Mime
	if contentType == "" {
		contentType = obj.ContentType
	}
	return &ImageStream{Body: obj.Body, ContentType: contentType, Size: obj.ContentLength}, nil
}
