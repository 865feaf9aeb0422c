package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // 注册 png 解码器
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp" // 注册 webp 解码器

	"github.com/AlanChernakoff/Photogame/internal/domain"
	"github.com/AlanChernakoff/Photogame/internal/infra/blob"
	"github.com/AlanChernakoff/Photogame/internal/infra/lock"
	"github.com/AlanChernakoff/Photogame/internal/metrics"
	"github.com/AlanChernakoff/Photogame/internal/repository"
)

const (
	// DefaultMaxUploadBytes 单个文件的大小上限
	DefaultMaxUploadBytes int64 = 15 * 1024 * 1024
	thumbnailSize        uint  = 300
)

var (
	ErrUnsupportedType = newError(KindValidation, "only jpg/png/webp allowed")
	ErrFileTooLarge    = newError(KindValidation, "file too large")
)

// allowedTypes 允许上传的媒体类型及其默认扩展名
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadFile 是一个槽位里提交的文件。Body 由调用方负责关闭。
type UploadFile struct {
	OriginalName string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// PhotoService 负责照片的准入控制、查询和删除。
type PhotoService struct {
	gate      *Gate
	photoRepo repository.PhotoRepository
	store     blob.Provider
	locker    lock.Locker
	maxBytes  int64
	newName   func(ext string) string
}

// NewPhotoService 创建 PhotoService 实例。maxBytes <= 0 时使用默认值。
func NewPhotoService(gate *Gate, photoRepo repository.PhotoRepository, store blob.Provider, locker lock.Locker, maxBytes int64) *PhotoService {
	if gate == nil || photoRepo == nil || store == nil {
		panic("Gate, PhotoRepository and blob.Provider cannot be nil for PhotoService")
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &PhotoService{
		gate:      gate,
		photoRepo: photoRepo,
		store:     store,
		locker:    locker,
		maxBytes:  maxBytes,
		newName:   newPhotoFilename,
	}
}

// newPhotoFilename 生成与客户端输入无关的文件名
func newPhotoFilename(ext string) string {
	return "photo_" + strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}

func ownerLockKey(ownerID uint) string {
	return fmt.Sprintf("owner:%d", ownerID)
}

// ResolveUploader 解析上传者。传输层在读取请求体之前调用，保证未知用户先得到 NotFound。
func (s *PhotoService) ResolveUploader(ctx context.Context, callerID uint) (*domain.User, error) {
	return s.gate.ResolveCaller(ctx, callerID)
}

// Upload 按整批语义接收照片：配额或槽位检查失败时整批拒绝，不写任何记录。
// 返回被接受的槽位，顺序与 domain.Tipos() 一致。
func (s *PhotoService) Upload(ctx context.Context, callerID uint, slots map[domain.Tipo]UploadFile) ([]domain.Tipo, error) {
	logCtx := logrus.WithField("user_id", callerID)

	// 1. 解析调用者
	user, err := s.gate.ResolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	// 2. 输入校验
	if len(slots) == 0 {
		metrics.UploadsRejected.WithLabelValues("no_files").Inc()
		return nil, ErrNoFiles
	}
	for tipo, f := range slots {
		if !tipo.Valid() {
			metrics.UploadsRejected.WithLabelValues("invalid_tipo").Inc()
			return nil, ErrInvalidTipo
		}
		if _, ok := allowedTypes[f.ContentType]; !ok {
			metrics.UploadsRejected.WithLabelValues("unsupported_type").Inc()
			return nil, ErrUnsupportedType
		}
		if f.Size > s.maxBytes {
			metrics.UploadsRejected.WithLabelValues("too_large").Inc()
			return nil, ErrFileTooLarge
		}
		if f.Body == nil || f.Size == 0 {
			return nil, ErrEmptyFile
		}
	}

	// 3. 同一用户的上传串行执行
	unlock, err := s.locker.Lock(ctx, ownerLockKey(user.ID))
	if err != nil {
		logCtx.WithError(err).Error("Failed to acquire owner lock")
		return nil, ErrInternalServer
	}
	defer unlock()

	count, err := s.photoRepo.CountByOwner(ctx, user.ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to count existing photos")
		return nil, ErrInternalServer
	}
	if int(count)+len(slots) > domain.MaxPhotosPerOwner {
		metrics.UploadsRejected.WithLabelValues("quota").Inc()
		logCtx.WithFields(logrus.Fields{"existing": count, "submitted": len(slots)}).Warn("Upload rejected: quota exceeded")
		return nil, ErrQuotaExceeded
	}
	existing, err := s.photoRepo.ListByOwner(ctx, user.ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to load existing photos")
		return nil, ErrInternalServer
	}
	for _, p := range existing {
		if _, ok := slots[p.Tipo]; ok {
			metrics.UploadsRejected.WithLabelValues("slot_taken").Inc()
			logCtx.WithField("tipo", p.Tipo).Warn("Upload rejected: slot already used")
			return nil, ErrSlotTaken
		}
	}

	// 4. 按固定顺序写文件，再一次性写记录
	var (
		photos  []*domain.Photo
		written []string
	)
	for _, tipo := range domain.Tipos() {
		f, ok := slots[tipo]
		if !ok {
			continue
		}
		filename := s.newName(extensionFor(f.OriginalName, f.ContentType))
		if err := s.store.Put(ctx, filename, io.LimitReader(f.Body, s.maxBytes), f.ContentType); err != nil {
			logCtx.WithError(err).WithField("tipo", tipo).Error("Failed to store uploaded file")
			s.removeFiles(ctx, written)
			return nil, ErrInternalServer
		}
		written = append(written, filename)
		photos = append(photos, &domain.Photo{
			OwnerID:  user.ID,
			Tipo:     tipo,
			Filename: filename,
			Mime:     f.ContentType,
			Size:     f.Size,
		})
	}

	if err := s.photoRepo.CreateBatch(ctx, user.ID, photos, domain.MaxPhotosPerOwner); err != nil {
		s.removeFiles(ctx, written)
		switch {
		case errors.Is(err, repository.ErrQuotaExceeded):
			metrics.UploadsRejected.WithLabelValues("quota").Inc()
			return nil, ErrQuotaExceeded
		case errors.Is(err, repository.ErrSlotTaken):
			metrics.UploadsRejected.WithLabelValues("slot_taken").Inc()
			return nil, ErrSlotTaken
		}
		logCtx.WithError(err).Error("Failed to save photo records")
		return nil, ErrInternalServer
	}

	accepted := make([]domain.Tipo, 0, len(photos))
	for _, p := range photos {
		accepted = append(accepted, p.Tipo)
		metrics.PhotosUploaded.WithLabelValues(string(p.Tipo)).Inc()
	}
	logCtx.WithField("accepted", accepted).Info("Photos uploaded successfully")
	return accepted, nil
}

// ListOwnPhotos 返回调用者自己的照片
func (s *PhotoService) ListOwnPhotos(ctx context.Context, callerID uint) ([]domain.Photo, error) {
	user, err := s.gate.ResolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	photos, err := s.photoRepo.ListByOwner(ctx, user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to list own photos")
		return nil, ErrInternalServer
	}
	return photos, nil
}

// ListAllPhotos 返回全部照片，按 (ownerId, id) 排序。会暴露归属关系，仅限 admin。
func (s *PhotoService) ListAllPhotos(ctx context.Context, callerID uint) ([]domain.Photo, error) {
	if _, err := s.gate.RequireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	photos, err := s.photoRepo.ListAll(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list all photos")
		return nil, ErrInternalServer
	}
	return photos, nil
}

// loadOwnedPhoto 解析调用者和照片，并检查调用者是 admin 或照片主人
func (s *PhotoService) loadOwnedPhoto(ctx context.Context, callerID, photoID uint) (*domain.Photo, error) {
	user, err := s.gate.ResolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	photo, err := s.photoRepo.FindByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return nil, ErrPhotoNotFound
		}
		logrus.WithError(err).WithField("photo_id", photoID).Error("Failed to find photo")
		return nil, ErrInternalServer
	}
	if !user.IsAdmin() && photo.OwnerID != user.ID {
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "photo_id": photoID}).Warn("Photo access denied")
		return nil, ErrNotPhotoOwner
	}
	return photo, nil
}

// Delete 删除一张照片：先删记录，再尽力删除文件，文件删除失败只记日志。
func (s *PhotoService) Delete(ctx context.Context, callerID, photoID uint) error {
	photo, err := s.loadOwnedPhoto(ctx, callerID, photoID)
	if err != nil {
		return err
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": callerID, "photo_id": photoID})

	unlock, err := s.locker.Lock(ctx, ownerLockKey(photo.OwnerID))
	if err != nil {
		logCtx.WithError(err).Error("Failed to acquire owner lock")
		return ErrInternalServer
	}
	defer unlock()

	if err := s.photoRepo.Delete(ctx, photo.ID); err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return ErrPhotoNotFound
		}
		logCtx.WithError(err).Error("Failed to delete photo record")
		return ErrInternalServer
	}
	metrics.PhotosDeleted.Inc()

	if err := s.store.Delete(ctx, photo.Filename); err != nil && !errors.Is(err, blob.ErrNotExist) {
		logCtx.WithError(err).WithField("filename", photo.Filename).Warn("Failed to delete photo file")
	}
	logCtx.Info("Photo deleted")
	return nil
}

// DeleteAll 尽力删除所有文件（单个失败不中断），然后清空照片集合。
func (s *PhotoService) DeleteAll(ctx context.Context, callerID uint) (int, error) {
	if _, err := s.gate.RequireAdmin(ctx, callerID); err != nil {
		return 0, err
	}
	photos, err := s.photoRepo.ListAll(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list photos for bulk delete")
		return 0, ErrInternalServer
	}
	for _, p := range photos {
		if err := s.store.Delete(ctx, p.Filename); err != nil && !errors.Is(err, blob.ErrNotExist) {
			logrus.WithError(err).WithField("filename", p.Filename).Warn("Failed to delete photo file")
		}
	}
	if err := s.photoRepo.DeleteAll(ctx); err != nil {
		logrus.WithError(err).Error("Failed to clear photo collection")
		return 0, ErrInternalServer
	}
	metrics.PhotosDeleted.Add(float64(len(photos)))
	logrus.WithFields(logrus.Fields{"user_id": callerID, "count": len(photos)}).Info("All photos deleted")
	return len(photos), nil
}

// Thumbnail 返回照片的 JPEG 缩略图，只有主人和 admin 可以查看。
func (s *PhotoService) Thumbnail(ctx context.Context, callerID, photoID uint) ([]byte, error) {
	photo, err := s.loadOwnedPhoto(ctx, callerID, photoID)
	if err != nil {
		return nil, err
	}
	obj, err := s.store.Get(ctx, photo.Filename)
	if err != nil {
		if errors.Is(err, blob.ErrNotExist) {
			return nil, ErrFileMissing
		}
		logrus.WithError(err).WithField("photo_id", photoID).Error("Failed to open photo file")
		return nil, ErrInternalServer
	}
	defer obj.Body.Close()

	img, _, err := image.Decode(obj.Body)
	if err != nil {
		logrus.WithError(err).WithField("photo_id", photoID).Warn("Failed to decode photo")
		return nil, ErrInvalidImage
	}
	thumb := resize.Thumbnail(thumbnailSize, thumbnailSize, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		logrus.WithError(err).WithField("photo_id", photoID).Error("Failed to encode thumbnail")
		return nil, ErrInternalServer
	}
	return buf.Bytes(), nil
}

// removeFiles 清理已经写入但未落记录的文件
func (s *PhotoService) removeFiles(ctx context.Context, filenames []string) {
	for _, name := range filenames {
		if err := s.store.Delete(ctx, name); err != nil && !errors.Is(err, blob.ErrNotExist) {
			logrus.WithError(err).WithField("filename", name).Warn("Failed to remove staged file")
		}
	}
}

// extensionFor 优先使用客户端文件名的扩展名（仅限允许的类型），否则按媒体类型推断
func extensionFor(originalName, contentType string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return ext
	}
	if def, ok := allowedTypes[contentType]; ok {
		return def
	}
	return ".jpg"
}
