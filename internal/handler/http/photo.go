package http

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/AlanChernakoff/Photogame/internal/domain"
	"github.com/AlanChernakoff/Photogame/internal/middleware"
	"github.com/AlanChernakoff/Photogame/internal/service"
)

// 一次请求最多两个文件，再留一点给 multipart 头部
const multipartOverhead = 1 << 20

// PhotoHandler 处理照片上传、查询和删除
type PhotoHandler struct {
	photoService *service.PhotoService
	maxBytes     int64
}

// NewPhotoHandler 创建 PhotoHandler 实例。maxBytes 是单个文件的大小上限。
func NewPhotoHandler(photoService *service.PhotoService, maxBytes int64) *PhotoHandler {
	if maxBytes <= 0 {
		maxBytes = service.DefaultMaxUploadBytes
	}
	return &PhotoHandler{photoService: photoService, maxBytes: maxBytes}
}

// Upload 接收 multipart 表单，字段名即槽位名（chico / vergonzosa），每个槽位一个文件
func (h *PhotoHandler) Upload(c *gin.Context) {
	callerID := middleware.CallerID(c)
	logCtx := logrus.WithField("user_id", callerID)

	// 调用者先于表单解析，未知用户不会因为表单问题得到 400
	if _, err := h.photoService.ResolveUploader(c.Request.Context(), callerID); err != nil {
		HandleServiceError(c, err)
		return
	}

	limit := int64(domain.MaxPhotosPerOwner)*h.maxBytes + multipartOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			HandleServiceError(c, service.ErrFileTooLarge)
			return
		}
		logCtx.WithError(err).Debug("Handler.Upload: no multipart form")
		HandleServiceError(c, service.ErrNoFiles)
		return
	}
	// 被拒绝的批次不能在临时目录里留下文件
	defer func() {
		if err := form.RemoveAll(); err != nil {
			logCtx.WithError(err).Warn("Handler.Upload: failed to remove staged files")
		}
	}()

	slots := make(map[domain.Tipo]service.UploadFile, len(form.File))
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for field, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		tipo := domain.Tipo(field)
		if !tipo.Valid() || len(headers) > 1 {
			HandleServiceError(c, service.ErrInvalidTipo)
			return
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			logCtx.WithError(err).Error("Handler.Upload: failed to open staged file")
			HandleServiceError(c, service.ErrInternalServer)
			return
		}
		opened = append(opened, f)
		slots[tipo] = service.UploadFile{
			OriginalName: fh.Filename,
			ContentType:  fh.Header.Get("Content-Type"),
			Size:         fh.Size,
			Body:         f,
		}
	}

	accepted, err := h.photoService.Upload(c.Request.Context(), callerID, slots)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"ok": true, "added": len(accepted), "accepted": accepted})
}

func (h *PhotoHandler) ListMine(c *gin.Context) {
	photos, err := h.photoService.ListOwnPhotos(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, photos)
}

func (h *PhotoHandler) ListAll(c *gin.Context) {
	photos, err := h.photoService.ListAllPhotos(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, photos)
}

func (h *PhotoHandler) Delete(c *gin.Context) {
	photoID, err := parseID(c.Param("photoId"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if err := h.photoService.Delete(c.Request.Context(), middleware.CallerID(c), photoID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"ok": true, "deletedId": photoID})
}

func (h *PhotoHandler) DeleteAll(c *gin.Context) {
	count, err := h.photoService.DeleteAll(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"ok": true, "deleted": count, "message": "all photos deleted"})
}

func (h *PhotoHandler) Thumbnail(c *gin.Context) {
	photoID, err := parseID(c.Param("photoId"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	data, err := h.photoService.Thumbnail(c.Request.Context(), middleware.CallerID(c), photoID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=60")
	c.Data(http.StatusOK, "image/jpeg", data)
}
