package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/AlanChernakoff/Photogame/internal/middleware"
	"github.com/AlanChernakoff/Photogame/internal/service"
)

// GameHandler 处理游戏会话的开始、揭晓、状态和图片读取
type GameHandler struct {
	gameService *service.GameService
}

// NewGameHandler 创建 GameHandler 实例
func NewGameHandler(gameService *service.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

func (h *GameHandler) Start(c *gin.Context) {
	total, err := h.gameService.Start(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"ok": true, "total": total})
}

// Next 返回 {done:false, photoId, remaining} 或 {done:true, message}
func (h *GameHandler) Next(c *gin.Context) {
	res, err := h.gameService.Next(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if res.Done {
		SuccessResponse(c, http.StatusOK, gin.H{"done": true, "message": service.GameOverMessage})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"done": false, "photoId": res.PhotoID, "remaining": res.Remaining})
}

func (h *GameHandler) Status(c *gin.Context) {
	status, err := h.gameService.Status(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, status)
}

// Image 把正在揭晓的照片原样输出
func (h *GameHandler) Image(c *gin.Context) {
	photoID, err := parseID(c.Param("photoId"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	img, err := h.gameService.OpenImage(c.Request.Context(), middleware.CallerID(c), photoID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	defer func() {
		if err := img.Body.Close(); err != nil {
			logrus.WithError(err).WithField("photo_id", photoID).Warn("Handler.Image: failed to close file")
		}
	}()
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, img.Size, img.ContentType, img.Body, nil)
}
