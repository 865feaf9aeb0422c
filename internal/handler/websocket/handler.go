package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	httphandler "github.com/AlanChernakoff/Photogame/internal/handler/http"
	"github.com/AlanChernakoff/Photogame/internal/hub"
	"github.com/AlanChernakoff/Photogame/internal/middleware"
	"github.com/AlanChernakoff/Photogame/internal/service"
)

// WebSocketHandler 负责把已注册用户的连接升级为游戏事件订阅
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
	gate     *service.Gate
}

// NewWebSocketHandler 创建 WebSocketHandler 实例。
// allowedOrigin 为空或 "*" 时接受任意来源。
func NewWebSocketHandler(h *hub.Hub, gate *service.Gate, allowedOrigin string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if gate == nil {
		panic("Gate cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  512,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == allowedOrigin
		},
	}
	return &WebSocketHandler{upgrader: upgrader, hub: h, gate: gate}
}

// HandleConnection 处理 /ws/game 连接请求
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	callerID := middleware.CallerID(c)
	logCtx := logrus.WithField("user_id", callerID)

	// 升级之前还可以返回普通的 HTTP 错误
	user, err := h.gate.ResolveCaller(c.Request.Context(), callerID)
	if err != nil {
		httphandler.HandleServiceError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写了错误响应
		logCtx.WithError(err).Warn("WS Handler: Failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn, user.ID)
	if !h.hub.QueueMessage(hub.HubMessage{Type: "register", Client: client}) {
		logCtx.Error("WS Handler: failed to register client")
		client.CloseConn()
		return
	}
	client.Run()
	logCtx.Info("WS Handler: Client connected")
}
