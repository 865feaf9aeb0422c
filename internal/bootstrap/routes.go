package bootstrap

import (
	"github.com/gin-gonic/gin"

	httpHandler "github.com/AlanChernakoff/Photogame/internal/handler/http"
	wsHandler "github.com/AlanChernakoff/Photogame/internal/handler/websocket"
	"github.com/AlanChernakoff/Photogame/internal/middleware"
)

// Handlers 是路由需要的全部处理器
type Handlers struct {
	User      *httpHandler.UserHandler
	Photo     *httpHandler.PhotoHandler
	Game      *httpHandler.GameHandler
	WebSocket *wsHandler.WebSocketHandler
}

// RegisterRoutes 注册所有路由。limiter 为 nil 时不限流。
func RegisterRoutes(router *gin.Engine, h Handlers, limiter gin.HandlerFunc) {
	router.GET("/health", httpHandler.Health)

	api := router.Group("/api")
	if limiter != nil {
		api.Use(limiter)
	}
	api.Use(middleware.Caller())

	users := api.Group("/users")
	{
		users.POST("/register", h.User.Register)
		users.POST("/login", h.User.Login)
		users.GET("", h.User.List)
		users.GET("/by-name", h.User.FindByName)
		users.GET("/:id", h.User.Get)
	}

	api.POST("/upload", h.Photo.Upload)
	photos := api.Group("/photos")
	{
		photos.GET("", h.Photo.ListAll)
		photos.DELETE("", h.Photo.DeleteAll)
		photos.GET("/mine", h.Photo.ListMine)
		photos.GET("/:photoId/thumbnail", h.Photo.Thumbnail)
		photos.DELETE("/:photoId", h.Photo.Delete)
	}

	game := api.Group("/game")
	{
		game.POST("/start", h.Game.Start)
		game.GET("/next", h.Game.Next)
		game.GET("/status", h.Game.Status)
	}
	api.GET("/image/:photoId", h.Game.Image)

	ws := router.Group("/ws")
	ws.Use(middleware.Caller())
	{
		ws.GET("/game", h.WebSocket.HandleConnection)
	}
}
