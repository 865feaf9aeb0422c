package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/AlanChernakoff/Photogame/internal/service"
)

// UserHandler 处理用户注册、登录和查询
type UserHandler struct {
	authService *service.AuthService
}

// NewUserHandler 创建 UserHandler 实例
func NewUserHandler(authService *service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// CredentialsRequest 注册和登录共用的请求体
type CredentialsRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Register 处理用户注册请求，成功时返回新用户
func (h *UserHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Register: Invalid input format")
		HandleServiceError(c, service.ErrInvalidInput)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Color)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, user)
}

// Login 校验名字和 color，成功时返回用户
func (h *UserHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Login: Invalid input format")
		HandleServiceError(c, service.ErrInvalidInput)
		return
	}

	user, err := h.authService.Login(c.Request.Context(), req.Name, req.Color)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, user)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	user, err := h.authService.GetUser(c.Request.Context(), id)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, user)
}

func (h *UserHandler) FindByName(c *gin.Context) {
	user, err := h.authService.FindUserByName(c.Request.Context(), c.Query("name"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, user)
}

// parseID 解析路径中的正整数 ID
func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, service.ErrInvalidID
	}
	return uint(id), nil
}
