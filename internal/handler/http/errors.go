package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/AlanChernakoff/Photogame/internal/service"
)

// statusByKind 错误分类到 HTTP 状态码的映射
var statusByKind = map[service.Kind]int{
	service.KindValidation:    http.StatusBadRequest,
	service.KindQuotaExceeded: http.StatusBadRequest,
	service.KindConflict:      http.StatusConflict,
	service.KindNotFound:      http.StatusNotFound,
	service.KindForbidden:     http.StatusForbidden,
	service.KindGone:          http.StatusGone,
	service.KindStorage:       http.StatusInternalServerError,
}

// HandleServiceError 把 service 层错误写成 {"error", "kind"} 响应
func HandleServiceError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	var svcErr *service.Error
	message := err.Error()
	if !errors.As(err, &svcErr) {
		// 非业务错误不把内部细节暴露给客户端
		logrus.WithError(err).Error("Unhandled internal server error")
		message = "An unexpected error occurred"
	}
	ErrorResponse(c, status, kind, message)
}
