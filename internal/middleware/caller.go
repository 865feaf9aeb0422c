package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CallerKey 是调用者 ID 在 gin.Context 中的键
const CallerKey = "caller_id"

// Caller 从 userId 查询参数解析调用者 ID。
// 缺失或不是正整数时记为 0，由 service 层返回 validation 错误。
func Caller() gin.HandlerFunc {
	return func(c *gin.Context) {
		var callerID uint
		if raw := c.Query("userId"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				logrus.WithField("userId", raw).Debug("Caller middleware: invalid userId")
			} else {
				callerID = uint(id)
			}
		}
		c.Set(CallerKey, callerID)
		c.Next()
	}
}

// CallerID 返回 Caller 中间件解析出的调用者 ID
func CallerID(c *gin.Context) uint {
	if v, ok := c.Get(CallerKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
