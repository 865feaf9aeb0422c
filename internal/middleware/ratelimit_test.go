package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(t *testing.T, maxRequests int, window time.Duration) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	router := gin.New()
	router.Use(RateLimit(client, "pg:", maxRequests, window))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return router, mr
}

func hit(router *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "192.0.2.1:4000"
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit_FixedWindow(t *testing.T) {
	router, mr := newLimitedRouter(t, 2, time.Second)
	key := "pg:ratelimit:192.0.2.1"

	w := hit(router)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, time.Second, mr.TTL(key))

	mr.FastForward(600 * time.Millisecond)
	assert.Equal(t, http.StatusNoContent, hit(router).Code)
	w = hit(router)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	// 后续请求不会延长窗口
	assert.Equal(t, 400*time.Millisecond, mr.TTL(key))

	mr.FastForward(500 * time.Millisecond)
	assert.False(t, mr.Exists(key))
	w = hit(router)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_RedisUnavailable(t *testing.T) {
	router, mr := newLimitedRouter(t, 2, time.Second)
	mr.Close()

	w := hit(router)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"storage"`)
}
