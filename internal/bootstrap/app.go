package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "github.com/AlanChernakoff/Photogame/internal/handler/http"
	wsHandler "github.com/AlanChernakoff/Photogame/internal/handler/websocket"
	"github.com/AlanChernakoff/Photogame/internal/hub"
	"github.com/AlanChernakoff/Photogame/internal/infra/blob"
	"github.com/AlanChernakoff/Photogame/internal/infra/lock"
	gormpersistence "github.com/AlanChernakoff/Photogame/internal/infra/persistence/gorm"
	"github.com/AlanChernakoff/Photogame/internal/infra/persistence/jsonfile"
	"github.com/AlanChernakoff/Photogame/internal/infra/setup"
	"github.com/AlanChernakoff/Photogame/internal/middleware"
	"github.com/AlanChernakoff/Photogame/internal/repository"
	"github.com/AlanChernakoff/Photogame/internal/service"
)

// lockTTL Redis 锁的过期时间，远大于任何一次业务操作
const lockTTL = 10 * time.Second

// App 结构体包含应用的所有组件和配置
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Hub         *hub.Hub
	Router      *gin.Engine
	HttpServer  *http.Server
}

// repositories 是一组由同一个存储后端提供的仓库
type repositories struct {
	users  repository.UserRepository
	photos repository.PhotoRepository
	game   repository.GameRepository
}

// NewLogger 按配置创建 logrus Logger，并同步到全局 logger
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	// service 层使用全局 logrus
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(level)
	logrus.SetOutput(log.Out)
	return log
}

// NewApp 创建并初始化应用的所有组件
func NewApp(cfg *Config) (*App, error) {
	// 1. 初始化 Logger
	log := NewLogger(cfg)
	log.Infof("Logger initialized (Level: %s)", log.GetLevel())

	app := &App{Config: cfg, Log: log}

	// 2. 初始化记录存储
	repos, err := app.initRepositories()
	if err != nil {
		return nil, err
	}

	// 3. 初始化文件存储
	files, err := newBlobProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init blob storage: %w", err)
	}
	log.WithField("provider", cfg.BlobProvider).Info("Blob storage initialized")

	// 4. Redis 可选：配置了就使用分布式锁和限流
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.RedisAddr != "" {
		redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to init Redis: %w", err)
		}
		app.RedisClient = redisClient
		locker = lock.NewRedisLocker(redisClient, cfg.KeyPrefix, lockTTL)
		log.Info("Redis client initialized, using distributed locks")
	} else {
		log.Info("Redis not configured, using in-process locks")
	}

	// 5. 初始化 Hub 和 Services
	app.Hub = hub.NewHub()
	gate := service.NewGate(repos.users)
	authService := service.NewAuthService(repos.users, locker)
	photoService := service.NewPhotoService(gate, repos.photos, files, locker, cfg.UploadMaxBytes)
	gameService := service.NewGameService(gate, repos.photos, repos.game, files, locker, app.Hub)
	log.Info("Services initialized")

	// 6. 初始化 Gin Engine 和路由
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(newCORS(cfg.CORSAllowedOrigin))
	router.MaxMultipartMemory = 8 << 20

	handlers := Handlers{
		User:      httpHandler.NewUserHandler(authService),
		Photo:     httpHandler.NewPhotoHandler(photoService, cfg.UploadMaxBytes),
		Game:      httpHandler.NewGameHandler(gameService),
		WebSocket: wsHandler.NewWebSocketHandler(app.Hub, gate, cfg.CORSAllowedOrigin),
	}
	var limiter gin.HandlerFunc
	if app.RedisClient != nil {
		limiter = middleware.RateLimit(app.RedisClient, cfg.KeyPrefix, cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	RegisterRoutes(router, handlers, limiter)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	app.Router = router
	log.Info("Router setup complete")

	// 7. 初始化 HTTP Server
	app.HttpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info("Application assembled successfully")
	return app, nil
}

// initRepositories 按 store.backend 选择 JSON 文件或关系数据库
func (a *App) initRepositories() (*repositories, error) {
	cfg := a.Config
	switch cfg.StoreBackend {
	case StoreSQL:
		if cfg.DBDriver == setup.DriverSQLite {
			if err := os.MkdirAll(filepath.Dir(cfg.DBDSN), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite dir: %w", err)
			}
		}
		db, err := setup.InitDB(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to init DB: %w", err)
		}
		if err := setup.MigrateDB(db); err != nil {
			return nil, fmt.Errorf("failed to migrate DB: %w", err)
		}
		a.DB = db
		a.Log.WithField("driver", cfg.DBDriver).Info("Database initialized and migrated")
		return &repositories{
			users:  gormpersistence.NewGormUserRepository(db),
			photos: gormpersistence.NewGormPhotoRepository(db),
			game:   gormpersistence.NewGormGameRepository(db),
		}, nil
	default:
		store, err := jsonfile.Open(cfg.DataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open data file: %w", err)
		}
		a.Log.WithField("path", cfg.DataFile).Info("File store opened")
		return &repositories{
			users:  store.Users(),
			photos: store.Photos(),
			game:   store.Game(),
		}, nil
	}
}

func newBlobProvider(cfg *Config) (blob.Provider, error) {
	if cfg.BlobProvider == BlobS3 {
		return blob.NewS3Provider(cfg.S3)
	}
	return blob.NewLocalProvider(cfg.BlobDir)
}

func newCORS(allowedOrigin string) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if allowedOrigin == "" || allowedOrigin == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{allowedOrigin}
		corsCfg.AllowCredentials = true
	}
	return cors.New(corsCfg)
}

// Start 启动 Hub 和 HTTP 服务器
func (a *App) Start() {
	go a.Hub.Run()
	a.Log.Info("Hub routine started")

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown(ctx context.Context) {
	a.Log.Info("Shutting down application...")

	// 1. 先停止接受新请求
	if a.HttpServer != nil {
		if err := a.HttpServer.Shutdown(ctx); err != nil {
			a.Log.Errorf("Error shutting down HTTP server: %v", err)
		} else {
			a.Log.Info("HTTP server shut down gracefully.")
		}
	}

	// 2. 关闭所有 websocket 连接
	if a.Hub != nil {
		a.Hub.Stop()
	}

	// 3. 关闭 Redis 连接
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	// 4. 关闭数据库连接池
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Log.Errorf("Error closing database connection: %v", err)
			} else {
				a.Log.Info("Database connection closed.")
			}
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"caller_id":   middleware.CallerID(c),
		})

		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			entry.Error(errorMessage)
			return
		}
		switch {
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}
