package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/AlanChernakoff/Photogame/internal/infra/blob"
	"github.com/AlanChernakoff/Photogame/internal/infra/setup"
	"github.com/AlanChernakoff/Photogame/internal/service"
)

// 存储后端
const (
	StoreFile = "file"
	StoreSQL  = "sql"
)

// 文件存储方式
const (
	BlobLocal = "local"
	BlobS3    = "s3"
)

// EnvPrefix 环境变量前缀，例如 PHOTOGAME_SERVER_PORT
const EnvPrefix = "PHOTOGAME"

// Config 结构体用于存储从 flag、环境变量或配置文件加载的配置
type Config struct {
	ServerPort int
	Bind       string
	AppEnv     string
	LogLevel   string

	StoreBackend string
	DataFile     string
	DBDriver     string
	DBDSN        string

	BlobProvider string
	BlobDir      string
	S3           blob.S3Config

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string

	RateLimitMax    int
	RateLimitWindow time.Duration
	UploadMaxBytes  int64

	CORSAllowedOrigin string
}

// flagKeys flag 名到 viper 键的映射
var flagKeys = map[string]string{
	"port":          "server.port",
	"bind":          "server.bind",
	"env":           "app.env",
	"log-level":     "log.level",
	"store":         "store.backend",
	"data-file":     "store.data_file",
	"db-driver":     "db.driver",
	"db-dsn":        "db.dsn",
	"blob":          "blob.provider",
	"blob-dir":      "blob.dir",
	"redis-addr":    "redis.addr",
	"config":        "config",
	"cors-origin": "cors.allowed_origin",
}

// NewViper 返回设置好默认值和环境变量规则的 viper 实例
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 4000)
	v.SetDefault("server.bind", "0.0.0.0")
	v.SetDefault("app.env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("store.backend", StoreFile)
	v.SetDefault("store.data_file", ".hidden_uploads/data.json")
	v.SetDefault("db.driver", setup.DriverSQLite)
	v.SetDefault("db.dsn", ".hidden_uploads/photogame.db")
	v.SetDefault("blob.provider", BlobLocal)
	v.SetDefault("blob.dir", ".hidden_uploads")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.prefix", "photos/")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "pg:")
	v.SetDefault("ratelimit.max", 100)
	v.SetDefault("ratelimit.window", time.Second)
	v.SetDefault("upload.max_bytes", service.DefaultMaxUploadBytes)
	v.SetDefault("cors.allowed_origin", "*")
	return v
}

// BindFlags 注册命令行 flag 并绑定到 viper，flag 优先于环境变量和配置文件
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.IntP("port", "p", v.GetInt("server.port"), "port to listen on (env: PHOTOGAME_SERVER_PORT)")
	fs.StringP("bind", "b", v.GetString("server.bind"), "address to bind to (env: PHOTOGAME_SERVER_BIND)")
	fs.String("env", v.GetString("app.env"), "development or production (env: PHOTOGAME_APP_ENV)")
	fs.String("log-level", v.GetString("log.level"), "logrus level (env: PHOTOGAME_LOG_LEVEL)")
	fs.String("store", v.GetString("store.backend"), "record store: file or sql (env: PHOTOGAME_STORE_BACKEND)")
	fs.String("data-file", v.GetString("store.data_file"), "JSON document for the file store (env: PHOTOGAME_STORE_DATA_FILE)")
	fs.String("db-driver", v.GetString("db.driver"), "sqlite, mysql or postgres (env: PHOTOGAME_DB_DRIVER)")
	fs.String("db-dsn", v.GetString("db.dsn"), "database DSN (env: PHOTOGAME_DB_DSN)")
	fs.String("blob", v.GetString("blob.provider"), "photo storage: local or s3 (env: PHOTOGAME_BLOB_PROVIDER)")
	fs.String("blob-dir", v.GetString("blob.dir"), "upload directory for local storage (env: PHOTOGAME_BLOB_DIR)")
	fs.String("redis-addr", "", "redis address, enables distributed locks and rate limiting (env: PHOTOGAME_REDIS_ADDR)")
	fs.String("cors-origin", v.GetString("cors.allowed_origin"), "allowed CORS origin (env: PHOTOGAME_CORS_ALLOWED_ORIGIN)")
	fs.String("config", "", "optional config file (yaml, json or toml)")

	fs.VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			_ = v.BindPFlag(key, f)
		}
	})
}

// LoadConfig 读取 .env、可选的配置文件和 viper 中的值
func LoadConfig(v *viper.Viper) (*Config, error) {
	// .env 不存在时只用环境变量
	_ = godotenv.Load()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		ServerPort:   v.GetInt("server.port"),
		Bind:         v.GetString("server.bind"),
		AppEnv:       v.GetString("app.env"),
		LogLevel:     v.GetString("log.level"),
		StoreBackend: strings.ToLower(v.GetString("store.backend")),
		DataFile:     v.GetString("store.data_file"),
		DBDriver:     strings.ToLower(v.GetString("db.driver")),
		DBDSN:        v.GetString("db.dsn"),
		BlobProvider: strings.ToLower(v.GetString("blob.provider")),
		BlobDir:      v.GetString("blob.dir"),
		S3: blob.S3Config{
			Endpoint: v.GetString("s3.endpoint"),
			Region:   v.GetString("s3.region"),
			Bucket:   v.GetString("s3.bucket"),
			KeyID:    v.GetString("s3.key_id"),
			AppKey:   v.GetString("s3.app_key"),
			Prefix:   v.GetString("s3.prefix"),
		},
		RedisAddr:         v.GetString("redis.addr"),
		RedisPassword:     v.GetString("redis.password"),
		RedisDB:           v.GetInt("redis.db"),
		KeyPrefix:         v.GetString("redis.key_prefix"),
		RateLimitMax:      v.GetInt("ratelimit.max"),
		RateLimitWindow:   v.GetDuration("ratelimit.window"),
		UploadMaxBytes:    v.GetInt64("upload.max_bytes"),
		CORSAllowedOrigin: v.GetString("cors.allowed_origin"),
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid log level '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置组合是否可用
func (c *Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.ServerPort)
	}
	switch c.StoreBackend {
	case StoreFile:
		if c.DataFile == "" {
			return errors.New("store.data_file must be set for the file store")
		}
	case StoreSQL:
		switch c.DBDriver {
		case setup.DriverSQLite, setup.DriverMySQL, setup.DriverPostgres:
		default:
			return fmt.Errorf("unsupported db.driver %q", c.DBDriver)
		}
		if c.DBDSN == "" {
			return errors.New("db.dsn must be set for the sql store")
		}
	default:
		return fmt.Errorf("unsupported store.backend %q", c.StoreBackend)
	}
	switch c.BlobProvider {
	case BlobLocal:
		if c.BlobDir == "" {
			return errors.New("blob.dir must be set for local storage")
		}
	case BlobS3:
		if c.S3.Bucket == "" {
			return errors.New("s3.bucket must be set for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported blob.provider %q", c.BlobProvider)
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("ratelimit.max and ratelimit.window must be positive")
	}
	if c.UploadMaxBytes <= 0 {
		return errors.New("upload.max_bytes must be positive")
	}
	return nil
}

// Addr 返回 HTTP 监听地址
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.ServerPort)
}
