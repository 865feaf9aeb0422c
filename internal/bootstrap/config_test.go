package bootstrap

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(NewViper())
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.ServerPort)
	assert.Equal(t, StoreFile, cfg.StoreBackend)
	assert.Equal(t, ".hidden_uploads/data.json", cfg.DataFile)
	assert.Equal(t, BlobLocal, cfg.BlobProvider)
	assert.Equal(t, "pg:", cfg.KeyPrefix)
	assert.Equal(t, time.Second, cfg.RateLimitWindow)
	assert.Equal(t, int64(15*1024*1024), cfg.UploadMaxBytes)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadConfig_EnvAndFlags(t *testing.T) {
	t.Setenv("PHOTOGAME_SERVER_PORT", "5000")
	t.Setenv("PHOTOGAME_STORE_BACKEND", "sql")
	t.Setenv("PHOTOGAME_DB_DSN", "file:test.db")
	t.Setenv("PHOTOGAME_LOG_LEVEL", "loud")

	v := NewViper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs, v)
	require.NoError(t, fs.Parse([]string{"--port", "6000", "--db_driver", "sqlite"}))

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.ServerPort, "flag wins over env")
	assert.Equal(t, StoreSQL, cfg.StoreBackend)
	assert.Equal(t, "file:test.db", cfg.DBDSN)
	assert.Equal(t, "info", cfg.LogLevel, "invalid level falls back to info")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ServerPort:      4000,
			StoreBackend:    StoreFile,
			DataFile:        "data.json",
			BlobProvider:    BlobLocal,
			BlobDir:         "uploads",
			RateLimitMax:    10,
			RateLimitWindow: time.Second,
			UploadMaxBytes:  1,
		}
	}
	require.NoError(t, valid().Validate())

	testCases := []struct {
		desc   string
		mutate func(c *Config)
	}{
		{"port out of range", func(c *Config) { c.ServerPort = 70000 }},
		{"unknown store", func(c *Config) { c.StoreBackend = "mongo" }},
		{"unknown driver", func(c *Config) { c.StoreBackend = StoreSQL; c.DBDriver = "oracle"; c.DBDSN = "x" }},
		{"sql without dsn", func(c *Config) { c.StoreBackend = StoreSQL; c.DBDriver = "sqlite" }},
		{"s3 without bucket", func(c *Config) { c.BlobProvider = BlobS3 }},
		{"unknown blob provider", func(c *Config) { c.BlobProvider = "ftp" }},
		{"zero rate limit", func(c *Config) { c.RateLimitMax = 0 }},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
