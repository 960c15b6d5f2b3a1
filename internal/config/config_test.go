package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("AGORA_DB_CONN", "postgres://agora@localhost/agora?sslmode=disable")

	cfg, err := Load("")
	req.NoError(err)
	req.Equal("postgres", cfg.StorageDriver)
	req.Equal(":8080", cfg.HTTPAddr)
	req.Equal(":9090", cfg.GRPCAddr)
	req.Equal("/static", cfg.StaticURL)
	req.Equal(1000, cfg.MaxContentLength)
	req.Equal(20, cfg.PageSize)
	req.Equal(5*time.Second, cfg.ShutdownTimeout)
	req.Equal("INFO", cfg.LogLevel)
	req.Equal(cfg.DBConn, cfg.DSN())
	req.Empty(cfg.Origins())
}

func TestLoad_Badger(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	t.Setenv("AGORA_STORAGE_DRIVER", "badger")
	t.Setenv("AGORA_BADGER_PATH", dir)
	t.Setenv("AGORA_ALLOWED_ORIGINS", "https://chat.example.com, ,http://localhost:3000")
	t.Setenv("AGORA_SHUTDOWN_TIMEOUT", "250ms")

	cfg, err := Load("")
	req.NoError(err)
	req.Equal(dir, cfg.DSN())
	req.Equal([]string{"https://chat.example.com", "http://localhost:3000"}, cfg.Origins())
	req.Equal(250*time.Millisecond, cfg.ShutdownTimeout)
}

func TestLoad_DotEnvFile(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), ".env")
	req.NoError(os.WriteFile(path, []byte("AGORA_STORAGE_DRIVER=badger\nAGORA_PAGE_SIZE=50\n"), 0o600))
	// Registered so the values godotenv sets are restored after the test.
	t.Setenv("AGORA_STORAGE_DRIVER", "")
	os.Unsetenv("AGORA_STORAGE_DRIVER")
	t.Setenv("AGORA_PAGE_SIZE", "")
	os.Unsetenv("AGORA_PAGE_SIZE")

	cfg, err := Load(path)
	req.NoError(err)
	req.Equal("badger", cfg.StorageDriver)
	req.Equal(50, cfg.PageSize)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	t.Setenv("AGORA_DB_CONN", "postgres://localhost/agora")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		DBConn:          "postgres://localhost/agora",
		StorageDriver:   "postgres",
		HTTPAddr:        ":8080",
		PageSize:        20,
		ShutdownTimeout: time.Second,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"postgres without connection string", func(c *Config) { c.DBConn = "" }},
		{"badger without path", func(c *Config) { c.StorageDriver = "badger"; c.BadgerPath = "" }},
		{"unknown driver", func(c *Config) { c.StorageDriver = "sqlite" }},
		{"empty http address", func(c *Config) { c.HTTPAddr = "" }},
		{"zero page size", func(c *Config) { c.PageSize = 0 }},
		{"negative content length", func(c *Config) { c.MaxContentLength = -1 }},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
