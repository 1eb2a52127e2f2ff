package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 300, cfg.Pricing.DefaultSteps)
	assert.Equal(t, 5000, cfg.Pricing.MaxSteps)
	assert.Equal(t, 500, cfg.Pricing.MaxGridSteps)
	assert.Positive(t, cfg.Pricing.Workers)
	assert.True(t, cfg.Security.RateLimit.Enabled)
	require.NoError(t, cfg.validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			modify:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "invalid server port",
		},
		{
			name:    "port too large",
			modify:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero read timeout",
			modify:  func(c *Config) { c.Server.ReadTimeout = 0 },
			wantErr: "read timeout",
		},
		{
			name:    "no allowed origins",
			modify:  func(c *Config) { c.Security.AllowedOrigins = nil },
			wantErr: "allowed origin",
		},
		{
			name:    "zero default steps",
			modify:  func(c *Config) { c.Pricing.DefaultSteps = 0 },
			wantErr: "default steps",
		},
		{
			name: "max steps below default",
			modify: func(c *Config) {
				c.Pricing.DefaultSteps = 300
				c.Pricing.MaxSteps = 100
			},
			wantErr: "max steps",
		},
		{
			name:    "zero pricing timeout",
			modify:  func(c *Config) { c.Pricing.Timeout = 0 },
			wantErr: "pricing timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_NormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format, "format is pinned to JSON")
	assert.Equal(t, "logs/app.log", cfg.Logging.FilePath)
}

func TestValidate_WorkersFallBackToCPUCount(t *testing.T) {
	cfg := Default()
	cfg.Pricing.Workers = 0

	require.NoError(t, cfg.validate())
	assert.Positive(t, cfg.Pricing.Workers)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
server:
  port: 9090
  read_timeout: 20s
pricing:
  default_steps: 150
  max_steps: 2000
  output_dir: /tmp/pricing
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := loadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 20*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 150, cfg.Pricing.DefaultSteps)
	assert.Equal(t, "/tmp/pricing", cfg.Pricing.OutputDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: ["), 0644))

	_, err := loadFromFile(path)
	assert.Error(t, err)
}

func TestMergeConfigs_EnvWins(t *testing.T) {
	fileCfg := Config{}
	fileCfg.Server.Port = 9090
	fileCfg.Pricing.DefaultSteps = 100
	fileCfg.Pricing.OutputDir = "file-results"
	fileCfg.Logging.Level = "debug"

	envCfg := Config{}
	envCfg.Server.Port = 8081
	envCfg.Pricing.OutputDir = "env-results"

	merged := mergeConfigs(fileCfg, envCfg)

	assert.Equal(t, 8081, merged.Server.Port, "env port wins")
	assert.Equal(t, 100, merged.Pricing.DefaultSteps, "file fills unset env value")
	assert.Equal(t, "env-results", merged.Pricing.OutputDir)
	assert.Equal(t, "debug", merged.Logging.Level)
}
