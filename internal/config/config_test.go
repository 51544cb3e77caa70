package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	// Create a temp config file
	content := `
server:
  host: "127.0.0.1"
  port: 8080
  max_connections: 5000

redis:
  addr: "redis:6379"
  password: "secret"
  db: 1

game:
  total_rounds: 3
  arm_delay_min_ms: 1000
  arm_delay_max_ms: 4000
  round_timeout: 15
  early_penalty_ms: 1500
  room_timeout: 20

security:
  allowed_origins:
    - "http://localhost:3000"
    - "https://example.com"
  rate_limit:
    max_per_second: 20
    max_per_minute: 120
    ban_minutes: 30
  message_limit:
    max_per_second: 50

content:
  url: "http://localhost:9000/generate"
  timeout_ms: 1000
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	err := os.WriteFile(configPath, []byte(content), 0o600)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify loaded values
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5000, cfg.Server.MaxConnections)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, 3, cfg.Game.TotalRounds)
	assert.Equal(t, int64(1000), cfg.Game.ArmDelayMinMs)
	assert.Equal(t, int64(4000), cfg.Game.ArmDelayMaxMs)
	assert.Equal(t, int64(1500), cfg.Game.EarlyPenaltyMs)
	assert.Len(t, cfg.Security.AllowedOrigins, 2)
	assert.Equal(t, "http://localhost:9000/generate", cfg.Content.URL)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")
	err := os.WriteFile(configPath, []byte("invalid: yaml: :::"), 0o600)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	// Empty config file - defaults should be applied
	content := `{}`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "empty.yaml")
	err := os.WriteFile(configPath, []byte(content), 0o600)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify defaults are applied
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 1790, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5, cfg.Game.TotalRounds)
	assert.Equal(t, int64(1500), cfg.Game.ArmDelayMinMs)
	assert.Equal(t, int64(5500), cfg.Game.ArmDelayMaxMs)
	assert.Equal(t, int64(1000), cfg.Game.EarlyPenaltyMs)
	assert.Equal(t, 10, cfg.Game.RoundTimeout)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5, cfg.Game.TotalRounds)
	assert.Equal(t, 20, cfg.Security.MessageLimit.MaxPerSecond)
}

func TestDurationMethods(t *testing.T) {
	t.Parallel()

	game := &GameConfig{RoundTimeout: 15, RoomTimeout: 10}
	assert.Equal(t, 15*time.Second, game.RoundTimeoutDuration())
	assert.Equal(t, 10*time.Minute, game.RoomTimeoutDuration())

	rate := &RateLimitConfig{BanMinutes: 30}
	assert.Equal(t, 30*time.Minute, rate.BanDuration())

	content := &ContentConfig{TimeoutMs: 1000}
	assert.Equal(t, time.Second, content.TimeoutDuration())
}
