package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Content  ContentConfig  `yaml:"content"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	TotalRounds    int   `yaml:"total_rounds"`     // 每局回合数
	ArmDelayMinMs  int64 `yaml:"arm_delay_min_ms"` // 触发延迟下限（毫秒）
	ArmDelayMaxMs  int64 `yaml:"arm_delay_max_ms"` // 触发延迟上限（毫秒）
	RoundTimeout   int   `yaml:"round_timeout"`    // 回合超时（秒）
	EarlyPenaltyMs int64 `yaml:"early_penalty_ms"` // 抢跑惩罚值（毫秒）
	RoomTimeout    int   `yaml:"room_timeout"`     // 房间等待超时（分钟）
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	MessageLimit   MsgLimitConfig  `yaml:"message_limit"`
}

// RateLimitConfig 连接速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanMinutes   int `yaml:"ban_minutes"`
}

// MsgLimitConfig 消息速率限制
type MsgLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// ContentConfig 内容生成服务配置
type ContentConfig struct {
	URL       string `yaml:"url"`        // 远程生成服务地址，留空则只用本地题库
	TimeoutMs int    `yaml:"timeout_ms"` // 远程调用超时（毫秒）
}

// RoundTimeoutDuration 返回回合超时时长
func (c *GameConfig) RoundTimeoutDuration() time.Duration {
	return time.Duration(c.RoundTimeout) * time.Second
}

// RoomTimeoutDuration 返回房间等待超时时长
func (c *GameConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.RoomTimeout) * time.Minute
}

// BanDuration 返回封禁时长
func (c *RateLimitConfig) BanDuration() time.Duration {
	return time.Duration(c.BanMinutes) * time.Minute
}

// TimeoutDuration 返回远程调用超时时长
func (c *ContentConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults 设置默认值
func (cfg *Config) applyDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 1790
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = 1024
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Game.TotalRounds == 0 {
		cfg.Game.TotalRounds = 5
	}
	if cfg.Game.ArmDelayMinMs == 0 {
		cfg.Game.ArmDelayMinMs = 1500
	}
	if cfg.Game.ArmDelayMaxMs == 0 {
		cfg.Game.ArmDelayMaxMs = 5500
	}
	if cfg.Game.RoundTimeout == 0 {
		cfg.Game.RoundTimeout = 10
	}
	if cfg.Game.EarlyPenaltyMs == 0 {
		cfg.Game.EarlyPenaltyMs = 1000
	}
	if cfg.Game.RoomTimeout == 0 {
		cfg.Game.RoomTimeout = 10
	}
	if cfg.Security.RateLimit.MaxPerSecond == 0 {
		cfg.Security.RateLimit.MaxPerSecond = 5
	}
	if cfg.Security.RateLimit.MaxPerMinute == 0 {
		cfg.Security.RateLimit.MaxPerMinute = 60
	}
	if cfg.Security.RateLimit.BanMinutes == 0 {
		cfg.Security.RateLimit.BanMinutes = 10
	}
	if cfg.Security.MessageLimit.MaxPerSecond == 0 {
		cfg.Security.MessageLimit.MaxPerSecond = 20
	}
	if cfg.Content.TimeoutMs == 0 {
		cfg.Content.TimeoutMs = 2500
	}
}
