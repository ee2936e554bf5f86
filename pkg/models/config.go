package models

import (
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	Host     string `mapstructure:"HOST"`
	Port     int    `mapstructure:"PORT"`
	Debug    bool   `mapstructure:"DEBUG"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	RateLimitRequests     int `mapstructure:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow       int `mapstructure:"RATE_LIMIT_WINDOW"`
	RateLimitSweepSeconds int `mapstructure:"RATE_LIMIT_SWEEP_SECONDS"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	YtdlPath           string `mapstructure:"YTDLP_PATH"`
	YtdlAutoInstall    bool   `mapstructure:"YTDLP_AUTO_INSTALL"`
	YtdlUtilsDir       string `mapstructure:"YTDLP_UTILS_DIR"`
	YtdlCookiesFile    string `mapstructure:"YTDLP_COOKIES_FILE"`
	YtdlAdditionalArgs string `mapstructure:"YTDLP_EXTRA_ARGS"`

	ExtractWorkers        int `mapstructure:"EXTRACT_WORKERS"`
	ExtractQueueSize      int `mapstructure:"EXTRACT_QUEUE_SIZE"`
	ExtractTimeoutSeconds int `mapstructure:"EXTRACT_TIMEOUT_SECONDS"`
	ResolveTimeoutSeconds int `mapstructure:"RESOLVE_TIMEOUT_SECONDS"`
	StreamTimeoutSeconds  int `mapstructure:"STREAM_TIMEOUT_SECONDS"`

	MaxVideoSizeMB     int    `mapstructure:"MAX_VIDEO_SIZE_MB"`
	StreamAllowedHosts string `mapstructure:"STREAM_ALLOWED_HOSTS"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Host:                  "0.0.0.0",
		Port:                  8000,
		Debug:                 false,
		LogLevel:              "info",
		RateLimitRequests:     10,
		RateLimitWindow:       60,
		RateLimitSweepSeconds: 300,
		RedisAddr:             "",
		RedisPassword:         "",
		RedisDB:               0,
		YtdlPath:              "yt-dlp",
		YtdlAutoInstall:       false,
		YtdlUtilsDir:          "",
		YtdlCookiesFile:       "",
		YtdlAdditionalArgs:    "",
		ExtractWorkers:        4,
		ExtractQueueSize:      32,
		ExtractTimeoutSeconds: 120,
		ResolveTimeoutSeconds: 15,
		StreamTimeoutSeconds:  600,
		MaxVideoSizeMB:        500,
		StreamAllowedHosts:    "fbcdn.net,facebook.com,fbsbx.com",
	}
}

func (c *Config) RateLimitWindowDuration() time.Duration {
	return time.Duration(c.RateLimitWindow) * time.Second
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.RateLimitSweepSeconds) * time.Second
}

func (c *Config) ExtractTimeout() time.Duration {
	return time.Duration(c.ExtractTimeoutSeconds) * time.Second
}

func (c *Config) ResolveTimeout() time.Duration {
	return time.Duration(c.ResolveTimeoutSeconds) * time.Second
}

func (c *Config) StreamTimeout() time.Duration {
	return time.Duration(c.StreamTimeoutSeconds) * time.Second
}

// MaxVideoSizeBytes returns the proxy size cap, 0 meaning unlimited
func (c *Config) MaxVideoSizeBytes() int64 {
	return int64(c.MaxVideoSizeMB) * 1024 * 1024
}

// AllowedStreamHosts splits STREAM_ALLOWED_HOSTS into lowercase host suffixes
func (c *Config) AllowedStreamHosts() []string {
	var hosts []string
	for _, h := range strings.Split(c.StreamAllowedHosts, ",") {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// ExtraArgs splits YTDLP_EXTRA_ARGS on whitespace
func (c *Config) ExtraArgs() []string {
	return strings.Fields(c.YtdlAdditionalArgs)
}
