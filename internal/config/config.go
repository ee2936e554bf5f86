package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"fbvideodl/pkg/models"
)

var (
	ErrInvalidPort      = errors.New("invalid port: must be between 1 and 65535")
	ErrInvalidRateLimit = errors.New("invalid rate limit: requests and window must be positive")
	ErrInvalidWorkers   = errors.New("invalid extraction pool: workers must be positive and queue size non-negative")
	ErrInvalidTimeout   = errors.New("invalid timeout: must be positive")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidSizeLimit = errors.New("invalid max video size: must be non-negative")
)

const envFile = ".env"

// Load reads configuration from defaults, an optional file and the
// environment, in increasing order of precedence. An empty path falls back
// to ./.env when it exists.
func Load(path string) (*models.Config, error) {
	v := viper.New()
	setDefaults(v, models.DefaultConfig())
	v.AutomaticEnv()

	if path == "" {
		if _, err := os.Stat(envFile); err == nil {
			path = envFile
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if filepath.Base(path) == envFile {
			v.SetConfigType("env")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.YtdlUtilsDir == "" {
		cfg.YtdlUtilsDir = filepath.Join(GetDataDir(), "bin")
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv picks it up on Unmarshal
func setDefaults(v *viper.Viper, d *models.Config) {
	v.SetDefault("HOST", d.Host)
	v.SetDefault("PORT", d.Port)
	v.SetDefault("DEBUG", d.Debug)
	v.SetDefault("LOG_LEVEL", d.LogLevel)

	v.SetDefault("RATE_LIMIT_REQUESTS", d.RateLimitRequests)
	v.SetDefault("RATE_LIMIT_WINDOW", d.RateLimitWindow)
	v.SetDefault("RATE_LIMIT_SWEEP_SECONDS", d.RateLimitSweepSeconds)

	v.SetDefault("REDIS_ADDR", d.RedisAddr)
	v.SetDefault("REDIS_PASSWORD", d.RedisPassword)
	v.SetDefault("REDIS_DB", d.RedisDB)

	v.SetDefault("YTDLP_PATH", d.YtdlPath)
	v.SetDefault("YTDLP_AUTO_INSTALL", d.YtdlAutoInstall)
	v.SetDefault("YTDLP_UTILS_DIR", d.YtdlUtilsDir)
	v.SetDefault("YTDLP_COOKIES_FILE", d.YtdlCookiesFile)
	v.SetDefault("YTDLP_EXTRA_ARGS", d.YtdlAdditionalArgs)

	v.SetDefault("EXTRACT_WORKERS", d.ExtractWorkers)
	v.SetDefault("EXTRACT_QUEUE_SIZE", d.ExtractQueueSize)
	v.SetDefault("EXTRACT_TIMEOUT_SECONDS", d.ExtractTimeoutSeconds)
	v.SetDefault("RESOLVE_TIMEOUT_SECONDS", d.ResolveTimeoutSeconds)
	v.SetDefault("STREAM_TIMEOUT_SECONDS", d.StreamTimeoutSeconds)

	v.SetDefault("MAX_VIDEO_SIZE_MB", d.MaxVideoSizeMB)
	v.SetDefault("STREAM_ALLOWED_HOSTS", d.StreamAllowedHosts)
}

// Validate checks if the configuration is valid
func Validate(cfg *models.Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return ErrInvalidPort
	}

	if cfg.RateLimitRequests < 1 || cfg.RateLimitWindow < 1 || cfg.RateLimitSweepSeconds < 0 {
		return ErrInvalidRateLimit
	}

	if cfg.ExtractWorkers < 1 || cfg.ExtractQueueSize < 0 {
		return ErrInvalidWorkers
	}

	if cfg.ExtractTimeoutSeconds < 1 || cfg.ResolveTimeoutSeconds < 1 || cfg.StreamTimeoutSeconds < 1 {
		return ErrInvalidTimeout
	}

	if cfg.MaxVideoSizeMB < 0 {
		return ErrInvalidSizeLimit
	}

	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel)
	}

	return nil
}

// GetDataDir returns the application data directory
func GetDataDir() string {
	// Try to use LocalAppData on Windows
	if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
		return filepath.Join(appData, "fbvideodl")
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".fbvideodl")
	}

	// Last resort: current directory
	return "."
}
