package config

import (
	"os"
	"strconv"
)

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// MQConfig holds message queue settings.
type MQConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds Redis settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig holds token validation settings.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// OCRConfig holds the vision text-extraction service settings.
type OCRConfig struct {
	URL     string `yaml:"url"`
	Timeout int    `yaml:"timeout_seconds"`
}

// RasterConfig holds the rasterizer service settings.
type RasterConfig struct {
	URL string `yaml:"url"`
}

// RendererConfig holds the HTML-to-PDF renderer settings.
type RendererConfig struct {
	URL string `yaml:"url"`
}

// StorageConfig holds the file store root for originals and page images.
type StorageConfig struct {
	Root string `yaml:"root"`
}

// MailboxConfig holds mailbox ingestion scheduler settings.
type MailboxConfig struct {
	AdapterURL    string `yaml:"adapter_url"`
	CheckInterval int    `yaml:"check_interval_seconds"`
	SecretKey     string `yaml:"secret_key"`
}

// OverrideDBFromEnv overrides DB settings from environment variables.
func OverrideDBFromEnv(cfg *DBConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Name = name
	}
}

// OverrideMQFromEnv overrides MQ settings from environment variables.
func OverrideMQFromEnv(cfg *MQConfig) {
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.URL = url
	}
}

// OverrideRedisFromEnv overrides Redis settings from environment variables.
func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
}

// OverrideJWTFromEnv overrides JWT settings from environment variables.
func OverrideJWTFromEnv(cfg *JWTConfig) {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Secret = secret
	}
}

// OverrideServerFromEnv overrides server settings from environment variables.
func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
}

// OverrideOCRFromEnv overrides OCR service settings from environment variables.
func OverrideOCRFromEnv(cfg *OCRConfig) {
	if url := os.Getenv("OCR_URL"); url != "" {
		cfg.URL = url
	}
}

// OverrideRasterFromEnv overrides rasterizer settings from environment variables.
func OverrideRasterFromEnv(cfg *RasterConfig) {
	if url := os.Getenv("RASTER_URL"); url != "" {
		cfg.URL = url
	}
}

// OverrideMailboxFromEnv overrides mailbox scheduler settings from environment variables.
func OverrideMailboxFromEnv(cfg *MailboxConfig) {
	if url := os.Getenv("MAILBOX_ADAPTER_URL"); url != "" {
		cfg.AdapterURL = url
	}
	if key := os.Getenv("MAILBOX_SECRET_KEY"); key != "" {
		cfg.SecretKey = key
	}
}
