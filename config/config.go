package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Retention RetentionConfig
	Redis     RedisConfig
	AWS       AWSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	// PublicBaseURL overrides the scheme+host used when building download
	// URLs. Empty means derive them from the incoming request.
	PublicBaseURL string
}

// UploadConfig holds video upload settings.
type UploadConfig struct {
	Dir        string // directory for stored videos
	MaxSizeMiB int64  // per-file limit in MiB
}

// RetentionConfig holds reaper settings.
type RetentionConfig struct {
	MaxAge        time.Duration // sessions older than this are purged
	SweepInterval time.Duration
}

// RedisConfig holds Redis connection settings. Empty Addr disables Redis
// (no cross-instance broadcast, no archive queue).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AWSConfig holds S3 archive settings. Empty Region disables archival.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	VideosBucket         string
	PresignExpireMinutes int
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "300"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "300"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "5000"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			PublicBaseURL:      getEnv("PUBLIC_BASE_URL", ""),
		},
		Upload: UploadConfig{
			Dir:        getEnv("UPLOAD_DIR", "uploads/videos"),
			MaxSizeMiB: int64(getEnvInt("MAX_UPLOAD_MIB", 100)),
		},
		Retention: RetentionConfig{
			MaxAge:        time.Duration(getEnvInt("SESSION_RETENTION_HOURS", 24)) * time.Hour,
			SweepInterval: time.Duration(getEnvInt("REAPER_INTERVAL_MINUTES", 60)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			VideosBucket:         getEnv("AWS_S3_VIDEOS_BUCKET", "kiosk-videos"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
