package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all environment-driven settings for the service.
type Config struct {
	// HTTP API
	APIPort string

	// Redis queue / status store
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka intake (optional; empty brokers disables it)
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Vendor (Twitch) metadata API credentials
	TwitchClientID     string
	TwitchClientSecret string

	// External tools
	YtDlpPath string

	// Working directories
	WorkDir   string
	OutroPath string

	// Optional artifact upload
	S3Bucket       string
	S3Region       string
	S3Prefix       string
	S3UsePathStyle bool

	// Optional YouTube publishing
	YouTubeServiceAccountFile string
}

// Load reads configuration from the environment, loading .env first if
// present (non-fatal when missing).
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIPort:       GetEnvOrDefault("API_PORT", ":8080"),
		RedisAddr:     GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASS"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BOOTSTRAP_SERVERS")),
		KafkaTopic:   GetEnvOrDefault("KAFKA_TOPIC_COMPILATION_REQUESTS", "compilation-requests"),
		KafkaGroupID: GetEnvOrDefault("KAFKA_CONSUMER_GROUP_ID", "clipforge-worker-group"),

		TwitchClientID:     os.Getenv("TWITCH_CLIENT_ID"),
		TwitchClientSecret: os.Getenv("TWITCH_CLIENT_SECRET"),

		YtDlpPath: GetEnvOrDefault("YTDLP_PATH", "yt-dlp"),

		WorkDir:   GetEnvOrDefault("WORK_DIR", "data"),
		OutroPath: os.Getenv("OUTRO_PATH"),

		S3Bucket:       strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:       strings.TrimSpace(os.Getenv("S3_REGION")),
		S3Prefix:       strings.TrimSpace(os.Getenv("S3_PREFIX")),
		S3UsePathStyle: strings.EqualFold(strings.TrimSpace(os.Getenv("S3_USE_PATH_STYLE")), "true"),

		YouTubeServiceAccountFile: os.Getenv("YOUTUBE_SERVICE_ACCOUNT_FILE"),
	}
}

// TempDir returns the directory for per-job acquired clips.
func (c *Config) TempDir() string {
	return filepath.Join(c.WorkDir, TempDirName)
}

// OutputDir returns the directory for finished compilations.
func (c *Config) OutputDir() string {
	return filepath.Join(c.WorkDir, OutputDirName)
}

// GetEnvOrDefault returns the environment value for key, or fallback when
// unset or empty.
func GetEnvOrDefault(key, fallback string) string {
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

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
