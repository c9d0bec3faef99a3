package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr        string
	Env         string
	CORSOrigin  string
	DatabaseURL string
	// Redis - device session persistence, disabled when empty
	RedisURL   string
	SessionTTL time.Duration
	DeviceID   string
	// Meilisearch - notes search, disabled when empty
	MeiliURL       string
	MeiliMasterKey string
	// MinIO - export share target, disabled when endpoint is empty
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	ShareLinkTTL   time.Duration
}

func Load() Config {
	return Config{
		Addr:        getenv("HUEBOOK_ADDR", ":8686"),
		Env:         getenv("HUEBOOK_ENV", "production"),
		CORSOrigin:  getenv("HUEBOOK_CORS_ORIGIN", "*"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		RedisURL:    getenv("REDIS_URL", ""),
		SessionTTL:  time.Duration(getenvInt("HUEBOOK_SESSION_TTL_SECONDS", 2592000)) * time.Second,
		DeviceID:    getenv("HUEBOOK_DEVICE_ID", "default-device"),
		// Search and share collaborators are optional
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "huebook-exports"),
		MinioUseSSL:    getenvBool("MINIO_USE_SSL", false),
		ShareLinkTTL:   time.Duration(getenvInt("HUEBOOK_SHARE_LINK_TTL_SECONDS", 86400)) * time.Second,
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
