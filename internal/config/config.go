package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type StorageType string

const (
	StorageTypeMinio StorageType = "minio"
	StorageTypeLocal StorageType = "local"
)

type Config struct {
	ServerPort  string
	StorageType StorageType
	LogLevel    string

	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioUseSSL     bool
	ContentBucket   string
	ThumbnailBucket string

	LocalStoragePath string
	ThumbnailBaseURL string

	// CatalogDSN enables the MySQL publication catalog when set.
	CatalogDSN string

	// StreamBytesPerSec caps per-stream bandwidth; 0 disables the limit.
	StreamBytesPerSec int64
}

func Load() (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:       os.Getenv("SERVER_PORT"),
		StorageType:      StorageType(os.Getenv("STORAGE_TYPE")),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		MinioEndpoint:    os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:   os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:   os.Getenv("MINIO_SECRET_KEY"),
		ContentBucket:    os.Getenv("CONTENT_BUCKET"),
		ThumbnailBucket:  os.Getenv("THUMBNAIL_BUCKET"),
		LocalStoragePath: os.Getenv("LOCAL_STORAGE_PATH"),
		ThumbnailBaseURL: os.Getenv("THUMBNAIL_BASE_URL"),
		CatalogDSN:       os.Getenv("CATALOG_DSN"),
	}

	if cfg.ServerPort == "" {
		return nil, fmt.Errorf("SERVER_PORT is not set")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		useSSL, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("MINIO_USE_SSL is not a boolean: %v", err)
		}
		cfg.MinioUseSSL = useSSL
	}

	if v := os.Getenv("STREAM_RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseInt(v, 10, 64)
		if err != nil || limit < 0 {
			return nil, fmt.Errorf("STREAM_RATE_LIMIT must be a non-negative integer, got %q", v)
		}
		cfg.StreamBytesPerSec = limit
	}

	var required []struct{ name, value string }
	switch cfg.StorageType {
	case StorageTypeMinio:
		required = []struct{ name, value string }{
			{"MINIO_ENDPOINT", cfg.MinioEndpoint},
			{"MINIO_ACCESS_KEY", cfg.MinioAccessKey},
			{"MINIO_SECRET_KEY", cfg.MinioSecretKey},
			{"CONTENT_BUCKET", cfg.ContentBucket},
			{"THUMBNAIL_BUCKET", cfg.ThumbnailBucket},
		}
	case StorageTypeLocal:
		required = []struct{ name, value string }{
			{"LOCAL_STORAGE_PATH", cfg.LocalStoragePath},
		}
	default:
		return nil, fmt.Errorf("STORAGE_TYPE must be %q or %q, got %q",
			StorageTypeMinio, StorageTypeLocal, cfg.StorageType)
	}

	for _, v := range required {
		if v.value == "" {
			return nil, fmt.Errorf("%s is not set", v.name)
		}
	}

	return cfg, nil
}
