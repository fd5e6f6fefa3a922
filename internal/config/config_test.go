package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMinioEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("STORAGE_TYPE", "minio")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "minioadmin")
	t.Setenv("MINIO_SECRET_KEY", "minioadmin")
	t.Setenv("CONTENT_BUCKET", "content")
	t.Setenv("THUMBNAIL_BUCKET", "thumbnails")
}

func TestLoad_Minio(t *testing.T) {
	setMinioEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageTypeMinio, cfg.StorageType)
	assert.Equal(t, "content", cfg.ContentBucket)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.MinioUseSSL)
	assert.Zero(t, cfg.StreamBytesPerSec)
}

func TestLoad_MinioMissingVar(t *testing.T) {
	setMinioEnv(t)
	t.Setenv("MINIO_SECRET_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MINIO_SECRET_KEY")
}

func TestLoad_Local(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("STORAGE_TYPE", "local")
	t.Setenv("LOCAL_STORAGE_PATH", "/var/lib/stashgate")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageTypeLocal, cfg.StorageType)
	assert.Equal(t, "/var/lib/stashgate", cfg.LocalStoragePath)
}

func TestLoad_UnknownStorageType(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("STORAGE_TYPE", "ftp")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_TYPE")
}

func TestLoad_StreamRateLimit(t *testing.T) {
	setMinioEnv(t)
	t.Setenv("STREAM_RATE_LIMIT", "1048576")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(1048576), cfg.StreamBytesPerSec)

	t.Setenv("STREAM_RATE_LIMIT", "fast")
	_, err = Load()
	assert.Error(t, err)
}
