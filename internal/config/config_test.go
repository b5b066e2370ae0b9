package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
server:
  http_port: "9000"
database:
  master:
    host: db
    port: "5432"
    user: uploader
    pass: secret
    name: images
storage:
  endpoint: minio:9000
  bucket_name: upload-media
kafka:
  group_id: uploader
  topic: images.uploaded
  brokers: ["kafka:9092"]
upload:
  apps: [catalog, users]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.HTTPPort)
	assert.Equal(t, []string{"catalog", "users"}, cfg.Upload.Apps)
	assert.Equal(t, "postgres://uploader:secret@db:5432/images?sslmode=disable", cfg.Database.Master.DSN())
	assert.Equal(t, "minio:9000", cfg.Storage.PublicEndpoint)

	// defaults
	assert.Equal(t, 120*time.Second, cfg.Upload.URLTTL)
	assert.Equal(t, 300, cfg.Processing.CropSize)
	assert.Equal(t, 64, cfg.Processing.InlineSize)
	assert.Equal(t, 3, cfg.Retry.Attempts)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("S3_BUCKET", "override-bucket")
	t.Setenv("DB_PASSWORD", "from-env")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "override-bucket", cfg.Storage.BucketName)
	assert.Equal(t, "from-env", cfg.Database.Master.Pass)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}
