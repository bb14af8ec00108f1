package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".s3cfg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `[default]
access_key = AKIATEST
secret_key = sekrit
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "AKIATEST", cfg.AccessKey)
	assert.Equal(t, "sekrit", cfg.SecretKey)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "", cfg.Endpoint(), "no host_base means plain AWS")
	assert.Equal(t, int32(300), cfg.PageSize)
	assert.Equal(t, int64(1<<20), cfg.PreviewMaxBytes)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.NotEmpty(t, cfg.DownloadDir)
}

func TestLoadConfigCustomEndpoint(t *testing.T) {
	path := writeConfig(t, `[default]
access_key = minio
secret_key = minio123
host_base = minio.local:9000
use_https = False
bucket_location = eu-west-1
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://minio.local:9000", cfg.Endpoint())
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.True(t, cfg.PathStyle, "no host_bucket means path-style addressing")
}

func TestLoadConfigBrowsingSection(t *testing.T) {
	path := writeConfig(t, `[default]
access_key = a
secret_key = b

[s3surf]
download_dir = /data/incoming
page_size = 50
preview_max_bytes = 4096
request_timeout = 5s
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/incoming", cfg.DownloadDir)
	assert.Equal(t, int32(50), cfg.PageSize)
	assert.Equal(t, int64(4096), cfg.PreviewMaxBytes)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "/data/incoming/a.txt", cfg.DownloadPath("a.txt"))
}

func TestLoadConfigAWSHostBaseIsDefaultEndpoint(t *testing.T) {
	path := writeConfig(t, `[default]
access_key = a
secret_key = b
host_base = s3.amazonaws.com
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Endpoint())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.cfg"))
	assert.Error(t, err)
}

func TestParseTarget(t *testing.T) {
	assert.Equal(t, Container{Bucket: "pics"}, parseTarget("pics"))
	assert.Equal(t, Container{Bucket: "pics", Prefix: "2024/"}, parseTarget("pics/2024"))
	assert.Equal(t, Container{Bucket: "pics", Prefix: "2024/07/"}, parseTarget("s3://pics/2024/07/"))
}
