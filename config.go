package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/ini.v1"
)

// Config holds settings parsed from .s3cfg (s3cmd-compatible) plus the
// browsing options in the [s3surf] section.
type Config struct {
	AccessKey   string
	SecretKey   string
	HostBase    string
	UseHTTPS    bool
	PathStyle   bool
	Region      string
	DownloadDir string

	// PageSize is the MaxKeys value for one listing request.
	PageSize int32

	// PreviewMaxBytes bounds the byte prefix fetched for previews.
	PreviewMaxBytes int64

	// RequestTimeout is the per-call deadline for list/head/preview.
	RequestTimeout time.Duration
}

// configSearchPaths are the standard .s3cfg locations, in priority order.
func configSearchPaths() []string {
	return []string{
		".s3cfg",
		filepath.Join(os.Getenv("HOME"), ".s3cfg"),
		"/etc/s3cfg",
	}
}

// LoadConfig reads configuration from path, or from the first .s3cfg
// found in the standard locations when path is empty.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		for _, p := range configSearchPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path == "" {
		return nil, fmt.Errorf(".s3cfg not found in any of the standard locations")
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	section := file.Section("default")
	cfg := &Config{
		AccessKey: section.Key("access_key").String(),
		SecretKey: section.Key("secret_key").String(),
		HostBase:  section.Key("host_base").MustString(""),
		UseHTTPS:  section.Key("use_https").MustBool(true),
		PathStyle: section.Key("host_bucket").MustString("") == "",
		Region:    section.Key("bucket_location").MustString("us-east-1"),
	}

	browse := file.Section("s3surf")
	cfg.DownloadDir = browse.Key("download_dir").MustString("")
	cfg.PageSize = int32(browse.Key("page_size").MustInt(300))
	cfg.PreviewMaxBytes = browse.Key("preview_max_bytes").MustInt64(1 << 20)
	cfg.RequestTimeout = browse.Key("request_timeout").MustDuration(30 * time.Second)

	if cfg.DownloadDir == "" {
		cfg.DownloadDir = defaultDownloadDir()
	}
	return cfg, nil
}

// Endpoint returns the service endpoint URL, or "" for plain AWS.
func (c *Config) Endpoint() string {
	if c.HostBase == "" || c.HostBase == "s3.amazonaws.com" {
		return ""
	}
	scheme := "https"
	if !c.UseHTTPS {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s", scheme, c.HostBase)
}

// DownloadPath resolves an object name to its destination file path.
func (c *Config) DownloadPath(name string) string {
	return filepath.Join(c.DownloadDir, name)
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// LogPath returns the log file location under the user state directory,
// creating the directory if needed. A TUI cannot log to the terminal.
func LogPath() (string, error) {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".local", "state")
	}
	dir = filepath.Join(dir, "s3surf")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "s3surf.log"), nil
}
