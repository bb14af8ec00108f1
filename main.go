package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "dev"

func main() {
	var (
		configPath  = pflag.StringP("config", "c", "", "path to .s3cfg (default: standard locations)")
		endpoint    = pflag.String("endpoint", "", "override the S3 endpoint host")
		region      = pflag.String("region", "", "override the bucket region")
		downloadDir = pflag.String("download-dir", "", "override the download directory")
		debug       = pflag.Bool("debug", false, "log at debug level")
		showVersion = pflag.BoolP("version", "V", false, "print version and exit")
	)
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: s3surf [flags] [bucket[/prefix]]")
		fmt.Fprintln(os.Stderr, "\nBrowse S3-compatible object storage in the terminal.")
		fmt.Fprintln(os.Stderr, "Without an argument s3surf starts at the bucket list.")
		fmt.Fprintln(os.Stderr, "Configuration is read from .s3cfg (s3cmd-compatible).")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *showVersion {
		fmt.Printf("s3surf %s\n", version)
		return
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "No S3 configuration found: %s\n", err)
		fmt.Fprintln(os.Stderr, "\nCreate a .s3cfg file in one of these locations:")
		fmt.Fprintln(os.Stderr, "  - Current directory: .s3cfg")
		fmt.Fprintln(os.Stderr, "  - Home directory: ~/.s3cfg")
		fmt.Fprintln(os.Stderr, "  - System directory: /etc/s3cfg")
		os.Exit(1)
	}
	if *endpoint != "" {
		cfg.HostBase = *endpoint
	}
	if *region != "" {
		cfg.Region = *region
	}
	if *downloadDir != "" {
		cfg.DownloadDir = *downloadDir
	}

	log := newLogger(*debug)
	defer log.Sync()

	ctx := context.Background()
	store, err := NewS3Store(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating S3 client: %s\n", err)
		os.Exit(1)
	}

	root := RootContainer
	if pflag.NArg() > 0 {
		root = parseTarget(pflag.Arg(0))
		if err := store.HeadBucket(ctx, root.Bucket); err != nil {
			fmt.Fprintf(os.Stderr, "Error accessing bucket '%s': %s\n", root.Bucket, err)
			fmt.Fprintln(os.Stderr, "\nPlease check:")
			fmt.Fprintln(os.Stderr, "  - Bucket name is correct")
			fmt.Fprintln(os.Stderr, "  - Your credentials have access to this bucket")
			fmt.Fprintln(os.Stderr, "  - Your S3 endpoint configuration is correct")
			os.Exit(1)
		}
	}

	log.Info("starting", zap.String("version", version), zap.String("root", root.Key()))

	model := NewModel(cfg, store, root, log)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %s\n", err)
		os.Exit(1)
	}
}

// parseTarget splits a bucket[/prefix] argument into the root container.
// A non-empty prefix is normalized to end with "/".
func parseTarget(arg string) Container {
	arg = strings.TrimPrefix(arg, "s3://")
	bucket, prefix, _ := strings.Cut(arg, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return Container{Bucket: bucket, Prefix: prefix}
}

// newLogger builds a file logger under the user state directory. The
// terminal belongs to the TUI, so on any setup failure logging is simply
// disabled rather than written to stderr.
func newLogger(debug bool) *zap.Logger {
	path, err := LogPath()
	if err != nil {
		return zap.NewNop()
	}

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
