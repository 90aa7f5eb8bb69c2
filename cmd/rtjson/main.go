// Command rtjson converts Markdown, CommonMark XML and s-expression documents
// to rich-text JSON, keeps a library of converted documents and serves both
// over HTTP.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/rtjson/internal/config"
	"github.com/FocuswithJustin/rtjson/internal/ingest"
	"github.com/FocuswithJustin/rtjson/internal/library"
	"github.com/FocuswithJustin/rtjson/internal/logging"
	"github.com/FocuswithJustin/rtjson/internal/validation"
)

const version = "0.1.0"

// Output streams, replaced in tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

// Globals are flags shared by every command.
type Globals struct {
	ConfigFile string `name:"config" short:"c" help:"Config file path (default: user config dir)" type:"path"`
	LibraryDir string `name:"library" short:"L" help:"Library directory, overrides library.dir" type:"path"`
	LogLevel   string `name:"log-level" help:"Log level, overrides logging.level (debug, info, warn, error)"`
	LogFormat  string `name:"log-format" help:"Log format, overrides logging.format (text, json)"`
}

// CLI defines the command-line interface for rtjson.
var CLI struct {
	Globals

	Convert ConvertCmd  `cmd:"" help:"Convert a document to rich-text JSON"`
	Tree    TreeCmd     `cmd:"" help:"Print the parsed document tree as XML or s-expressions"`
	Store   StoreCmd    `cmd:"" help:"Convert a document and save it in the library"`
	Get     GetCmd      `cmd:"" help:"Print a stored document"`
	List    ListCmd     `cmd:"" help:"List stored documents"`
	Delete  DeleteCmd   `cmd:"" help:"Remove a stored document"`
	Import  ImportCmd   `cmd:"" help:"Convert and store every document in a .tar.xz or .tar.gz bundle"`
	Export  ExportCmd   `cmd:"" help:"Write stored documents to a .tar.xz or .tar.gz bundle"`
	Serve   ServeCmd    `cmd:"" help:"Start the HTTP and WebSocket API server"`
	Config  ConfigGroup `cmd:"" help:"Configuration file operations"`
	Version VersionCmd  `cmd:"" help:"Print version information"`
}

// setup loads the configuration, applies flag overrides and starts logging.
// The returned closer flushes the log file, if any.
func (g *Globals) setup() (config.Config, io.Closer, error) {
	cfg, err := config.Load(g.ConfigFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	if g.LibraryDir != "" {
		cfg.Library.Dir = g.LibraryDir
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(g.LogLevel)
	}
	if g.LogFormat != "" {
		cfg.Logging.Format = strings.ToLower(g.LogFormat)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	closer, err := initLogging(cfg.Logging)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func initLogging(lc config.LoggingConfig) (io.Closer, error) {
	level, err := logging.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(lc.Format)
	if err != nil {
		return nil, err
	}
	if lc.File == "" {
		logging.InitLogger(level, format)
		return nopCloser{}, nil
	}
	return logging.InitLoggerFile(level, format, logging.FileOptions{
		Path:       lc.File,
		MaxSizeMB:  lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAgeDays: lc.MaxAgeDays,
		Compress:   lc.Compress,
	}), nil
}

func openLibrary(ctx context.Context, cfg config.Config) (*library.Library, error) {
	return library.Open(ctx, cfg.Library.Dir, library.Options{
		CacheTTL:     time.Duration(cfg.Library.CacheTTLSeconds) * time.Second,
		CacheCleanup: time.Duration(cfg.Library.CacheCleanupSeconds) * time.Second,
	})
}

// readInput reads path, or standard input when path is empty or "-", and
// rejects binary files.
func readInput(path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		if err := validation.ValidatePath(path); err != nil {
			return nil, err
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateSource(data); err != nil {
		return nil, err
	}
	return data, nil
}

// inputFormat resolves the input format: an explicit name wins, then the
// file extension, then the content itself.
func inputFormat(from, path string, data []byte) (ingest.Format, error) {
	if from != "" && from != "auto" {
		return ingest.ParseFormat(from)
	}
	if path != "" && path != "-" {
		if f, err := ingest.DetectFormat(path); err == nil {
			return f, nil
		}
	}
	return ingest.Sniff(data), nil
}

// createOutput opens path for writing, or standard output when path is
// empty or "-".
func createOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	if err := validation.ValidatePath(path); err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("rtjson"),
		kong.Description("Rich-text JSON converter and document library"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Bind(&CLI.Globals),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
