// Package main is the docparse CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hyperjump/docparse/internal/caption"
	"github.com/hyperjump/docparse/internal/cli"
	"github.com/hyperjump/docparse/internal/config"
	"github.com/hyperjump/docparse/internal/convert"
	"github.com/hyperjump/docparse/internal/extract"
	"github.com/hyperjump/docparse/internal/markdown"
	"github.com/hyperjump/docparse/internal/metadata"
	"github.com/hyperjump/docparse/internal/metrics"
	"github.com/hyperjump/docparse/internal/ocr"
	"github.com/hyperjump/docparse/internal/server"
	"github.com/hyperjump/docparse/internal/service"
	"github.com/hyperjump/docparse/pkg/utils"
	"github.com/joho/godotenv"
	ucli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/docparse/config.yaml"

const shutdownTimeout = 10 * time.Second

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if present, and a missing default file falls back
// to the built-in configuration. The second return value is the file actually
// loaded, or "" for built-in defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg, err := config.Default()
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *ucli.App {
	return &ucli.App{
		Name:    "docparse",
		Usage:   "extract text and metadata from documents",
		Version: version,
		Flags: []ucli.Flag{
			&ucli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfigPath,
				Usage:   "config file path",
				EnvVars: []string{config.EnvPrefix + "CONFIG"},
			},
			&ucli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&ucli.StringFlag{
				Name:  "env-file",
				Usage: "load environment variables from `FILE` before reading config (default: .env if present)",
			},
		},
		Before: loadEnvFile,
		Commands: []*ucli.Command{
			serverCommand(),
			parseCommand(),
			watchCommand(),
			xlsxCommand(),
			captionCommand(),
			{
				Name:  "version",
				Usage: "print the version",
				Action: func(c *ucli.Context) error {
					fmt.Fprintf(c.App.Writer, "docparse version %s\n", version)
					return nil
				},
			},
		},
	}
}

// loadEnvFile loads --env-file, or .env from the working directory when it
// exists. Variables already set in the environment are not overridden.
func loadEnvFile(c *ucli.Context) error {
	if path := c.String("env-file"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// setup loads the config and creates the logger shared by every command.
func setup(c *ucli.Context) (*config.Config, *zap.Logger, error) {
	cfg, resolved, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || c.Bool("debug")
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.Bool("debug", debug),
	)
	return cfg, logger, nil
}

// buildParser wires the extraction registry and metadata assembler from cfg.
// m may be nil.
func buildParser(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*service.Parser, error) {
	mode, err := extract.ParseImageMode(cfg.Image.Mode)
	if err != nil {
		return nil, err
	}
	opts := extract.Options{
		DPI:       cfg.OCR.DPI,
		ImageMode: mode,
		Converter: convert.NewCommand(cfg.Legacy.ConverterPath),
	}
	if cfg.OCR.EnabledOrDefault() {
		opts.Recognizer = ocr.NewTesseract(cfg.OCR.TesseractPath, cfg.OCR.Language)
		opts.Rasterizer = ocr.NewPdftoppm(cfg.OCR.PdftoppmPath)
	}
	if m != nil {
		opts.Observer = m
	}
	registry := extract.NewDefaultRegistry(opts, logger)
	assembler := metadata.NewAssembler(logger)
	return service.NewParser(registry, assembler, service.WithLogger(logger)), nil
}

func captionConfig(cfg config.CaptionConfig) caption.Config {
	return caption.Config{
		Endpoint:     cfg.Endpoint,
		Model:        cfg.Model,
		APIKey:       cfg.APIKey,
		SystemPrompt: cfg.SystemPrompt,
		Timeout:      cfg.Timeout,
	}
}

func serverCommand() *ucli.Command {
	return &ucli.Command{
		Name:  "server",
		Usage: "run the HTTP API",
		Flags: []ucli.Flag{
			&ucli.StringFlag{Name: "host", Usage: "listen host (overrides config)"},
			&ucli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "listen port (overrides config)"},
		},
		Action: runServer,
	}
}

func runServer(c *ucli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}

	m := metrics.New()
	parser, err := buildParser(cfg, logger, m)
	if err != nil {
		return err
	}
	opts := []server.ServerOption{server.WithMetrics(m)}
	if cfg.Caption.Enabled {
		client, err := caption.New(captionConfig(cfg.Caption))
		if err != nil {
			return fmt.Errorf("failed to create caption client: %w", err)
		}
		opts = append(opts, server.WithCaptioner(client))
		logger.Info("captioning enabled", zap.String("model", cfg.Caption.Model))
	}
	srv := server.NewServer(parser, &cfg.Server, logger, opts...)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func parseCommand() *ucli.Command {
	return &ucli.Command{
		Name:      "parse",
		Usage:     "extract text and metadata from local files",
		ArgsUsage: "<file>...",
		Flags: []ucli.Flag{
			&ucli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: string(cli.OutputText), Usage: "output format: text or json"},
			&ucli.IntFlag{Name: "concurrency", Aliases: []string{"j"}, Value: service.DefaultConcurrency, Usage: "files parsed in parallel"},
			&ucli.IntFlag{Name: "max-content", Value: 2000, Usage: "truncate text output content to this many characters (0 = no limit)"},
		},
		Action: runParse,
	}
}

func runParse(c *ucli.Context) error {
	if c.NArg() == 0 {
		return ucli.Exit("Usage: docparse parse [options] <file>...", 1)
	}
	format, err := cli.ParseOutputFormat(c.String("format"))
	if err != nil {
		return err
	}
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	parser, err := buildParser(cfg, logger, nil)
	if err != nil {
		return err
	}
	results, err := parser.ParseFiles(c.Context, c.Args().Slice(), c.Int("concurrency"))
	if err != nil {
		return err
	}
	return cli.WriteParseResults(c.App.Writer, results, format, c.Int("max-content"))
}

func xlsxCommand() *ucli.Command {
	return &ucli.Command{
		Name:      "xlsx-to-md",
		Usage:     "render every sheet of a workbook as Markdown tables",
		ArgsUsage: "<file.xlsx>",
		Action: func(c *ucli.Context) error {
			if c.NArg() != 1 {
				return ucli.Exit("Usage: docparse xlsx-to-md <file.xlsx>", 1)
			}
			md, err := markdown.FromXLSX(c.Args().First())
			if err != nil {
				return err
			}
			_, err = io.WriteString(c.App.Writer, md+"\n")
			return err
		},
	}
}

func captionCommand() *ucli.Command {
	return &ucli.Command{
		Name:      "caption",
		Usage:     "describe an image with the configured vision model",
		ArgsUsage: "<image>",
		Flags: []ucli.Flag{
			&ucli.StringFlag{Name: "prompt", Usage: "instruction sent with the image"},
			&ucli.StringFlag{Name: "endpoint", Usage: "API base URL (overrides config)"},
			&ucli.StringFlag{Name: "model", Usage: "model name (overrides config)"},
		},
		Action: runCaption,
	}
}

func runCaption(c *ucli.Context) error {
	if c.NArg() != 1 {
		return ucli.Exit("Usage: docparse caption [options] <image>", 1)
	}
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cc := captionConfig(cfg.Caption)
	if c.IsSet("endpoint") {
		cc.Endpoint = c.String("endpoint")
	}
	if c.IsSet("model") {
		cc.Model = c.String("model")
	}
	client, err := caption.New(cc)
	if err != nil {
		return err
	}
	image, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	text, err := client.Caption(c.Context, image, c.String("prompt"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, text)
	return nil
}
