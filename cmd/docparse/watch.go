package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/hyperjump/docparse/internal/fileid"
	"github.com/hyperjump/docparse/internal/service"
	"github.com/hyperjump/docparse/internal/watcher"
	ucli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func watchCommand() *ucli.Command {
	return &ucli.Command{
		Name:      "watch",
		Usage:     "parse files as they land in inbox directories",
		ArgsUsage: "[dir]...",
		Flags: []ucli.Flag{
			&ucli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write one JSON result per file to this directory (default: config watch.output_dir, else stdout)"},
			&ucli.BoolFlag{Name: "sync", Value: true, Usage: "parse files already present on startup"},
		},
		Action: runWatch,
	}
}

func runWatch(c *ucli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	dirs := c.Args().Slice()
	if len(dirs) == 0 {
		dirs = cfg.Watch.Directories
	}
	if len(dirs) == 0 {
		return ucli.Exit("Usage: docparse watch [options] <dir>... (or set watch.directories in config)", 1)
	}
	for i, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return fmt.Errorf("invalid directory %s: %w", d, err)
		}
		dirs[i] = abs
	}

	outDir := cfg.Watch.OutputDir
	if c.IsSet("output") {
		outDir = c.String("output")
	}
	if outDir != "" {
		if outDir, err = filepath.Abs(outDir); err != nil {
			return err
		}
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	parser, err := buildParser(cfg, logger, nil)
	if err != nil {
		return err
	}
	sink := newResultSink(parser, outDir, c.App.Writer, logger)
	recursive := cfg.Watch.RecursiveOrDefault()
	w := watcher.NewWatcher(dirs, cfg.Watch.Extensions, recursive, sink.handle,
		watcher.WithLogger(logger),
		watcher.WithIgnore(outDir),
		watcher.WithRemoveHandler(sink.remove),
	)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()
	logger.Info("watching directories",
		zap.Strings("directories", w.Directories()),
		zap.Bool("recursive", recursive),
		zap.String("output_dir", outDir),
	)
	if c.Bool("sync") {
		w.SyncExistingFiles()
	}
	<-ctx.Done()
	logger.Info("watcher stopped")
	return nil
}

// resultSink parses settled inbox files and writes each response either as a
// file in dir or as one JSON line on out.
type resultSink struct {
	parser *service.Parser
	dir    string
	out    io.Writer
	mu     sync.Mutex
	logger *zap.Logger
}

func newResultSink(parser *service.Parser, dir string, out io.Writer, logger *zap.Logger) *resultSink {
	return &resultSink{parser: parser, dir: dir, out: out, logger: logger}
}

func (s *resultSink) handle(path string) {
	if fileid.IsOutput(path) {
		return
	}
	resp := s.parser.Parse(path, "")
	if s.dir == "" {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := json.NewEncoder(s.out).Encode(resp); err != nil {
			s.logger.Warn("failed to write result", zap.String("path", path), zap.Error(err))
		}
		return
	}
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		s.logger.Warn("failed to encode result", zap.String("path", path), zap.Error(err))
		return
	}
	target := filepath.Join(s.dir, fileid.OutputName(path))
	if err := os.WriteFile(target, append(data, '\n'), 0644); err != nil {
		s.logger.Warn("failed to write result", zap.String("path", path), zap.Error(err))
		return
	}
	s.logger.Debug("result written", zap.String("path", path), zap.String("output", target))
}

// remove deletes the result file of a document removed from an inbox.
func (s *resultSink) remove(path string) {
	if s.dir == "" {
		return
	}
	target := filepath.Join(s.dir, fileid.OutputName(path))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove result", zap.String("output", target), zap.Error(err))
	}
}
