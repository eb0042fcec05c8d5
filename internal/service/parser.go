// Package service ties format detection, extraction and metadata together.
package service

import (
	"context"
	"path/filepath"

	"github.com/hyperjump/docparse/internal/extract"
	"github.com/hyperjump/docparse/internal/metadata"
	"github.com/hyperjump/docparse/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds ParseFiles when no limit is given.
const DefaultConcurrency = 4

// Parser turns a file on disk into a ParseResponse.
type Parser struct {
	registry  *extract.Registry
	assembler *metadata.Assembler
	logger    *zap.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithLogger sets the logger used for per-file debug output.
func WithLogger(l *zap.Logger) ParserOption {
	return func(p *Parser) { p.logger = l }
}

// NewParser returns a parser over the given registry and metadata assembler.
func NewParser(registry *extract.Registry, assembler *metadata.Assembler, opts ...ParserOption) *Parser {
	p := &Parser{registry: registry, assembler: assembler, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse detects the format from filename, extracts text from path and
// assembles metadata. filename may differ from path (uploads are stored under
// temporary names); when empty, the base name of path is used. Parse never
// fails: extraction and metadata degrade independently.
func (p *Parser) Parse(path, filename string) *models.ParseResponse {
	if filename == "" {
		filename = filepath.Base(path)
	}
	format := extract.DetectFormat(filename)
	content := p.registry.Route(path, format)
	md := p.assembler.Assemble(path, format)
	p.logger.Debug("parsed file",
		zap.String("filename", filename),
		zap.String("format", format.String()),
		zap.Int("content_len", len(content)),
	)
	return &models.ParseResponse{
		Filename: filename,
		FileType: format.String(),
		Metadata: md,
		Content:  content,
	}
}

// ParseFiles parses paths with at most limit files in flight and returns the
// results in input order. It stops early only when ctx is cancelled.
func (p *Parser) ParseFiles(ctx context.Context, paths []string, limit int) ([]models.ParseResult, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	results := make([]models.ParseResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = models.ParseResult{Path: path, Response: p.Parse(path, "")}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Supported reports whether the format of filename has a registered extractor.
func (p *Parser) Supported(filename string) bool {
	_, ok := p.registry.Lookup(extract.DetectFormat(filename))
	return ok
}
