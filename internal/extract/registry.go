// Package extract converts documents on disk into best-effort plain text.
//
// Every format is handled by an Extractor registered under one or more Format
// tags. Registry.Route never fails: extractor errors and panics are logged and
// turned into the empty string, which is the "no content" sentinel.
package extract

import (
	"sort"
	"time"

	"github.com/hyperjump/docparse/internal/convert"
	"github.com/hyperjump/docparse/internal/ocr"
	"go.uber.org/zap"
)

// Extractor converts the file at path into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(path string) (string, error)

// Extract calls f(path).
func (f ExtractorFunc) Extract(path string) (string, error) {
	return f(path)
}

// Observer receives one call per routed extraction. Outcome is one of
// OutcomeOK, OutcomeDegraded, OutcomeFailed or OutcomeUnsupported.
type Observer interface {
	ObserveExtraction(format, outcome string, elapsed time.Duration)
}

// Options configures the built-in extractors.
type Options struct {
	// Recognizer runs OCR on images and on PDF pages without native text.
	// Nil disables OCR.
	Recognizer ocr.Recognizer
	// Rasterizer renders PDF pages for OCR.
	Rasterizer ocr.Rasterizer
	// DPI is the PDF rasterization resolution; 0 means DefaultDPI.
	DPI int
	// ImageMode selects OCR or the captioning placeholder for images.
	ImageMode ImageMode
	// Converter turns legacy office files into their modern counterparts.
	Converter convert.Converter
	// Observer is notified after every routed extraction. Optional.
	Observer Observer
}

// Registry maps formats to extractors. Registration is expected to finish
// before the registry is shared between goroutines.
type Registry struct {
	extractors map[Format]Extractor
	observer   Observer
	logger     *zap.Logger
}

// NewRegistry returns an empty registry. Use Register to add extractors.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		extractors: make(map[Format]Extractor),
		logger:     logger,
	}
}

// NewDefaultRegistry returns a registry with every built-in format registered.
func NewDefaultRegistry(opts Options, logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	r.observer = opts.Observer

	docx := &docxExtractor{}
	xlsx := &xlsxExtractor{}
	pptx := &pptxExtractor{}

	r.Register(docx, FormatDOCX)
	r.Register(xlsx, FormatXLSX)
	r.Register(pptx, FormatPPTX)
	r.Register(newLegacyBridge(opts.Converter, "docx", docx), FormatDOC)
	r.Register(newLegacyBridge(opts.Converter, "xlsx", xlsx), FormatXLS)
	r.Register(newLegacyBridge(opts.Converter, "pptx", pptx), FormatPPT)
	r.Register(textExtractor{}, FormatTXT, FormatMD, FormatLOG)
	r.Register(newPDFExtractor(opts.Recognizer, opts.Rasterizer, opts.DPI, r.logger), FormatPDF)
	r.Register(csvExtractor{}, FormatCSV)
	r.Register(emlExtractor{}, FormatEML)
	r.Register(msgExtractor{}, FormatMSG)
	r.Register(newImageExtractor(opts.ImageMode, opts.Recognizer), FormatPNG, FormatJPG, FormatJPEG)
	r.Register(catExtractor{}, FormatODT, FormatRTF)
	r.Register(ExtractorFunc(extractODP), FormatODP)
	r.Register(ExtractorFunc(extractODS), FormatODS)
	return r
}

// Register binds e to each of the given formats, replacing any previous binding.
func (r *Registry) Register(e Extractor, formats ...Format) {
	for _, f := range formats {
		r.extractors[f] = e
	}
}

// Lookup returns the extractor bound to f.
func (r *Registry) Lookup(f Format) (Extractor, bool) {
	e, ok := r.extractors[f]
	return e, ok
}

// Formats returns the registered formats in sorted order.
func (r *Registry) Formats() []Format {
	out := make([]Format, 0, len(r.extractors))
	for f := range r.extractors {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Route extracts text from path with the extractor registered for f.
// Unsupported formats and failed extractions return "".
func (r *Registry) Route(path string, f Format) string {
	start := time.Now()
	e, ok := r.Lookup(f)
	if !ok {
		r.logger.Warn("unsupported file type", zap.String("format", f.String()), zap.String("path", path))
		r.observe(f, OutcomeUnsupported, start)
		return ""
	}
	text, outcome := r.settle(f, path, run(e, path))
	r.observe(f, outcome, start)
	return text
}

func (r *Registry) observe(f Format, outcome string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveExtraction(f.String(), outcome, time.Since(start))
	}
}
