package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/hyperjump/docparse/internal/ocr"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// DefaultDPI is the rasterization resolution for OCR of PDF pages.
const DefaultDPI = 300

// pdfExtractor reads native page text and falls back to OCR page by page.
type pdfExtractor struct {
	recognizer ocr.Recognizer
	rasterizer ocr.Rasterizer
	dpi        int
	logger     *zap.Logger
}

func newPDFExtractor(recognizer ocr.Recognizer, rasterizer ocr.Rasterizer, dpi int, logger *zap.Logger) *pdfExtractor {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &pdfExtractor{recognizer: recognizer, rasterizer: rasterizer, dpi: dpi, logger: logger}
}

// Extract walks pages in order. A page whose native text is blank after
// trimming is rasterized and OCR'd, and the OCR text is used as-is, even when
// empty. Every page is followed by "\n"; the result is trimmed.
func (e *pdfExtractor) Extract(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	scratch := &scratchDir{}
	defer scratch.remove()

	var b strings.Builder
	for n := 1; n <= r.NumPage(); n++ {
		text := e.nativeText(r, n)
		if strings.TrimSpace(text) == "" {
			text, err = e.ocrPage(path, n, scratch)
			if err != nil {
				return "", err
			}
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String()), nil
}

// nativeText returns the page's text layer. Extraction errors count as an
// empty page so the OCR path gets a chance.
func (e *pdfExtractor) nativeText(r *pdf.Reader, n int) (text string) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Debug("native PDF text panicked", zap.Int("page", n), zap.Any("panic", p))
			text = ""
		}
	}()
	page := r.Page(n)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		e.logger.Debug("native PDF text failed", zap.Int("page", n), zap.Error(err))
		return ""
	}
	return text
}

func (e *pdfExtractor) ocrPage(path string, n int, scratch *scratchDir) (string, error) {
	if e.recognizer == nil || e.rasterizer == nil {
		return "", nil
	}
	dir, err := scratch.path()
	if err != nil {
		return "", fmt.Errorf("ocr page %d: %w", n, err)
	}
	img, err := e.rasterizer.Rasterize(path, n, e.dpi, dir)
	if err != nil {
		return "", fmt.Errorf("ocr page %d: %w", n, err)
	}
	defer os.Remove(img)
	text, err := e.recognizer.Recognize(img)
	if err != nil {
		return "", fmt.Errorf("ocr page %d: %w", n, err)
	}
	e.logger.Debug("PDF page recognized with OCR", zap.String("path", path), zap.Int("page", n))
	return text, nil
}

// PageCount returns the number of pages in a PDF.
func PageCount(path string) (int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()
	return r.NumPage(), nil
}

// scratchDir is a temporary directory created on first use.
type scratchDir struct {
	dir string
}

func (s *scratchDir) path() (string, error) {
	if s.dir != "" {
		return s.dir, nil
	}
	dir, err := os.MkdirTemp("", "docparse-ocr-*")
	if err != nil {
		return "", err
	}
	s.dir = dir
	return dir, nil
}

func (s *scratchDir) remove() {
	if s.dir != "" {
		_ = os.RemoveAll(s.dir)
	}
}
