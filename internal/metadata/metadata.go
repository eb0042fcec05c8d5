// Package metadata computes lightweight structural facts about a document:
// its size plus page, slide, row and column counts where the format has them.
//
// Every probe is independently fault-tolerant. A probe that cannot read the
// file reports zero values and the failure is logged, never returned.
package metadata

import (
	"fmt"
	"os"

	"github.com/hyperjump/docparse/internal/extract"
	"go.uber.org/zap"
)

// Keys of the metadata map.
const (
	KeySizeBytes  = "size_bytes"
	KeyPageCount  = "page_count"
	KeySlideCount = "slide_count"
	KeyRows       = "rows"
	KeyColumns    = "columns"
)

// Probe adds format-specific entries to md. A probe writes its zero values
// before reading the file so a failure leaves them in place.
type Probe func(path string, md map[string]any) error

// SizeBytes returns the file size, or 0 if the file cannot be stat'ed.
func SizeBytes(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// PageCount probes the number of PDF pages.
func PageCount(path string, md map[string]any) error {
	md[KeyPageCount] = 0
	n, err := extract.PageCount(path)
	if err != nil {
		return err
	}
	md[KeyPageCount] = n
	return nil
}

// SlideCount probes the number of slides of a .pptx deck.
func SlideCount(path string, md map[string]any) error {
	md[KeySlideCount] = 0
	n, err := extract.SlideCount(path)
	if err != nil {
		return err
	}
	md[KeySlideCount] = n
	return nil
}

// CSVShape probes data rows (header excluded) and columns of a CSV file.
func CSVShape(path string, md map[string]any) error {
	return shape(md, func() (*extract.Table, error) { return extract.ReadCSVTable(path) })
}

// XLSXShape probes data rows and columns of the first worksheet.
func XLSXShape(path string, md map[string]any) error {
	return shape(md, func() (*extract.Table, error) { return extract.ReadXLSXTable(path) })
}

func shape(md map[string]any, read func() (*extract.Table, error)) error {
	md[KeyRows], md[KeyColumns] = 0, 0
	t, err := read()
	if err != nil {
		return err
	}
	md[KeyRows], md[KeyColumns] = t.Shape()
	return nil
}

// Assembler builds the metadata map for a file.
type Assembler struct {
	probes map[extract.Format]Probe
	logger *zap.Logger
}

// NewAssembler returns an assembler with the built-in probes registered.
func NewAssembler(logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		probes: map[extract.Format]Probe{
			extract.FormatPDF:  PageCount,
			extract.FormatPPTX: SlideCount,
			extract.FormatCSV:  CSVShape,
			extract.FormatXLSX: XLSXShape,
		},
		logger: logger,
	}
}

// Register binds a probe to a format, replacing any previous one.
func (a *Assembler) Register(f extract.Format, p Probe) {
	a.probes[f] = p
}

// Assemble returns size_bytes plus whatever the format's probe reports.
// Formats without a probe get size_bytes only.
func (a *Assembler) Assemble(path string, f extract.Format) map[string]any {
	md := map[string]any{KeySizeBytes: SizeBytes(path)}
	probe, ok := a.probes[f]
	if !ok {
		return md
	}
	if err := runProbe(probe, path, md); err != nil {
		a.logger.Warn("metadata probe failed",
			zap.String("format", f.String()),
			zap.String("path", path),
			zap.Error(err),
		)
	}
	return md
}

// runProbe calls p, turning a panic into an error.
func runProbe(p Probe, path string, md map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("metadata probe panic: %v", r)
		}
	}()
	return p(path, md)
}
