package extract

import (
	"errors"
	"os"

	"github.com/hyperjump/docparse/internal/convert"
)

// LegacyUnavailableMessage is the content returned for .doc/.xls/.ppt files
// when the converter is missing or fails.
const LegacyUnavailableMessage = "Legacy format parsing requires unoconv/libreoffice installed."

var errNoConverter = errors.New("no document converter configured")

// legacyBridge converts a legacy office file and re-enters the modern extractor.
type legacyBridge struct {
	converter convert.Converter
	target    string
	modern    Extractor
}

func newLegacyBridge(c convert.Converter, target string, modern Extractor) *legacyBridge {
	return &legacyBridge{converter: c, target: target, modern: modern}
}

// Extract fails with a Fallback carrying LegacyUnavailableMessage when the
// conversion cannot be done. The converted file is removed afterwards.
func (b *legacyBridge) Extract(path string) (string, error) {
	if b.converter == nil {
		return "", &Fallback{Text: LegacyUnavailableMessage, Err: errNoConverter}
	}
	out, err := b.converter.Convert(path, b.target)
	if err != nil {
		return "", &Fallback{Text: LegacyUnavailableMessage, Err: err}
	}
	defer os.Remove(out)
	return b.modern.Extract(out)
}
