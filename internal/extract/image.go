package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/docparse/internal/ocr"
)

// ImageMode selects how image files are handled.
type ImageMode string

const (
	// ImageModeOCR runs OCR on the image.
	ImageModeOCR ImageMode = "ocr"
	// ImageModeCaption returns CaptionPlaceholder; captions come from the
	// captioning endpoint instead.
	ImageModeCaption ImageMode = "caption"
)

// CaptionPlaceholder is the image content returned in caption mode.
const CaptionPlaceholder = "Image captioning is enabled. Submit this image to the /caption endpoint to get a description."

// ParseImageMode validates a configured image mode. Empty means OCR.
func ParseImageMode(s string) (ImageMode, error) {
	switch m := ImageMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ImageModeOCR:
		return ImageModeOCR, nil
	case ImageModeCaption:
		return m, nil
	default:
		return "", fmt.Errorf("unknown image mode %q", s)
	}
}

var errOCRDisabled = errors.New("OCR is disabled")

type imageExtractor struct {
	mode       ImageMode
	recognizer ocr.Recognizer
}

func newImageExtractor(mode ImageMode, recognizer ocr.Recognizer) *imageExtractor {
	if mode == "" {
		mode = ImageModeOCR
	}
	return &imageExtractor{mode: mode, recognizer: recognizer}
}

// Extract returns the recognized text verbatim, or the caption placeholder.
func (e *imageExtractor) Extract(path string) (string, error) {
	if e.mode == ImageModeCaption {
		return CaptionPlaceholder, nil
	}
	if e.recognizer == nil {
		return "", errOCRDisabled
	}
	return e.recognizer.Recognize(path)
}
