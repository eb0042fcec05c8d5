// Package ocr wraps the external OCR engine and PDF rasterizer binaries.
package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
)

// ErrUnavailable is returned when a required binary is not installed.
var ErrUnavailable = errors.New("binary not found")

// Recognizer turns an image file into text.
type Recognizer interface {
	Recognize(imagePath string) (string, error)
}

// Rasterizer renders one page of a PDF to a PNG file inside outDir and
// returns the file's path. Pages are 1-based.
type Rasterizer interface {
	Rasterize(pdfPath string, page, dpi int, outDir string) (string, error)
}

// runner executes a command and returns its stdout.
type runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return out, fmt.Errorf("%s: %w: %s", filepath.Base(name), err, msg)
		}
		return out, fmt.Errorf("%s: %w", filepath.Base(name), err)
	}
	return out, nil
}

// lookPath resolves binaries; tests replace it.
var lookPath = exec.LookPath

func resolve(bin string) (string, error) {
	p, err := lookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%s: %w", bin, ErrUnavailable)
	}
	return p, nil
}

// Tesseract runs the tesseract CLI.
type Tesseract struct {
	// Path is the binary name or path. Defaults to "tesseract".
	Path string
	// Language is passed as -l. Empty leaves tesseract's default.
	Language string

	run runner
}

// NewTesseract returns a Tesseract recognizer.
func NewTesseract(path, language string) *Tesseract {
	if path == "" {
		path = "tesseract"
	}
	return &Tesseract{Path: path, Language: language, run: execRunner}
}

// Recognize returns tesseract's stdout for the image, unmodified.
func (t *Tesseract) Recognize(imagePath string) (string, error) {
	bin, err := resolve(t.Path)
	if err != nil {
		return "", err
	}
	args := []string{imagePath, "stdout"}
	if t.Language != "" {
		args = append(args, "-l", t.Language)
	}
	out, err := t.run(bin, args...)
	if err != nil {
		return "", fmt.Errorf("recognize %s: %w", filepath.Base(imagePath), err)
	}
	return string(out), nil
}

// Pdftoppm rasterizes PDF pages with poppler's pdftoppm.
type Pdftoppm struct {
	// Path is the binary name or path. Defaults to "pdftoppm".
	Path string

	run runner
}

// NewPdftoppm returns a pdftoppm-backed Rasterizer.
func NewPdftoppm(path string) *Pdftoppm {
	if path == "" {
		path = "pdftoppm"
	}
	return &Pdftoppm{Path: path, run: execRunner}
}

// Rasterize writes outDir/page-<n>.png at the given resolution.
func (p *Pdftoppm) Rasterize(pdfPath string, page, dpi int, outDir string) (string, error) {
	bin, err := resolve(p.Path)
	if err != nil {
		return "", err
	}
	n := strconv.Itoa(page)
	prefix := filepath.Join(outDir, "page-"+n)
	args := []string{"-png", "-r", strconv.Itoa(dpi), "-f", n, "-l", n, "-singlefile", pdfPath, prefix}
	if _, err := p.run(bin, args...); err != nil {
		return "", fmt.Errorf("rasterize page %d: %w", page, err)
	}
	return prefix + ".png", nil
}
