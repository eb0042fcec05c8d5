// Package convert turns legacy binary office files into their XML-based
// counterparts with an external converter (unoconv or LibreOffice).
package convert

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrUnavailable is returned when the converter binary cannot be found.
var ErrUnavailable = errors.New("document converter not installed")

// Converter converts src into a file with the target extension ("docx",
// "xlsx", "pptx") and returns the converted file's path. The caller owns and
// removes the converted file.
type Converter interface {
	Convert(src, targetExt string) (string, error)
}

// Command converts with unoconv, or with soffice/libreoffice in headless mode
// when Path names one of those binaries.
type Command struct {
	// Path is the converter binary. Defaults to "unoconv".
	Path string

	lookPath func(string) (string, error)
	run      func(name string, args ...string) error
}

// NewCommand returns a Command converter using the given binary.
func NewCommand(path string) *Command {
	if path == "" {
		path = "unoconv"
	}
	return &Command{Path: path, lookPath: exec.LookPath, run: runCommand}
}

func runCommand(name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// OutputPath is where the converted copy of src is written.
func OutputPath(src, targetExt string) string {
	return src + ".converted." + strings.TrimPrefix(targetExt, ".")
}

// Convert writes OutputPath(src, targetExt) next to src.
func (c *Command) Convert(src, targetExt string) (string, error) {
	ext := strings.TrimPrefix(targetExt, ".")
	bin, err := c.lookPath(c.Path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.Path, ErrUnavailable)
	}
	out := OutputPath(src, ext)
	if isOffice(bin) {
		err = c.convertOffice(bin, src, ext, out)
	} else {
		err = c.run(bin, "-f", ext, "-o", out, src)
	}
	if err != nil {
		return "", fmt.Errorf("convert %s to %s: %w", filepath.Base(src), ext, err)
	}
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("convert %s to %s: no output: %w", filepath.Base(src), ext, err)
	}
	return out, nil
}

// convertOffice runs soffice, which names its output after the input file in
// a chosen directory, then moves the result to out.
func (c *Command) convertOffice(bin, src, ext, out string) error {
	dir, err := os.MkdirTemp(filepath.Dir(src), ".docparse-convert-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	if err := c.run(bin, "--headless", "--convert-to", ext, "--outdir", dir, src); err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return os.Rename(filepath.Join(dir, base+"."+ext), out)
}

func isOffice(bin string) bool {
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(bin), ".exe"))
	return name == "soffice" || name == "libreoffice"
}
