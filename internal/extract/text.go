package extract

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// textExtractor reads plain text files (.txt, .md, .log).
type textExtractor struct{}

// Extract returns the file content. Invalid UTF-8 is an error; there is no
// partial decoding. Line endings are normalized to "\n".
func (textExtractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	if !utf8.Valid(content) {
		return "", fmt.Errorf("read text %s: %w", path, ErrInvalidUTF8)
	}
	return normalizeNewlines(string(content)), nil
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
