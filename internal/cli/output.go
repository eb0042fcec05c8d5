// Package cli provides output helpers for the docparse command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/docparse/internal/models"
	"github.com/hyperjump/docparse/pkg/utils"
)

// OutputFormat is the format for parse result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteParseResults writes results to w. In text mode content longer than
// maxContent characters is truncated; 0 prints it whole.
func WriteParseResults(w io.Writer, results []models.ParseResult, format OutputFormat, maxContent int) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(results) == 1 && results[0].Response != nil {
			return enc.Encode(results[0].Response)
		}
		return enc.Encode(results)
	}
	for _, r := range results {
		writeResultText(w, r, maxContent)
	}
	return nil
}

func writeResultText(w io.Writer, r models.ParseResult, maxContent int) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "File: %s\n", r.Path)
	if r.Error != "" {
		fmt.Fprintf(w, "Error: %s\n\n", r.Error)
		return
	}
	resp := r.Response
	if resp == nil {
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "Type: %s\n", displayType(resp.FileType))
	if md := FormatMetadata(resp.Metadata); md != "" {
		fmt.Fprintf(w, "Metadata: %s\n", md)
	}
	content := resp.Content
	if content == "" {
		content = "(no content)"
	}
	fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(content, maxContent))
}

func displayType(t string) string {
	if t == "" {
		return "(none)"
	}
	return t
}

// FormatMetadata renders metadata as sorted key=value pairs.
func FormatMetadata(md map[string]any) string {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, md[k])
	}
	return strings.Join(parts, " ")
}
