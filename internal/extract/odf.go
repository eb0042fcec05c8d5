package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lu4p/cat"
)

// odfContentPath is the main content part of OpenDocument packages.
const odfContentPath = "content.xml"

// catExtractor handles .odt and .rtf documents with lu4p/cat.
type catExtractor struct{}

func (catExtractor) Extract(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", DetectFormat(path), err)
	}
	return strings.TrimSpace(text), nil
}

// extractODP returns every text:p and text:h of an OpenDocument presentation,
// one per line, in document order.
func extractODP(path string) (string, error) {
	var lines []string
	err := walkODF(path, func(dec *xml.Decoder, start xml.StartElement) error {
		if start.Name.Local != "p" && start.Name.Local != "h" {
			return nil
		}
		text, err := odfElementText(dec)
		if err != nil {
			return err
		}
		if text = strings.TrimSpace(text); text != "" {
			lines = append(lines, text)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("extract ODP: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}

// extractODS returns one tab-separated line per non-empty table row of an
// OpenDocument spreadsheet.
func extractODS(path string) (string, error) {
	var (
		lines []string
		row   []string
	)
	err := walkODF(path, func(dec *xml.Decoder, start xml.StartElement) error {
		switch start.Name.Local {
		case "table-row":
			if len(row) > 0 && !blankRecord(row) {
				lines = append(lines, strings.Join(row, "\t"))
			}
			row = row[:0]
		case "table-cell":
			row = append(row, "")
		case "p":
			text, err := odfElementText(dec)
			if err != nil {
				return err
			}
			if n := len(row); n > 0 {
				if row[n-1] != "" {
					row[n-1] += " "
				}
				row[n-1] += strings.TrimSpace(text)
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("extract ODS: %w", err)
	}
	if len(row) > 0 && !blankRecord(row) {
		lines = append(lines, strings.Join(row, "\t"))
	}
	return strings.Join(lines, "\n"), nil
}

// walkODF calls fn for every start element of content.xml. fn may consume the
// element with odfElementText.
func walkODF(path string, fn func(*xml.Decoder, xml.StartElement) error) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("not a zip: %w", err)
	}
	defer zr.Close()

	content := zipIndex(&zr.Reader)[odfContentPath]
	if content == nil {
		return fmt.Errorf("%s not found", odfContentPath)
	}
	rc, err := content.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", odfContentPath, err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if start, ok := tok.(xml.StartElement); ok {
			if err := fn(dec, start); err != nil {
				return err
			}
		}
	}
}

// odfElementText reads the remaining tokens of the current element and returns
// its character data. text:s, text:tab and text:line-break become whitespace.
func odfElementText(dec *xml.Decoder) (string, error) {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "s":
				b.WriteByte(' ')
			case "tab":
				b.WriteByte('\t')
			case "line-break":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			depth--
		case xml.CharData:
			b.Write(t)
		}
	}
	return b.String(), nil
}
