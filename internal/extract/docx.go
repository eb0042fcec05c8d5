package extract

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// docxExtractor extracts body paragraphs from .docx files.
type docxExtractor struct{}

// Extract joins every top-level body paragraph with "\n", in document order.
// Empty paragraphs produce empty lines.
func (docxExtractor) Extract(path string) (string, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("open DOCX: %w", err)
	}
	defer doc.Close()

	paragraphs, err := docxParagraphs(strings.NewReader(doc.Editable().GetContent()))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

// docxRunWrappers are elements that may sit between a paragraph and its runs
// without hiding the run text from the paragraph.
var docxRunWrappers = map[string]bool{
	"hyperlink":  true,
	"ins":        true,
	"smartTag":   true,
	"fldSimple":  true,
	"customXml":  true,
	"sdt":        true,
	"sdtContent": true,
}

// docxParagraphs walks word/document.xml and returns the text of each w:p that
// is a direct child of w:body. Text inside text boxes and tables is skipped.
func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		stack      []string
		paragraphs []string
		current    strings.Builder
		paraDepth  = -1
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			stack = append(stack, name)
			depth := len(stack) - 1
			if name == "p" && depth > 0 && stack[depth-1] == "body" {
				paraDepth = depth
				current.Reset()
				continue
			}
			if paraDepth < 0 || !docxRunChild(stack, paraDepth) {
				continue
			}
			switch name {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			depth := len(stack) - 1
			if depth < 0 {
				continue
			}
			if depth == paraDepth {
				paragraphs = append(paragraphs, current.String())
				paraDepth = -1
			}
			if t.Name.Local == "t" {
				inText = false
			}
			stack = stack[:depth]
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}

// docxRunChild reports whether the element on top of stack is a direct child of
// a run that belongs to the paragraph at paraDepth.
func docxRunChild(stack []string, paraDepth int) bool {
	top := len(stack) - 1
	if top-1 <= paraDepth || stack[top-1] != "r" {
		return false
	}
	for i := paraDepth + 1; i < top-1; i++ {
		if !docxRunWrappers[stack[i]] {
			return false
		}
	}
	return true
}
