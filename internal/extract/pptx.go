package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	pptxPresentationPath = "ppt/presentation.xml"
	pptxPresentationRels = "ppt/_rels/presentation.xml.rels"
)

// pptxSlideFile matches slide parts such as ppt/slides/slide12.xml.
var pptxSlideFile = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// pptxExtractor emits one line per text-bearing shape, in deck then shape order.
type pptxExtractor struct{}

func (pptxExtractor) Extract(p string) (string, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return "", fmt.Errorf("extract PPTX: not a zip: %w", err)
	}
	defer zr.Close()

	files := zipIndex(&zr.Reader)
	var lines []string
	for _, slide := range pptxSlidePaths(files) {
		f, ok := files[slide]
		if !ok {
			continue
		}
		texts, err := pptxShapeTexts(f)
		if err != nil {
			return "", fmt.Errorf("extract PPTX: %s: %w", slide, err)
		}
		lines = append(lines, texts...)
	}
	return strings.Join(lines, "\n"), nil
}

// SlideCount returns the number of slides in a .pptx deck.
func SlideCount(p string) (int, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return 0, fmt.Errorf("open PPTX: %w", err)
	}
	defer zr.Close()
	return len(pptxSlidePaths(zipIndex(&zr.Reader))), nil
}

func zipIndex(zr *zip.Reader) map[string]*zip.File {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	return files
}

type pptxPresentation struct {
	SlideIDs []struct {
		RelID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type pptxRelationships struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// pptxSlidePaths returns slide part names in presentation order. Decks without
// a readable presentation part fall back to numeric slide-file order.
func pptxSlidePaths(files map[string]*zip.File) []string {
	if paths := pptxOrderedSlides(files); len(paths) > 0 {
		return paths
	}
	type numbered struct {
		name string
		n    int
	}
	var slides []numbered
	for name := range files {
		m := pptxSlideFile.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, numbered{name: name, n: n})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })
	out := make([]string, len(slides))
	for i, s := range slides {
		out[i] = s.name
	}
	return out
}

func pptxOrderedSlides(files map[string]*zip.File) []string {
	var pres pptxPresentation
	if err := decodeZipXML(files[pptxPresentationPath], &pres); err != nil {
		return nil
	}
	var rels pptxRelationships
	if err := decodeZipXML(files[pptxPresentationRels], &rels); err != nil {
		return nil
	}
	targets := make(map[string]string, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		target := rel.Target
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			target = path.Join("ppt", target)
		}
		targets[rel.ID] = target
	}
	var out []string
	for _, id := range pres.SlideIDs {
		if target, ok := targets[id.RelID]; ok {
			out = append(out, target)
		}
	}
	return out
}

func decodeZipXML(f *zip.File, v any) error {
	if f == nil {
		return errors.New("part not found")
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

// pptxShapeTexts returns the text of every p:sp shape placed directly on the
// slide's shape tree. Paragraphs inside a shape are joined with "\n".
func pptxShapeTexts(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var (
		stack   []string
		texts   []string
		shape   []string
		para    strings.Builder
		shapeAt = -1
		inShape bool
		inText  bool
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
			if name == "sp" && depth >= 2 && stack[depth-1] == "spTree" && stack[depth-2] == "cSld" {
				inShape, shapeAt, shape = true, depth, nil
				continue
			}
			if !inShape {
				continue
			}
			switch name {
			case "p":
				if stack[depth-1] == "txBody" {
					para.Reset()
				}
			case "t":
				inText = true
			case "br":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			depth := len(stack) - 1
			if depth < 0 {
				continue
			}
			name := t.Name.Local
			switch {
			case inShape && depth == shapeAt:
				texts = append(texts, strings.Join(shape, "\n"))
				inShape, shapeAt = false, -1
			case inShape && name == "p" && depth > 0 && stack[depth-1] == "txBody":
				shape = append(shape, para.String())
			case name == "t":
				inText = false
			}
			stack = stack[:depth]
		case xml.CharData:
			if inShape && inText {
				para.Write(t)
			}
		}
	}
	return texts, nil
}
