package extract

import (
	"path/filepath"
	"strings"
)

// Format is the normalized lowercase extension used to pick an extractor.
type Format string

// Formats with a built-in extractor.
const (
	FormatDOCX Format = "docx"
	FormatDOC  Format = "doc"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatPPTX Format = "pptx"
	FormatPPT  Format = "ppt"
	FormatTXT  Format = "txt"
	FormatMD   Format = "md"
	FormatLOG  Format = "log"
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
	FormatEML  Format = "eml"
	FormatMSG  Format = "msg"
	FormatPNG  Format = "png"
	FormatJPG  Format = "jpg"
	FormatJPEG Format = "jpeg"
	FormatODT  Format = "odt"
	FormatRTF  Format = "rtf"
	FormatODP  Format = "odp"
	FormatODS  Format = "ods"
)

// DetectFormat returns the lowercased text after the last "." of the file name.
// Names without a "." yield the empty Format. Directory components are ignored.
func DetectFormat(filename string) Format {
	base := filepath.Base(filename)
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return ""
	}
	return Format(strings.ToLower(base[i+1:]))
}

// String returns the tag as a plain string.
func (f Format) String() string {
	return string(f)
}
