// Package markdown renders spreadsheets as Markdown tables.
package markdown

import (
	"fmt"
	"strings"

	"github.com/hyperjump/docparse/internal/extract"
	"github.com/xuri/excelize/v2"
)

// NoDataMessage is returned when no worksheet has data rows.
const NoDataMessage = "No data found in the XLSX file."

// FromXLSX renders every worksheet with at least one data row as a
// "## {sheet}" section holding a pipe table. Sections are joined with "\n".
func FromXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var sections []string
	for _, sheet := range f.GetSheetList() {
		t, err := extract.ReadSheetTable(f, sheet)
		if err != nil {
			return "", err
		}
		if rows, _ := t.Shape(); rows == 0 {
			continue
		}
		sections = append(sections, fmt.Sprintf("## %s\n\n%s\n", sheet, Table(t)))
	}
	if len(sections) == 0 {
		return NoDataMessage, nil
	}
	return strings.Join(sections, "\n"), nil
}

// Table renders t as a pipe table without a trailing newline.
func Table(t *extract.Table) string {
	var b strings.Builder
	writeRow(&b, t.Header)
	sep := make([]string, len(t.Header))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteByte('\n')
	writeRow(&b, sep)
	for _, row := range t.Rows {
		b.WriteByte('\n')
		writeRow(&b, row)
	}
	return b.String()
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>")

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(cellEscaper.Replace(c))
		b.WriteString(" |")
	}
}
