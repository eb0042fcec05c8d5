package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoColumns is returned when a tabular file has no header row.
var ErrNoColumns = errors.New("no columns to parse")

// Table is a parsed grid with a header row. Every row has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Shape returns the number of data rows (header excluded) and columns.
func (t *Table) Shape() (rows, columns int) {
	return len(t.Rows), len(t.Header)
}

// CSV serializes the table as CSV text with the header as the first record.
func (t *Table) CSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return "", err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// NewTable builds a table from raw records. Records made only of empty cells
// are dropped, the first remaining record becomes the header, and short rows
// are padded. Header cells that are empty or missing are named "Unnamed: N".
func NewTable(records [][]string) *Table {
	return buildTable(records, true)
}

// buildTable is NewTable with optional blank-record skipping. CSV keeps rows
// like ",," as rows of empty cells; only empty lines are skipped, and the CSV
// reader already drops those.
func buildTable(records [][]string, skipBlank bool) *Table {
	var kept [][]string
	width := 0
	for _, rec := range records {
		if skipBlank && blankRecord(rec) {
			continue
		}
		kept = append(kept, rec)
		if len(rec) > width {
			width = len(rec)
		}
	}
	if len(kept) == 0 {
		return &Table{}
	}
	header := make([]string, width)
	for i := range header {
		if i < len(kept[0]) && kept[0][i] != "" {
			header[i] = kept[0][i]
		} else {
			header[i] = "Unnamed: " + strconv.Itoa(i)
		}
	}
	rows := make([][]string, 0, len(kept)-1)
	for _, rec := range kept[1:] {
		row := make([]string, width)
		copy(row, rec)
		rows = append(rows, row)
	}
	return &Table{Header: header, Rows: rows}
}

func blankRecord(rec []string) bool {
	for _, cell := range rec {
		if cell != "" {
			return false
		}
	}
	return true
}

// ReadCSVTable parses a CSV file. Data rows wider than the header are an error.
func ReadCSVTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV: %w", err)
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoColumns
	}
	records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	headerWidth := len(records[0])
	for i, rec := range records[1:] {
		if len(rec) > headerWidth {
			return nil, fmt.Errorf("parse CSV: line %d: expected %d fields, saw %d", i+2, headerWidth, len(rec))
		}
	}
	t := buildTable(records, false)
	if len(t.Header) == 0 {
		return nil, ErrNoColumns
	}
	return t, nil
}

// ReadSheetTable parses one worksheet of an open workbook.
func ReadSheetTable(f *excelize.File, sheet string) (*Table, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	return NewTable(rows), nil
}

// ReadXLSXTable parses the first worksheet of an .xlsx workbook.
func ReadXLSXTable(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("open Excel: workbook has no sheets")
	}
	return ReadSheetTable(f, sheets[0])
}

// csvExtractor round-trips a CSV file through the table parser.
type csvExtractor struct{}

func (csvExtractor) Extract(path string) (string, error) {
	t, err := ReadCSVTable(path)
	if err != nil {
		return "", err
	}
	return t.CSV()
}

// xlsxExtractor renders the first worksheet as CSV text.
type xlsxExtractor struct{}

func (xlsxExtractor) Extract(path string) (string, error) {
	t, err := ReadXLSXTable(path)
	if err != nil {
		return "", err
	}
	if len(t.Header) == 0 {
		return "", nil
	}
	return t.CSV()
}
