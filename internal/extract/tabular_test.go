package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSVTable(t *testing.T) {
	path := writeFile(t, "data.csv", []byte("\ufeffa,b\n1,2\n3,4\n"))

	tbl, err := ReadCSVTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Header)
	rows, cols := tbl.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)

	out, err := tbl.CSV()
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n3,4\n", out)
}

func TestReadCSVTable_errors(t *testing.T) {
	_, err := ReadCSVTable(writeFile(t, "empty.csv", nil))
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = ReadCSVTable(writeFile(t, "wide.csv", []byte("a,b\n1,2,3\n")))
	assert.Error(t, err)
}

func TestReadCSVTable_emptyCellRowsKept(t *testing.T) {
	tbl, err := ReadCSVTable(writeFile(t, "gaps.csv", []byte("a,b\n,\n\n1,2\n")))
	require.NoError(t, err)
	rows, cols := tbl.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	out, err := tbl.CSV()
	require.NoError(t, err)
	assert.Equal(t, "a,b\n,\n1,2\n", out)

	tbl, err = ReadCSVTable(writeFile(t, "blank.csv", []byte(",,\n,,\n")))
	require.NoError(t, err)
	assert.Equal(t, []string{"Unnamed: 0", "Unnamed: 1", "Unnamed: 2"}, tbl.Header)
	assert.Equal(t, [][]string{{"", "", ""}}, tbl.Rows)
}

func TestCSVExtractor_shortRowsPadded(t *testing.T) {
	path := writeFile(t, "short.csv", []byte("a,b,c\n1\n\n2,3\n"))
	r := NewDefaultRegistry(Options{}, nil)
	assert.Equal(t, "a,b,c\n1,,\n2,3,\n", r.Route(path, FormatCSV))
}

func TestCSVExtractor_quotedFields(t *testing.T) {
	path := writeFile(t, "quoted.csv", []byte("name,note\n\"Doe, Jane\",\"said \"\"hi\"\"\"\n"))
	got, err := csvExtractor{}.Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "name,note\n\"Doe, Jane\",\"said \"\"hi\"\"\"\n", got)
}

func TestNewTable(t *testing.T) {
	tbl := NewTable([][]string{
		{"", "", ""},
		{"id", "", "name"},
		{"1", "x"},
		{"", "", ""},
		{"2", "y", "z", "extra"},
	})
	assert.Equal(t, []string{"id", "Unnamed: 1", "name", "Unnamed: 3"}, tbl.Header)
	assert.Equal(t, [][]string{{"1", "x", "", ""}, {"2", "y", "z", "extra"}}, tbl.Rows)

	empty := NewTable(nil)
	rows, cols := empty.Shape()
	assert.Zero(t, rows)
	assert.Zero(t, cols)
}

func TestReadSheetTable(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet("Numbers")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Numbers", "A1", &[]any{"n", "square"}))
	for i := 1; i <= 3; i++ {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Numbers", cell, &[]any{i, i * i}))
	}

	tbl, err := ReadSheetTable(f, "Numbers")
	require.NoError(t, err)
	rows, cols := tbl.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, []string{"3", "9"}, tbl.Rows[2])

	_, err = ReadSheetTable(f, "Missing")
	assert.Error(t, err)
}

func TestXlsxExtractor_emptyWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	path := writeFile(t, "empty.xlsx", nil)
	require.NoError(t, f.SaveAs(path))

	got, err := xlsxExtractor{}.Extract(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestXlsxExtractor_notWorkbook(t *testing.T) {
	path := writeFile(t, "bad.xlsx", []byte(strings.Repeat("x", 64)))
	_, err := xlsxExtractor{}.Extract(path)
	assert.Error(t, err)
}
