package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrDecode means the input could not be read as a spreadsheet.
var ErrDecode = errors.New("invalid statement file")

// DecodeXLSX reads every sheet of an Excel workbook. Cells whose formatted
// text is a plain number become Number cells.
func DecodeXLSX(r io.Reader) (Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Workbook{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	var wb Workbook
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return Workbook{}, fmt.Errorf("%w: sheet %q: %v", ErrDecode, name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: toCells(rows)})
	}
	if len(wb.Sheets) == 0 {
		return Workbook{}, fmt.Errorf("%w: no sheets", ErrDecode)
	}
	return wb, nil
}

// DecodeCSV reads a delimited export as a single sheet named name. The
// delimiter is sniffed from the first line (comma, semicolon or tab).
func DecodeCSV(r io.Reader, name string) (Workbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Workbook{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = sniffDelimiter(text)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return Workbook{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return Workbook{Sheets: []Sheet{{Name: name, Rows: toCells(rows)}}}, nil
}

// Decode picks a decoder from the file name's extension.
func Decode(name string, r io.Reader) (Workbook, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv", ".tsv", ".txt":
		return DecodeCSV(r, strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	default:
		return DecodeXLSX(r)
	}
}

func sniffDelimiter(text string) rune {
	line := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	best, bestN := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

func toCells(rows [][]string) [][]Cell {
	out := make([][]Cell, len(rows))
	for i, row := range rows {
		cells := make([]Cell, len(row))
		for j, v := range row {
			cells[j] = textCell(v)
		}
		out[i] = cells
	}
	return out
}

func textCell(v string) Cell {
	s := strings.TrimSpace(v)
	if s == "" {
		return Empty()
	}
	// ParseFloat also takes "NaN" and "Inf"; those stay text
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Num(f)
	}
	return Str(s)
}
