package statement

import (
	"strconv"
	"strings"
)

// CellKind tags the three shapes a decoded spreadsheet cell can take.
type CellKind uint8

const (
	EmptyCell CellKind = iota
	NumberCell
	TextCell
)

// Cell is a closed variant over {Empty, Number, Text}. The zero value is Empty.
type Cell struct {
	kind CellKind
	num  float64
	text string
}

// Empty returns a blank cell.
func Empty() Cell { return Cell{} }

// Num returns a numeric cell.
func Num(v float64) Cell { return Cell{kind: NumberCell, num: v} }

// Str returns a text cell; whitespace-only text is Empty.
func Str(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{kind: TextCell, text: s}
}

func (c Cell) Kind() CellKind { return c.kind }
func (c Cell) IsEmpty() bool  { return c.kind == EmptyCell }

// Number returns the numeric value of a Number cell.
func (c Cell) Number() (float64, bool) {
	return c.num, c.kind == NumberCell
}

// String renders the cell as text. Whole numbers print without a fraction or
// exponent so that numeric tickets survive unchanged.
func (c Cell) String() string {
	switch c.kind {
	case NumberCell:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case TextCell:
		return strings.TrimSpace(c.text)
	default:
		return ""
	}
}

func (c Cell) lower() string {
	return strings.ToLower(c.String())
}

// Sheet is a named grid of cells. Rows may be ragged.
type Sheet struct {
	Name string
	Rows [][]Cell
}

// Workbook is the decoded form of a statement file.
type Workbook struct {
	Sheets []Sheet
}

// Row builds a row from loosely typed values, mainly for tests and CSV input:
// float64 and int become Number, string becomes Text (or Empty), nil is Empty.
func Row(values ...any) []Cell {
	out := make([]Cell, len(values))
	for i, v := range values {
		switch t := v.(type) {
		case nil:
			out[i] = Empty()
		case float64:
			out[i] = Num(t)
		case int:
			out[i] = Num(float64(t))
		case int64:
			out[i] = Num(float64(t))
		case string:
			out[i] = Str(t)
		case Cell:
			out[i] = t
		default:
			out[i] = Empty()
		}
	}
	return out
}
