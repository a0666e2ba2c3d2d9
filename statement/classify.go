package statement

import (
	"errors"
	"strings"
)

// ErrHeaderNotFound means no row of the scanned window looks like a trade
// table header.
var ErrHeaderNotFound = errors.New("trade table not found")

// DefaultHeaderScanRows bounds the header search.
const DefaultHeaderScanRows = 100

// Role is the meaning of a statement column.
type Role int

const (
	Symbol Role = iota
	Profit
	Commission
	Swap
	Ticket
	Type
	Volume
	Time
)

var roleNames = [...]string{"symbol", "profit", "commission", "swap", "ticket", "type", "volume", "time"}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return "unknown"
	}
	return roleNames[r]
}

// header tokens per role, compared by exact lowercase equality
var roleTokens = map[Role][]string{
	Profit:     {"profit", "الربح", "ربح", "الأرباح"},
	Symbol:     {"symbol", "الرمز", "رمز"},
	Ticket:     {"position", "order", "ticket", "#", "المركز", "مركز", "الأمر", "أمر", "التذكرة"},
	Commission: {"commission", "العمولة", "عمولة"},
	Swap:       {"swap", "المبادلة", "مبادلة", "سواب"},
	Type:       {"type", "النوع", "نوع"},
	Volume:     {"volume", "الحجم", "حجم", "الكمية"},
}

var (
	timeTokens    = []string{"time", "وقت"}
	symbolMarkers = []string{"symbol", "رمز"}
	profitMarkers = []string{"profit", "ربح"}

	// Positions exports are already one row per position; deals and orders
	// exports repeat legs, so they only serve as a fallback.
	positionSheetTokens = []string{"position", "مراكز"}
	dealSheetTokens     = []string{"deal", "trade", "history", "صفقات", "تداول", "سجل"}
)

// Columns maps each resolved role to its column index.
type Columns map[Role]int

// Has reports whether the role was resolved.
func (c Columns) Has(r Role) bool {
	_, ok := c[r]
	return ok
}

// Cell returns the row's cell for the role, or Empty when the role is
// unresolved or the row is too short.
func (c Columns) Cell(row []Cell, r Role) Cell {
	i, ok := c[r]
	if !ok || i < 0 || i >= len(row) {
		return Empty()
	}
	return row[i]
}

// Text is Cell(...).String().
func (c Columns) Text(row []Cell, r Role) string {
	return c.Cell(row, r).String()
}

// Layout locates the trade table inside a workbook.
type Layout struct {
	Sheet     string
	HeaderRow int
	Columns   Columns
}

// SelectSheet prefers a positions sheet, then a deals/trades/history sheet,
// then the first sheet.
func SelectSheet(wb Workbook) (Sheet, bool) {
	if len(wb.Sheets) == 0 {
		return Sheet{}, false
	}
	for _, tokens := range [][]string{positionSheetTokens, dealSheetTokens} {
		for _, s := range wb.Sheets {
			if containsAny(strings.ToLower(s.Name), tokens) {
				return s, true
			}
		}
	}
	return wb.Sheets[0], true
}

// FindHeader returns the index of the first row within maxScan rows that has
// both a symbol-like and a profit-like cell.
func FindHeader(rows [][]Cell, maxScan int) (int, error) {
	if maxScan <= 0 {
		maxScan = DefaultHeaderScanRows
	}
	for i, row := range rows {
		if i >= maxScan {
			break
		}
		var sym, profit bool
		for _, c := range row {
			text := c.lower()
			sym = sym || containsAny(text, symbolMarkers)
			profit = profit || containsAny(text, profitMarkers)
		}
		if sym && profit {
			return i, nil
		}
	}
	return -1, ErrHeaderNotFound
}

// ResolveColumns maps header cells to roles. The first exact match wins for
// every role except Time, where the second time column is taken when there
// are several because close time follows open time in broker exports.
func ResolveColumns(header []Cell) Columns {
	cols := make(Columns)
	var times []int
	for i, c := range header {
		text := c.lower()
		if text == "" {
			continue
		}
		for role, tokens := range roleTokens {
			if cols.Has(role) {
				continue
			}
			for _, tok := range tokens {
				if text == tok {
					cols[role] = i
					break
				}
			}
		}
		if containsAny(text, timeTokens) {
			times = append(times, i)
		}
	}
	switch {
	case len(times) >= 2:
		cols[Time] = times[1]
	case len(times) == 1:
		cols[Time] = times[0]
	}
	return cols
}

// Classify selects the statement sheet and locates its trade table.
func Classify(wb Workbook, maxScan int) (Layout, error) {
	sheet, ok := SelectSheet(wb)
	if !ok {
		return Layout{}, ErrHeaderNotFound
	}
	idx, err := FindHeader(sheet.Rows, maxScan)
	if err != nil {
		return Layout{}, err
	}
	return Layout{
		Sheet:     sheet.Name,
		HeaderRow: idx,
		Columns:   ResolveColumns(sheet.Rows[idx]),
	}, nil
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
