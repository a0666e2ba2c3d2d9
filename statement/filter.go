package statement

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DefaultNoiseThreshold is the profit size above which a row without any
// traded volume is taken for a balance adjustment rather than a trade.
var DefaultNoiseThreshold = decimal.NewFromInt(100)

var (
	reservedSymbol = regexp.MustCompile(`(?i)^(total|net|gross|summary|balance|equity|credit|deposit|withdrawal|initial|` +
		`الإجمالي|إجمالي|المجموع|صافي|ملخص|الرصيد|رصيد|حقوق|ائتمان|إيداع|ايداع|سحب|افتتاحي)(s|:)?$`)
	balanceRow = regexp.MustCompile(`(?i)(balance|deposit|withdrawal|credit|initial|summary|` +
		`رصيد|إيداع|ايداع|سحب|ائتمان|افتتاحي|ملخص)`)
	feeMention = regexp.MustCompile(`(?i)(commission|swap|عمولة|مبادلة)`)
	totalsRow  = regexp.MustCompile(`(?i)(total|gross|net profit|إجمالي|صافي الربح)`)

	buyWords  = []string{"buy", "شراء"}
	sellWords = []string{"sell", "بيع"}
)

const minTicketDigits = 5

// Filter decides which data rows are genuine trade executions. It only uses
// heuristic signals found in the row itself.
type Filter struct {
	// NoiseThreshold rejects rows whose absolute profit reaches it while they
	// carry no volume. Zero disables the check.
	NoiseThreshold decimal.Decimal
}

// Accept reports whether row is a trade. It never panics, whatever the row
// length.
func (f Filter) Accept(row []Cell, cols Columns) bool {
	return f.reason(row, cols) == ""
}

// reason names the first failed check, or "" for an accepted row.
func (f Filter) reason(row []Cell, cols Columns) string {
	if !validSymbol(cols.Text(row, Symbol)) {
		return "symbol"
	}
	if !tradeType(cols.Text(row, Type)) {
		return "type"
	}
	if !validTicket(cols.Text(row, Ticket)) {
		return "ticket"
	}

	text := rowText(row)
	if balanceRow.MatchString(text) && !feeMention.MatchString(text) {
		return "balance"
	}

	profit := ParseCell(cols.Cell(row, Profit))
	if f.NoiseThreshold.IsPositive() && profit.Abs().GreaterThanOrEqual(f.NoiseThreshold) &&
		!ParseCell(cols.Cell(row, Volume)).IsPositive() {
		return "noise"
	}
	if totalsRow.MatchString(text) {
		return "totals"
	}
	if profit.IsZero() {
		return "zero"
	}
	return ""
}

func validSymbol(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < 2 || n > 15 {
		return false
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return false
	}
	if isNumeric(s) {
		return false
	}
	return !reservedSymbol.MatchString(s)
}

func tradeType(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, words := range [][]string{buyWords, sellWords} {
		for _, w := range words {
			if strings.HasPrefix(s, w) {
				return true
			}
		}
	}
	return false
}

func isBuy(s string) bool {
	return containsAny(strings.ToLower(s), buyWords)
}

func validTicket(s string) bool {
	if len(s) < minTicketDigits {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' && r != '-' {
			return false
		}
	}
	return true
}

func rowText(row []Cell) string {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		if !c.IsEmpty() {
			parts = append(parts, c.lower())
		}
	}
	return strings.Join(parts, " ")
}
