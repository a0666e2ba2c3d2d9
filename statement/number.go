package statement

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumber reads a statement amount. It tolerates currency symbols,
// thousands separators (comma, dot, space, apostrophe), a decimal comma,
// parenthesised negatives, Arabic-Indic digits and every common unicode minus,
// leading or trailing. Unparseable input is zero.
func ParseNumber(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	neg := strings.ContainsRune(s, '(') && strings.ContainsRune(s, ')')
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		case r == '.' || r == '٫':
			b.WriteByte('.')
		case r == ',' || r == '٬':
			b.WriteByte(',')
		case isMinus(r):
			neg = true
		}
	}

	d, err := decimal.NewFromString(normalizeSeparators(b.String()))
	if err != nil {
		return decimal.Zero
	}
	if neg {
		d = d.Neg()
	}
	return d
}

// ParseCell reads a cell as a number. Non-finite numbers are zero.
func ParseCell(c Cell) decimal.Decimal {
	if v, ok := c.Number(); ok {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(v)
	}
	return ParseNumber(c.String())
}

func isMinus(r rune) bool {
	switch r {
	case '-', '‐', '‑', '‒', '–', '—', '―', '−', '﹣', '－':
		return true
	}
	return false
}

// normalizeSeparators turns a run of digits, dots and commas into a plain
// decimal with at most one '.'.
func normalizeSeparators(s string) string {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		// whichever separator comes last is the decimal point
		if strings.LastIndexByte(s, ',') > strings.LastIndexByte(s, '.') {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case commas == 1:
		if frac := len(s) - strings.IndexByte(s, ',') - 1; frac != 3 {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}
