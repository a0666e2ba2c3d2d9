package ledger

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Round2 rounds to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatMoney renders d in the given ISO currency, e.g. "$1,234.56".
// An empty currency prints the bare amount with two decimals.
func FormatMoney(d decimal.Decimal, currency string) string {
	if currency == "" {
		return d.StringFixed(2)
	}
	// money.New never returns a nil currency, unlike money.GetCurrency
	cur := money.New(0, currency).Currency()
	return cur.Formatter().Format(d.Shift(int32(cur.Fraction)).Round(0).IntPart())
}

// SignedMoney is FormatMoney with an explicit '+' on gains.
func SignedMoney(d decimal.Decimal, currency string) string {
	if d.IsPositive() {
		return "+" + FormatMoney(d, currency)
	}
	return FormatMoney(d, currency)
}
