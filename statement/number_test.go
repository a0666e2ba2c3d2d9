package statement

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"(1,234.56)", "-1234.56"},
		{"1 234,56−", "-1234.56"},
		{"1 234,56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"−12.5", "-12.5"},
		{"–7", "-7"},
		{"-0.50", "-0.5"},
		{"1,234", "1234"},
		{"12,5", "12.5"},
		{"1,234,567.8", "1234567.8"},
		{"1.234.567", "1234567"},
		{"$1,000.00", "1000"},
		{"1'234.50", "1234.5"},
		{"١٢٣٫٤٥", "123.45"},
		{"abc", "0"},
		{"", "0"},
	}
	for _, tt := range tests {
		got := ParseNumber(tt.in)
		want := decimal.RequireFromString(tt.want)
		assert.True(t, want.Equal(got), "%q: want %s got %s", tt.in, want, got)
	}
}

func TestParseCell(t *testing.T) {
	t.Parallel()

	assert.True(t, decimal.RequireFromString("-2.5").Equal(ParseCell(Num(-2.5))))
	assert.True(t, decimal.RequireFromString("-2.5").Equal(ParseCell(Str("(2.50)"))))
	assert.True(t, ParseCell(Empty()).IsZero())
	assert.NotPanics(t, func() {
		assert.True(t, ParseCell(Num(math.NaN())).IsZero())
		assert.True(t, ParseCell(Num(math.Inf(1))).IsZero())
		assert.True(t, ParseCell(Num(math.Inf(-1))).IsZero())
	})
	assert.Equal(t, TextCell, textCell("NaN").Kind())
	assert.Equal(t, TextCell, textCell("Infinity").Kind())
	assert.Equal(t, NumberCell, textCell("12.5").Kind())
}
