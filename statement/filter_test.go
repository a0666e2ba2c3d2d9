package statement

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var positionsHeader = Row("Time", "Position", "Symbol", "Type", "Volume", "Price", "Time", "Commission", "Swap", "Profit")

func positionRow(ticket, symbol, typ, volume, note, commission, swap, profit string) []Cell {
	return Row("2024.01.10 09:00:00", ticket, symbol, typ, volume, note, "2024.01.10 10:00:00", commission, swap, profit)
}

func TestFilter(t *testing.T) {
	t.Parallel()

	cols := ResolveColumns(positionsHeader)
	f := Filter{NoiseThreshold: DefaultNoiseThreshold}

	tests := []struct {
		name string
		row  []Cell
		want string
	}{
		{"trade", positionRow("123456789", "EURUSD", "buy", "1.0", "1.1", "-2.00", "-0.50", "105.00"), ""},
		{"sell with qualifier", positionRow("123456790", "XAUUSD", "Sell Limit", "0.10", "", "", "", "-12.40"), ""},
		{"balance symbol", positionRow("987654321", "Balance", "", "", "", "", "", "520.00"), "symbol"},
		{"spaced symbol", positionRow("123456789", "EUR USD", "buy", "1", "", "", "", "5"), "symbol"},
		{"numeric symbol", positionRow("123456789", "12345", "buy", "1", "", "", "", "5"), "symbol"},
		{"long symbol", positionRow("123456789", "ABCDEFGHIJKLMNOP", "buy", "1", "", "", "", "5"), "symbol"},
		{"reserved plural", positionRow("123456789", "Totals", "buy", "1", "", "", "", "5"), "symbol"},
		{"reserved colon", positionRow("123456789", "Net:", "buy", "1", "", "", "", "5"), "symbol"},
		{"ticker starting with reserved word", positionRow("123456789", "NETFLIX.US", "buy", "1", "", "", "", "5"), ""},
		{"short ticker starting with reserved word", positionRow("123456789", "NETH", "sell", "1", "", "", "", "-5"), ""},
		{"type", positionRow("123456789", "EURUSD", "balance", "1", "", "", "", "5"), "type"},
		{"short ticket", positionRow("1234", "EURUSD", "buy", "1", "", "", "", "5"), "ticket"},
		{"alpha ticket", positionRow("A1234567", "EURUSD", "buy", "1", "", "", "", "5"), "ticket"},
		{"deposit mention", positionRow("123456789", "EURUSD", "buy", "1", "deposit", "", "", "5"), "balance"},
		{"deposit with fees", positionRow("123456789", "EURUSD", "buy", "1", "deposit commission", "", "", "5"), ""},
		{"noise without volume", positionRow("123456789", "EURUSD", "buy", "", "", "", "", "150.00"), "noise"},
		{"large trade with volume", positionRow("123456789", "EURUSD", "buy", "2.0", "", "", "", "150.00"), ""},
		{"totals", positionRow("123456789", "EURUSD", "buy", "1", "gross", "", "", "5"), "totals"},
		{"zero profit", positionRow("123456789", "EURUSD", "buy", "1", "", "-1", "", "0.00"), "zero"},
		{"arabic", positionRow("123456789", "EURUSD", "شراء", "1", "", "", "", "5"), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.reason(tt.row, cols), tt.name)
		assert.Equal(t, tt.want == "", f.Accept(tt.row, cols), tt.name)
	}
}

func TestFilterNoiseDisabled(t *testing.T) {
	t.Parallel()

	cols := ResolveColumns(positionsHeader)
	row := positionRow("123456789", "EURUSD", "buy", "", "", "", "", "150.00")
	assert.False(t, Filter{NoiseThreshold: DefaultNoiseThreshold}.Accept(row, cols))
	assert.True(t, Filter{}.Accept(row, cols))
}

func TestFilterNeverPanics(t *testing.T) {
	t.Parallel()

	cols := ResolveColumns(positionsHeader)
	f := Filter{NoiseThreshold: DefaultNoiseThreshold}
	assert.NotPanics(t, func() {
		f.Accept(nil, cols)
		f.Accept(Row("x"), cols)
		f.Accept(Row("2024", "123456789", "EURUSD"), Columns{})
	})

	nan := Row("2024.01.10 09:00:00", "123456", "EURUSD", "buy", math.Inf(1), "", "2024.01.10 10:00:00", 0, 0, math.NaN())
	assert.NotPanics(t, func() {
		assert.Equal(t, "zero", f.reason(nan, cols))
		assert.Equal(t, "zero", f.reason(positionRow("123456", "EURUSD", "buy", "inf", "", "0", "0", "NaN"), cols))
		Aggregate([][]Cell{nan}, cols, fixedNow)
	})
}
