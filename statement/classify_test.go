package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell(t *testing.T) {
	t.Parallel()

	assert.True(t, Str("   ").IsEmpty())
	assert.Equal(t, "123456789", Num(123456789).String())
	assert.Equal(t, "1.5", Num(1.5).String())
	assert.Equal(t, "EURUSD", Str(" EURUSD ").String())
	_, ok := Str("1").Number()
	assert.False(t, ok)
}

func TestSelectSheet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		names []string
		want  string
	}{
		{[]string{"Summary", "Deals", "Positions"}, "Positions"},
		{[]string{"Summary", "Trade History"}, "Trade History"},
		{[]string{"ملخص", "المراكز"}, "المراكز"},
		{[]string{"Sheet1", "Sheet2"}, "Sheet1"},
	}
	for _, tt := range tests {
		var wb Workbook
		for _, n := range tt.names {
			wb.Sheets = append(wb.Sheets, Sheet{Name: n})
		}
		got, ok := SelectSheet(wb)
		require.True(t, ok)
		assert.Equal(t, tt.want, got.Name)
	}

	_, ok := SelectSheet(Workbook{})
	assert.False(t, ok)
}

func TestFindHeader(t *testing.T) {
	t.Parallel()

	rows := [][]Cell{
		Row("Trade History Report"),
		Row("Name:", "Demo"),
		nil,
		Row("Time", "Position", "Symbol", "Type", "Profit"),
	}
	idx, err := FindHeader(rows, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, idx)

	arabic := [][]Cell{
		Row("تقرير"),
		Row("الوقت", "المركز", "الرمز", "النوع", "الربح"),
	}
	idx, err = FindHeader(arabic, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = FindHeader([][]Cell{Row("Symbol", "Volume"), Row("Time", "Profit")}, 0)
	assert.ErrorIs(t, err, ErrHeaderNotFound)

	// header beyond the scan window
	_, err = FindHeader(rows, 3)
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestResolveColumns(t *testing.T) {
	t.Parallel()

	cols := ResolveColumns(Row("Time", "Position", "Symbol", "Type", "Volume", "Price", "Time", "Commission", "Swap", "Profit"))
	assert.Equal(t, Columns{
		Time: 6, Ticket: 1, Symbol: 2, Type: 3, Volume: 4, Commission: 7, Swap: 8, Profit: 9,
	}, cols)

	cols = ResolveColumns(Row("Open Time", "Ticket", "Symbol", "Profit", "Order"))
	assert.Equal(t, 0, cols[Time])
	assert.Equal(t, 1, cols[Ticket], "first ticket-like column wins")
	assert.False(t, cols.Has(Swap))

	cols = ResolveColumns(Row("Symbol", "Profit"))
	assert.False(t, cols.Has(Time))

	cols = ResolveColumns(Row("وقت الفتح", "الرمز", "النوع", "الحجم", "وقت الإغلاق", "العمولة", "المبادلة", "الربح"))
	assert.Equal(t, 4, cols[Time])
	assert.Equal(t, 1, cols[Symbol])
	assert.Equal(t, 7, cols[Profit])
}

func TestColumnsOnRaggedRows(t *testing.T) {
	t.Parallel()

	cols := Columns{Symbol: 5}
	assert.True(t, cols.Cell(Row("a"), Symbol).IsEmpty())
	assert.True(t, cols.Cell(nil, Profit).IsEmpty())
}

func TestClassifyEmptyWorkbook(t *testing.T) {
	t.Parallel()

	_, err := Classify(Workbook{}, 0)
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}
