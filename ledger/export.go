package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	entryHeader = []string{"id", "date", "type", "amount", "balance_before", "balance_after", "trades", "wins", "losses", "commission", "swap", "symbols", "note"}
	tradeHeader = []string{"position_id", "symbol", "type", "volume", "profit", "commission", "swap", "net", "close_time", "outcome"}
)

func entryRow(e Entry) []string {
	row := []string{
		e.ID,
		e.Day(),
		string(e.Kind),
		e.Amount.StringFixed(2),
		e.BalanceBefore.StringFixed(2),
		e.BalanceAfter.StringFixed(2),
		"", "", "", "", "", "",
		e.Note,
	}
	if d := e.Detail; d != nil {
		row[6] = strconv.Itoa(d.Trades)
		row[7] = strconv.Itoa(d.Wins)
		row[8] = strconv.Itoa(d.Losses)
		row[9] = d.Commission.StringFixed(2)
		row[10] = d.Swap.StringFixed(2)
		row[11] = strings.Join(d.Symbols, " ")
	}
	return row
}

func tradeRow(t Trade) []string {
	return []string{
		t.PositionID,
		t.Symbol,
		string(t.Direction),
		t.Volume.String(),
		t.Profit.StringFixed(2),
		t.Commission.StringFixed(2),
		t.Swap.StringFixed(2),
		t.Net().StringFixed(2),
		t.CloseTime,
		string(t.Outcome),
	}
}

// WriteEntriesCSV writes the ledger entries with a header row.
func WriteEntriesCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(entryHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write(entryRow(e)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTradesCSV writes the imported trades with a header row.
func WriteTradesCSV(w io.Writer, trades []Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tradeHeader); err != nil {
		return err
	}
	for _, t := range trades {
		if err := cw.Write(tradeRow(t)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const (
	ledgerSheet = "Ledger"
	tradesSheet = "Trades"
)

// WriteXLSX writes a workbook with a Ledger and a Trades sheet.
func WriteXLSX(w io.Writer, st State) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ledgerSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(tradesSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	if err := writeSheet(f, ledgerSheet, entryHeader, len(st.Entries), func(i int) []string {
		return entryRow(st.Entries[i])
	}); err != nil {
		return err
	}
	if err := writeSheet(f, tradesSheet, tradeHeader, len(st.Trades), func(i int) []string {
		return tradeRow(st.Trades[i])
	}); err != nil {
		return err
	}
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, header []string, n int, row func(int) []string) error {
	put := func(r int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, r)
		if err != nil {
			return err
		}
		vals := make([]interface{}, len(values))
		for i, v := range values {
			vals[i] = v
		}
		return f.SetSheetRow(sheet, cell, &vals)
	}
	if err := put(1, header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i := 0; i < n; i++ {
		if err := put(i+2, row(i)); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
