// Package statement reads broker statement exports of unknown layout and
// language and extracts the trade executions they contain.
//
// Parsing is side-effect free: callers inspect the Preview and only then
// commit the trades to a journal.
package statement

import (
	"fmt"
	"os"
	"time"

	"github.com/rustyeddy/tradejournal/internal/logger"
	"github.com/rustyeddy/tradejournal/ledger"
	"github.com/shopspring/decimal"
)

// Options tune the heuristics.
type Options struct {
	HeaderScanRows int
	NoiseThreshold decimal.Decimal
	Now            func() time.Time
}

func DefaultOptions() Options {
	return Options{
		HeaderScanRows: DefaultHeaderScanRows,
		NoiseThreshold: DefaultNoiseThreshold,
		Now:            time.Now,
	}
}

// Result is a parsed statement awaiting confirmation.
type Result struct {
	Layout   Layout
	Trades   []ledger.Trade
	Preview  Preview
	Scanned  int
	Rejected map[string]int
}

// Parse classifies the workbook, filters its data rows and aggregates the
// accepted ones into trades.
func Parse(wb Workbook, opts Options) (*Result, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	layout, err := Classify(wb, opts.HeaderScanRows)
	if err != nil {
		return nil, err
	}

	var sheet Sheet
	for _, s := range wb.Sheets {
		if s.Name == layout.Sheet {
			sheet = s
			break
		}
	}

	res := &Result{Layout: layout, Rejected: make(map[string]int)}
	filter := Filter{NoiseThreshold: opts.NoiseThreshold}
	var accepted [][]Cell
	for _, row := range sheet.Rows[layout.HeaderRow+1:] {
		if blank(row) {
			continue
		}
		res.Scanned++
		if why := filter.reason(row, layout.Columns); why != "" {
			res.Rejected[why]++
			logger.Debugf("statement: reject row (%s): %s", why, rowText(row))
			continue
		}
		accepted = append(accepted, row)
	}

	res.Trades = Aggregate(accepted, layout.Columns, opts.Now())
	res.Preview = BuildPreview(res.Trades)
	logger.Infof("statement: sheet %q header row %d: %d rows scanned, %d accepted, %d trades",
		layout.Sheet, layout.HeaderRow, res.Scanned, len(accepted), len(res.Trades))
	return res, nil
}

// ParseFile decodes and parses the statement at path.
func ParseFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open statement: %w", err)
	}
	defer f.Close()

	wb, err := Decode(path, f)
	if err != nil {
		return nil, err
	}
	return Parse(wb, opts)
}

func blank(row []Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}
