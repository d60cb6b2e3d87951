package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/sriharshamadamanchi/fundrisk/internal/modules/history"
)

// Frame is a dense date × symbol table. Missing cells are NaN. It is built
// fresh per request and never persisted.
type Frame struct {
	Dates   []string
	Symbols []string
	values  [][]float64 // len(Dates) rows × len(Symbols) columns
}

// Pivot reshapes per-symbol price records into a date × symbol frame.
// Dates and symbols come out sorted ascending.
func Pivot(points []history.PricePoint) *Frame {
	dateSet := make(map[string]struct{})
	symbolSet := make(map[string]struct{})
	for _, p := range points {
		dateSet[p.Date] = struct{}{}
		symbolSet[p.Symbol] = struct{}{}
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	symbols := make([]string, 0, len(symbolSet))
	for s := range symbolSet {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	dateIdx := make(map[string]int, len(dates))
	for i, d := range dates {
		dateIdx[d] = i
	}
	symbolIdx := make(map[string]int, len(symbols))
	for i, s := range symbols {
		symbolIdx[s] = i
	}

	values := make([][]float64, len(dates))
	for i := range values {
		row := make([]float64, len(symbols))
		for j := range row {
			row[j] = math.NaN()
		}
		values[i] = row
	}

	for _, p := range points {
		values[dateIdx[p.Date]][symbolIdx[p.Symbol]] = p.AdjustedClose
	}

	return &Frame{Dates: dates, Symbols: symbols, values: values}
}

// IsEmpty reports whether the frame has no rows or no columns.
func (f *Frame) IsEmpty() bool {
	return len(f.Dates) == 0 || len(f.Symbols) == 0
}

// Rows returns the number of rows.
func (f *Frame) Rows() int { return len(f.Dates) }

// HasSymbol reports whether the frame has a column for symbol.
func (f *Frame) HasSymbol(symbol string) bool {
	for _, s := range f.Symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// Column returns a copy of one symbol's series, or nil when absent.
func (f *Frame) Column(symbol string) []float64 {
	for j, s := range f.Symbols {
		if s != symbol {
			continue
		}
		col := make([]float64, len(f.Dates))
		for i := range f.Dates {
			col[i] = f.values[i][j]
		}
		return col
	}
	return nil
}

// DropIncompleteRows removes every row with at least one missing cell.
func (f *Frame) DropIncompleteRows() *Frame {
	out := &Frame{Symbols: f.Symbols}
	for i, row := range f.values {
		complete := true
		for _, v := range row {
			if math.IsNaN(v) {
				complete = false
				break
			}
		}
		if complete {
			out.Dates = append(out.Dates, f.Dates[i])
			out.values = append(out.values, row)
		}
	}
	return out
}

// ForwardFill carries the last seen value of each column forward. Cells
// before a column's first observation stay missing.
func (f *Frame) ForwardFill() *Frame {
	out := &Frame{Dates: f.Dates, Symbols: f.Symbols, values: make([][]float64, len(f.values))}

	last := make([]float64, len(f.Symbols))
	for j := range last {
		last[j] = math.NaN()
	}

	for i, row := range f.values {
		filled := make([]float64, len(row))
		for j, v := range row {
			if !math.IsNaN(v) {
				last[j] = v
			}
			filled[j] = last[j]
		}
		out.values[i] = filled
	}

	return out
}

// Select returns a frame restricted to the given symbols, in the given
// order. Symbols without a column are skipped.
func (f *Frame) Select(symbols []string) *Frame {
	idx := make(map[string]int, len(f.Symbols))
	for j, s := range f.Symbols {
		idx[s] = j
	}

	var cols []int
	var kept []string
	for _, s := range symbols {
		if j, ok := idx[s]; ok {
			cols = append(cols, j)
			kept = append(kept, s)
		}
	}

	out := &Frame{Dates: f.Dates, Symbols: kept, values: make([][]float64, len(f.values))}
	for i, row := range f.values {
		selected := make([]float64, len(cols))
		for k, j := range cols {
			selected[k] = row[j]
		}
		out.values[i] = selected
	}

	return out
}

// PctChange converts price levels to day-over-day fractional changes. The
// leading row, which has no predecessor, is dropped; a change is missing
// when either endpoint is missing.
func (f *Frame) PctChange() *Frame {
	out := &Frame{Symbols: f.Symbols}
	if len(f.Dates) < 2 {
		return out
	}

	out.Dates = make([]string, len(f.Dates)-1)
	copy(out.Dates, f.Dates[1:])

	out.values = make([][]float64, len(f.Dates)-1)
	for i := 1; i < len(f.Dates); i++ {
		row := make([]float64, len(f.Symbols))
		for j := range f.Symbols {
			prev := f.values[i-1][j]
			cur := f.values[i][j]
			if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
				row[j] = math.NaN()
				continue
			}
			row[j] = (cur - prev) / prev
		}
		out.values[i-1] = row
	}

	return out
}

// DropRowsWithNaN removes rows that still carry missing cells, e.g. from
// forward-fill gaps at the start of a column's history.
func (f *Frame) DropRowsWithNaN() *Frame {
	return f.DropIncompleteRows()
}

// WeightedSeries computes the weighted sum of every row against a weight
// per column. Every column must carry a weight.
func (f *Frame) WeightedSeries(weights map[string]float64) ([]float64, error) {
	w := make([]float64, len(f.Symbols))
	for j, s := range f.Symbols {
		weight, ok := weights[s]
		if !ok {
			return nil, fmt.Errorf("missing weight for symbol %s", s)
		}
		w[j] = weight
	}

	series := make([]float64, len(f.Dates))
	for i, row := range f.values {
		sum := 0.0
		for j, v := range row {
			sum += v * w[j]
		}
		series[i] = sum
	}

	return series, nil
}

// matrix returns the frame's values row-major, for gonum consumption.
func (f *Frame) matrix() []float64 {
	data := make([]float64, 0, len(f.Dates)*len(f.Symbols))
	for _, row := range f.values {
		data = append(data, row...)
	}
	return data
}
