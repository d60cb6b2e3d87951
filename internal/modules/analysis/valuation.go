package analysis

import "math"

// ValuePoint is one chartable observation of portfolio market value.
type ValuePoint struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// ValueSeries prices the holdings against a date × symbol price frame.
// Quantities are keyed by symbol; symbols without a column, and missing
// cells, contribute nothing on that date.
func ValueSeries(prices *Frame, quantities map[string]float64) []ValuePoint {
	points := make([]ValuePoint, 0, len(prices.Dates))
	for i, date := range prices.Dates {
		total := 0.0
		for j, symbol := range prices.Symbols {
			qty, ok := quantities[symbol]
			if !ok {
				continue
			}
			price := prices.values[i][j]
			if math.IsNaN(price) {
				continue
			}
			total += price * qty
		}
		points = append(points, ValuePoint{X: date, Y: total})
	}
	return points
}
