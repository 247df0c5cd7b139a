package normalize

import (
	"sort"

	"github.com/quantfold/stocketl/internal/model"
)

// DefaultWindows are the moving-average window sizes computed for
// analytics consumers.
var DefaultWindows = []int{5, 10, 20, 50}

// MovingAverages computes per-symbol rolling means of the close price for
// each window size, rounded to 2 decimals. A value is only emitted once a
// full window of observations exists for the symbol.
//
// The result maps (date, symbol) to window size to average.
func MovingAverages(records []model.Record, windows []int) map[model.ReconciliationKey]map[int]float64 {
	if len(windows) == 0 {
		windows = DefaultWindows
	}

	bySymbol := map[string][]model.Record{}
	for _, r := range records {
		bySymbol[r.Symbol] = append(bySymbol[r.Symbol], r)
	}

	out := map[model.ReconciliationKey]map[int]float64{}
	for _, series := range bySymbol {
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Date.Before(series[j].Date)
		})

		for _, window := range windows {
			if window < 1 || window > len(series) {
				continue
			}
			sum := 0.0
			for i, r := range series {
				sum += r.Close
				if i >= window {
					sum -= series[i-window].Close
				}
				if i >= window-1 {
					key := r.ReconciliationKey()
					if out[key] == nil {
						out[key] = map[int]float64{}
					}
					out[key][window] = round2(sum / float64(window))
				}
			}
		}
	}
	return out
}
