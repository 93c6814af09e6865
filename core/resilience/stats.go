package resilience

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// monthHours is the hour count of each calendar month in a non-leap year.
var monthHours = [12]float64{744, 672, 744, 720, 744, 720, 744, 744, 720, 744, 720, 744}

// quartileProbs are the percentiles reported per month.
var quartileProbs = [5]float64{0, 0.25, 0.5, 0.75, 1}

// meanByDuration averages each duration column of the survival matrix across
// start times.
func meanByDuration(matrix [][]float64) []float64 {
	if len(matrix) == 0 {
		return nil
	}
	out := make([]float64, len(matrix[0]))
	col := make([]float64, len(matrix))
	for d := range out {
		for t := range matrix {
			col[t] = matrix[t][d]
		}
		out[d] = stat.Mean(col, nil)
	}
	return out
}

// minByDuration takes the worst start time for each duration column.
func minByDuration(matrix [][]float64) []float64 {
	if len(matrix) == 0 {
		return nil
	}
	out := make([]float64, len(matrix[0]))
	for d := range out {
		m := math.Inf(1)
		for t := range matrix {
			if matrix[t][d] < m {
				m = matrix[t][d]
			}
		}
		out[d] = m
	}
	return out
}

// finalColumn extracts the maximum-duration survival for every start time.
func finalColumn(matrix [][]float64) []float64 {
	out := make([]float64, len(matrix))
	for t := range matrix {
		out[t] = matrix[t][len(matrix[t])-1]
	}
	return out
}

// monthlyQuartiles partitions start times into calendar months of an assumed
// 8760-hour year scaled by the time resolution, and computes the
// 0/25/50/75/100 percentiles of final-duration survival within each month.
// Months with no start times in range yield all-zero rows.
func monthlyQuartiles(final []float64, stepsPerHour float64) [][]float64 {
	out := make([][]float64, len(monthHours))
	begin := 0
	for m, hours := range monthHours {
		out[m] = make([]float64, len(quartileProbs))
		end := begin + int(math.Round(hours*stepsPerHour))
		if end > len(final) {
			end = len(final)
		}
		if begin >= end {
			begin = end
			continue
		}
		group := append([]float64(nil), final[begin:end]...)
		sort.Float64s(group)
		for i, q := range quartileProbs {
			out[m][i] = stat.Quantile(q, stat.Empirical, group, nil)
		}
		begin = end
	}
	return out
}
