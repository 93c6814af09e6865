// Package storage discretizes continuous storage state-of-charge series into
// integer bins for the joint state-space simulation.
package storage

import "math"

// BinWidthKWh returns the energy span of one bin. Bin 1 is empty and bin
// numBins is full, so numBins-1 intervals cover the capacity. A single-bin
// configuration has no width; 0 is returned.
func BinWidthKWh(capacityKWh float64, numBins int) float64 {
	if numBins <= 1 {
		return 0
	}
	return capacityKWh / float64(numBins-1)
}

// Discretize maps a stored-energy series (kWh) to 1-based bin indices by
// rounding to the nearest bin edge. Ties round to even, keeping the mapping
// symmetric around bin centers. The degenerate single-bin configuration, or
// an empty series, yields bin 1 everywhere.
func Discretize(chargeKWh []float64, numBins int, capacityKWh float64) []int {
	bins := make([]int, len(chargeKWh))
	if numBins <= 1 || capacityKWh <= 0 {
		for i := range bins {
			bins[i] = 1
		}
		return bins
	}
	width := BinWidthKWh(capacityKWh, numBins)
	for i, c := range chargeKWh {
		b := int(math.RoundToEven(c/width)) + 1
		if b < 1 {
			b = 1
		}
		if b > numBins {
			b = numBins
		}
		bins[i] = b
	}
	return bins
}

// ShiftSteps converts a per-step energy delta to a signed bin shift using the
// same rounding as Discretize. Non-finite inputs collapse to 0 so corrupted
// arithmetic never moves probability mass.
func ShiftSteps(deltaKWh, widthKWh float64) int {
	if widthKWh <= 0 {
		return 0
	}
	r := deltaKWh / widthKWh
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return int(math.RoundToEven(r))
}
