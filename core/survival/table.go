package survival

// StorageParams is the discretized view of one storage dimension used by the
// joint simulation. A Bins value of 1 removes the dimension: the asset is not
// modeled and contributes no power.
type StorageParams struct {
	Bins   int
	BinKWh float64

	ChargeKW    float64
	DischargeKW float64

	ChargeEff    float64
	DischargeEff float64

	// StartBins holds the 1-based bin at every outage start time. Ignored
	// when Bins == 1.
	StartBins []int
}

// modeled reports whether the dimension carries state.
func (p StorageParams) modeled() bool { return p.Bins > 1 }

// maxDischargeKW is the power the asset can deliver from the given 0-based
// bin, bounded by its inverter rating.
func (p StorageParams) maxDischargeKW(bin int) float64 {
	if !p.modeled() {
		return 0
	}
	kw := float64(bin) * p.BinKWh * p.DischargeEff
	if kw > p.DischargeKW {
		return p.DischargeKW
	}
	return kw
}

// buildTable precomputes the maximum deliverable power for every
// (generator state, battery bin, hydrogen bin) combination, flattened with
// the hydrogen bin fastest. It is computed once per configuration and shared
// read-only across all start-time simulations.
func buildTable(outputKW []float64, batt, h2 StorageParams) []float64 {
	nb, nh := batt.Bins, h2.Bins
	table := make([]float64, len(outputKW)*nb*nh)
	idx := 0
	for _, gen := range outputKW {
		for b := 0; b < nb; b++ {
			fromBatt := batt.maxDischargeKW(b)
			for h := 0; h < nh; h++ {
				table[idx] = gen + fromBatt + h2.maxDischargeKW(h)
				idx++
			}
		}
	}
	return table
}
