package model

// GeneratorType describes one class of identical backup generators.
type GeneratorType struct {
	Name string

	// Count is the number of installed units of this type.
	Count int
	// SizeKW is the rated electric output of a single unit.
	SizeKW float64

	// OperationalAvailability is the probability a unit is not down for
	// maintenance at outage onset, in [0,1].
	OperationalAvailability float64
	// FailureToStart is the probability an otherwise available unit fails
	// to start when called, in [0,1].
	FailureToStart float64
	// MTTFSteps is the mean time to failure expressed in simulation time
	// steps. The per-step failure probability is 1/MTTFSteps.
	MTTFSteps float64

	// FuelBurnRatePerKWh is the fuel consumed per kWh generated.
	FuelBurnRatePerKWh float64
	// FuelInterceptPerHour is the fuel consumed per running unit per hour
	// regardless of loading.
	FuelInterceptPerHour float64
	// FuelLimit is the available fuel quantity. Interpreted per unit when
	// FuelLimitPerUnit is set, otherwise for the whole type.
	FuelLimit        float64
	FuelLimitPerUnit bool
}

// TotalCapacityKW returns the aggregate rated output of the type.
func (g GeneratorType) TotalCapacityKW() float64 {
	return float64(g.Count) * g.SizeKW
}

// TotalFuel returns the fuel quantity available to the whole type.
func (g GeneratorType) TotalFuel() float64 {
	if g.FuelLimitPerUnit {
		return g.FuelLimit * float64(g.Count)
	}
	return g.FuelLimit
}

// FailProbPerStep derives the per-step failure probability from MTTF.
func (g GeneratorType) FailProbPerStep() float64 {
	if g.MTTFSteps <= 0 {
		return 0
	}
	return 1 / g.MTTFSteps
}

// GeneratorFleet is an ordered list of generator types. The ordering defines
// the canonical enumeration of joint availability states.
type GeneratorFleet struct {
	Types []GeneratorType
}

// Counts returns the per-type unit counts.
func (f GeneratorFleet) Counts() []int {
	out := make([]int, len(f.Types))
	for i, t := range f.Types {
		out[i] = t.Count
	}
	return out
}

// SizesKW returns the per-type unit sizes.
func (f GeneratorFleet) SizesKW() []float64 {
	out := make([]float64, len(f.Types))
	for i, t := range f.Types {
		out[i] = t.SizeKW
	}
	return out
}

// FailProbs returns the per-type per-step failure probabilities.
func (f GeneratorFleet) FailProbs() []float64 {
	out := make([]float64, len(f.Types))
	for i, t := range f.Types {
		out[i] = t.FailProbPerStep()
	}
	return out
}

// TotalCapacityKW returns the aggregate rated output of the fleet.
func (f GeneratorFleet) TotalCapacityKW() float64 {
	var sum float64
	for _, t := range f.Types {
		sum += t.TotalCapacityKW()
	}
	return sum
}

// Validate checks fleet parameters. A derived per-step failure probability
// above 1 (MTTF below one step) is rejected.
func (f GeneratorFleet) Validate() error {
	for i, t := range f.Types {
		if t.Count < 0 {
			return configErrorf("generator type %d: negative count", i)
		}
		if t.SizeKW < 0 {
			return configErrorf("generator type %d: negative unit size", i)
		}
		if t.OperationalAvailability < 0 || t.OperationalAvailability > 1 {
			return configErrorf("generator type %d: availability %v outside [0,1]", i, t.OperationalAvailability)
		}
		if t.FailureToStart < 0 || t.FailureToStart > 1 {
			return configErrorf("generator type %d: failure to start %v outside [0,1]", i, t.FailureToStart)
		}
		if p := t.FailProbPerStep(); p > 1 {
			return configErrorf("generator type %d: MTTF %v steps implies failure probability %v > 1", i, t.MTTFSteps, p)
		}
	}
	return nil
}
