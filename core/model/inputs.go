package model

// EngineOptions carries the scalar knobs of the reliability engine.
type EngineOptions struct {
	// MaxOutageSteps is the longest outage duration evaluated, in steps.
	MaxOutageSteps int
	// BatteryBins and HydrogenBins discretize the storage SOC dimensions.
	// A value of 1 removes the dimension from the state space.
	BatteryBins  int
	HydrogenBins int
	// Marginal selects per-duration survival probabilities instead of
	// cumulative survive-through probabilities.
	Marginal bool
	// MicrogridOnly restricts participation to assets flagged as part of
	// the microgrid.
	MicrogridOnly bool
	// StepsPerHour is the time resolution of all input series.
	StepsPerHour float64
	// Workers bounds the simulation worker pool. Zero selects GOMAXPROCS;
	// one forces sequential execution.
	Workers int
}

// SetDefaults applies sane defaults.
func (o *EngineOptions) SetDefaults() {
	if o.MaxOutageSteps == 0 {
		o.MaxOutageSteps = 24
	}
	if o.BatteryBins == 0 {
		o.BatteryBins = 101
	}
	if o.HydrogenBins == 0 {
		o.HydrogenBins = 1
	}
	if o.StepsPerHour == 0 {
		o.StepsPerHour = 1
	}
}

// Validate checks the options.
func (o EngineOptions) Validate() error {
	if o.MaxOutageSteps < 1 {
		return configErrorf("max outage duration must be at least one step")
	}
	if o.BatteryBins < 1 || o.HydrogenBins < 1 {
		return configErrorf("bin counts must be at least 1")
	}
	if o.StepsPerHour <= 0 {
		return configErrorf("steps per hour must be positive")
	}
	if o.Workers < 0 {
		return configErrorf("workers must be non-negative")
	}
	return nil
}

// ScenarioInputs bundles everything the reliability engine consumes.
type ScenarioInputs struct {
	// CriticalLoadKW is the load that must be met continuously during an
	// outage, one value per time step of the year.
	CriticalLoadKW []float64

	Fleet    GeneratorFleet
	Battery  *StorageSpec
	Hydrogen *StorageSpec
	PV       *PVSpec

	Options EngineOptions
}

// Validate runs all configuration checks. It must pass before any
// simulation starts; no partial results are produced on failure.
func (in ScenarioInputs) Validate() error {
	if len(in.CriticalLoadKW) == 0 {
		return configErrorf("critical load series is empty")
	}
	if err := in.Fleet.Validate(); err != nil {
		return err
	}
	periods := len(in.CriticalLoadKW)
	if err := in.Battery.Validate("battery", periods); err != nil {
		return err
	}
	if err := in.Hydrogen.Validate("hydrogen", periods); err != nil {
		return err
	}
	if err := in.PV.Validate(periods); err != nil {
		return err
	}
	return in.Options.Validate()
}
