package model

// StorageSpec describes a stationary storage asset. Batteries use the same
// value for both power limits; hydrogen systems set ChargePowerKW to the
// electrolyzer rating and DischargePowerKW to the fuel-cell rating.
type StorageSpec struct {
	ChargePowerKW    float64
	DischargePowerKW float64
	CapacityKWh      float64

	// ChargeEfficiency multiplies power flowing in; DischargeEfficiency
	// divides power flowing out. Both in (0,1].
	ChargeEfficiency    float64
	DischargeEfficiency float64

	// MinSOCFraction is the fraction of capacity reserved and never
	// discharged during an outage.
	MinSOCFraction float64

	// OperationalAvailability is the probability the asset is functional
	// at outage onset.
	OperationalAvailability float64

	// SOCSeries is the state of charge as a fraction of capacity for every
	// time step of the year.
	SOCSeries []float64

	// IncludeInMicrogrid marks the asset as islandable. Assets without the
	// flag are excluded when the engine runs in microgrid-only mode.
	IncludeInMicrogrid bool
}

// Modeled reports whether the asset contributes to the simulation.
func (s *StorageSpec) Modeled() bool {
	return s != nil && s.CapacityKWh > 0 && s.DischargePowerKW > 0
}

// UsableCapacityKWh returns the dischargeable energy above the SOC floor.
func (s *StorageSpec) UsableCapacityKWh() float64 {
	if s == nil {
		return 0
	}
	return s.CapacityKWh * (1 - s.MinSOCFraction)
}

// UsableChargeKWh converts a SOC fraction to energy above the SOC floor.
// The result may be negative when the series starts below the floor.
func (s *StorageSpec) UsableChargeKWh(socFraction float64) float64 {
	if s == nil {
		return 0
	}
	return (socFraction - s.MinSOCFraction) * s.CapacityKWh
}

// Validate checks storage parameters for internal consistency.
func (s *StorageSpec) Validate(name string, periods int) error {
	if s == nil {
		return nil
	}
	if (s.CapacityKWh > 0) != (s.DischargePowerKW > 0 || s.ChargePowerKW > 0) {
		return configErrorf("%s: power and energy ratings must be specified together", name)
	}
	if s.ChargeEfficiency < 0 || s.ChargeEfficiency > 1 {
		return configErrorf("%s: charge efficiency %v outside [0,1]", name, s.ChargeEfficiency)
	}
	if s.DischargeEfficiency < 0 || s.DischargeEfficiency > 1 {
		return configErrorf("%s: discharge efficiency %v outside [0,1]", name, s.DischargeEfficiency)
	}
	if s.MinSOCFraction < 0 || s.MinSOCFraction >= 1 {
		return configErrorf("%s: minimum SOC fraction %v outside [0,1)", name, s.MinSOCFraction)
	}
	if s.OperationalAvailability < 0 || s.OperationalAvailability > 1 {
		return configErrorf("%s: availability %v outside [0,1]", name, s.OperationalAvailability)
	}
	if s.Modeled() && len(s.SOCSeries) != periods {
		return configErrorf("%s: SOC series length %d does not match load series length %d", name, len(s.SOCSeries), periods)
	}
	return nil
}

// PVSpec describes an on-site photovoltaic system.
type PVSpec struct {
	// ACOutputKW is the produced power for every time step of the year.
	ACOutputKW []float64

	OperationalAvailability float64

	// CanServeWithoutBattery reports whether PV output is usable to serve
	// load when no battery smooths it.
	CanServeWithoutBattery bool

	IncludeInMicrogrid bool
}

// Modeled reports whether PV contributes to the simulation.
func (p *PVSpec) Modeled() bool {
	return p != nil && len(p.ACOutputKW) > 0
}

// Validate checks PV parameters.
func (p *PVSpec) Validate(periods int) error {
	if p == nil {
		return nil
	}
	if p.OperationalAvailability < 0 || p.OperationalAvailability > 1 {
		return configErrorf("pv: availability %v outside [0,1]", p.OperationalAvailability)
	}
	if p.OperationalAvailability > 0 && len(p.ACOutputKW) == 0 {
		return configErrorf("pv: availability set without a production series")
	}
	if len(p.ACOutputKW) > 0 && len(p.ACOutputKW) != periods {
		return configErrorf("pv: production series length %d does not match load series length %d", len(p.ACOutputKW), periods)
	}
	return nil
}
