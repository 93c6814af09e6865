package config

import (
	"fmt"

	"github.com/kilianp07/resilience/core/model"
)

// ScenarioConfig describes the inputs of one reliability evaluation. The
// generator fleet is given as parallel per-type vectors, which must all have
// the same length.
type ScenarioConfig struct {
	CriticalLoadsKW []float64 `json:"critical_loads_kw"`

	Generators GeneratorsConfig `json:"generators"`
	Battery    BatteryConfig    `json:"battery"`
	Hydrogen   HydrogenConfig   `json:"hydrogen"`
	PV         PVConfig         `json:"pv"`

	MaxOutageDuration int     `json:"max_outage_duration"`
	NumBatteryBins    int     `json:"num_battery_bins"`
	NumHydrogenBins   int     `json:"num_hydrogen_bins"`
	MarginalSurvival  bool    `json:"marginal_survival"`
	MicrogridOnly     bool    `json:"microgrid_only"`
	TimeStepsPerHour  float64 `json:"time_steps_per_hour"`
	Workers           int     `json:"workers"`
}

// GeneratorsConfig holds the per-type fleet vectors.
type GeneratorsConfig struct {
	Names                   []string  `json:"names"`
	NumGenerators           []int     `json:"num_generators"`
	SizeKW                  []float64 `json:"generator_size_kw"`
	OperationalAvailability []float64 `json:"generator_operational_availability"`
	FailureToStart          []float64 `json:"generator_failure_to_start"`
	MeanTimeToFailure       []float64 `json:"generator_mean_time_to_failure"`
	FuelBurnRatePerKWh      []float64 `json:"fuel_burn_rate_per_kwh"`
	FuelInterceptPerHour    []float64 `json:"fuel_intercept_per_hour"`
	FuelLimit               []float64 `json:"fuel_limit"`
	FuelLimitIsPerUnit      bool      `json:"fuel_limit_is_per_unit"`
}

// Fleet converts the vectors to a typed fleet, rejecting mismatched lengths.
func (g GeneratorsConfig) Fleet() (model.GeneratorFleet, error) {
	n := len(g.NumGenerators)
	check := func(name string, l int) error {
		if l != 0 && l != n {
			return fmt.Errorf("%w: generator vector %s has length %d, expected %d", model.ErrConfig, name, l, n)
		}
		return nil
	}
	for _, c := range []struct {
		name string
		l    int
	}{
		{"names", len(g.Names)},
		{"generator_size_kw", len(g.SizeKW)},
		{"generator_operational_availability", len(g.OperationalAvailability)},
		{"generator_failure_to_start", len(g.FailureToStart)},
		{"generator_mean_time_to_failure", len(g.MeanTimeToFailure)},
		{"fuel_burn_rate_per_kwh", len(g.FuelBurnRatePerKWh)},
		{"fuel_intercept_per_hour", len(g.FuelInterceptPerHour)},
		{"fuel_limit", len(g.FuelLimit)},
	} {
		if err := check(c.name, c.l); err != nil {
			return model.GeneratorFleet{}, err
		}
	}

	at := func(v []float64, i int) float64 {
		if i < len(v) {
			return v[i]
		}
		return 0
	}
	fleet := model.GeneratorFleet{Types: make([]model.GeneratorType, n)}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("type-%d", i+1)
		if i < len(g.Names) {
			name = g.Names[i]
		}
		fleet.Types[i] = model.GeneratorType{
			Name:                    name,
			Count:                   g.NumGenerators[i],
			SizeKW:                  at(g.SizeKW, i),
			OperationalAvailability: at(g.OperationalAvailability, i),
			FailureToStart:          at(g.FailureToStart, i),
			MTTFSteps:               at(g.MeanTimeToFailure, i),
			FuelBurnRatePerKWh:      at(g.FuelBurnRatePerKWh, i),
			FuelInterceptPerHour:    at(g.FuelInterceptPerHour, i),
			FuelLimit:               at(g.FuelLimit, i),
			FuelLimitPerUnit:        g.FuelLimitIsPerUnit,
		}
	}
	return fleet, nil
}

// BatteryConfig describes the stationary battery.
type BatteryConfig struct {
	SizeKW                  float64   `json:"size_kw"`
	SizeKWh                 float64   `json:"size_kwh"`
	ChargeEfficiency        float64   `json:"charge_efficiency"`
	DischargeEfficiency     float64   `json:"discharge_efficiency"`
	MinimumSOCFraction      float64   `json:"minimum_soc_fraction"`
	OperationalAvailability float64   `json:"operational_availability"`
	StartingSOCSeries       []float64 `json:"starting_soc_series"`
	ExcludeFromMicrogrid    bool      `json:"exclude_from_microgrid"`
}

// Spec converts the battery configuration; a zero-size battery yields nil.
func (b BatteryConfig) Spec() *model.StorageSpec {
	if b.SizeKW == 0 && b.SizeKWh == 0 {
		return nil
	}
	return &model.StorageSpec{
		ChargePowerKW:           b.SizeKW,
		DischargePowerKW:        b.SizeKW,
		CapacityKWh:             b.SizeKWh,
		ChargeEfficiency:        b.ChargeEfficiency,
		DischargeEfficiency:     b.DischargeEfficiency,
		MinSOCFraction:          b.MinimumSOCFraction,
		OperationalAvailability: b.OperationalAvailability,
		SOCSeries:               b.StartingSOCSeries,
		IncludeInMicrogrid:      !b.ExcludeFromMicrogrid,
	}
}

// HydrogenConfig describes the hydrogen storage system, with separate
// electrolyzer and fuel-cell power limits.
type HydrogenConfig struct {
	ElectrolyzerKW          float64   `json:"electrolyzer_kw"`
	FuelCellKW              float64   `json:"fuel_cell_kw"`
	SizeKWh                 float64   `json:"size_kwh"`
	ChargeEfficiency        float64   `json:"charge_efficiency"`
	DischargeEfficiency     float64   `json:"discharge_efficiency"`
	MinimumSOCFraction      float64   `json:"minimum_soc_fraction"`
	OperationalAvailability float64   `json:"operational_availability"`
	StartingSOCSeries       []float64 `json:"starting_soc_series"`
	ExcludeFromMicrogrid    bool      `json:"exclude_from_microgrid"`
}

// Spec converts the hydrogen configuration; a zero-size system yields nil.
func (h HydrogenConfig) Spec() *model.StorageSpec {
	if h.FuelCellKW == 0 && h.SizeKWh == 0 {
		return nil
	}
	return &model.StorageSpec{
		ChargePowerKW:           h.ElectrolyzerKW,
		DischargePowerKW:        h.FuelCellKW,
		CapacityKWh:             h.SizeKWh,
		ChargeEfficiency:        h.ChargeEfficiency,
		DischargeEfficiency:     h.DischargeEfficiency,
		MinSOCFraction:          h.MinimumSOCFraction,
		OperationalAvailability: h.OperationalAvailability,
		SOCSeries:               h.StartingSOCSeries,
		IncludeInMicrogrid:      !h.ExcludeFromMicrogrid,
	}
}

// PVConfig describes on-site photovoltaic production.
type PVConfig struct {
	ProductionSeriesKW      []float64 `json:"production_series_kw"`
	OperationalAvailability float64   `json:"operational_availability"`
	CanServeWithoutBattery  bool      `json:"can_serve_without_battery"`
	ExcludeFromMicrogrid    bool      `json:"exclude_from_microgrid"`
}

// Spec converts the PV configuration; a missing series yields nil.
func (p PVConfig) Spec() *model.PVSpec {
	if len(p.ProductionSeriesKW) == 0 && p.OperationalAvailability == 0 {
		return nil
	}
	return &model.PVSpec{
		ACOutputKW:              p.ProductionSeriesKW,
		OperationalAvailability: p.OperationalAvailability,
		CanServeWithoutBattery:  p.CanServeWithoutBattery,
		IncludeInMicrogrid:      !p.ExcludeFromMicrogrid,
	}
}

// Inputs converts the scenario section to validated engine inputs.
func (s ScenarioConfig) Inputs() (model.ScenarioInputs, error) {
	fleet, err := s.Generators.Fleet()
	if err != nil {
		return model.ScenarioInputs{}, err
	}
	in := model.ScenarioInputs{
		CriticalLoadKW: s.CriticalLoadsKW,
		Fleet:          fleet,
		Battery:        s.Battery.Spec(),
		Hydrogen:       s.Hydrogen.Spec(),
		PV:             s.PV.Spec(),
		Options: model.EngineOptions{
			MaxOutageSteps: s.MaxOutageDuration,
			BatteryBins:    s.NumBatteryBins,
			HydrogenBins:   s.NumHydrogenBins,
			Marginal:       s.MarginalSurvival,
			MicrogridOnly:  s.MicrogridOnly,
			StepsPerHour:   s.TimeStepsPerHour,
			Workers:        s.Workers,
		},
	}
	in.Options.SetDefaults()
	if err := in.Validate(); err != nil {
		return model.ScenarioInputs{}, err
	}
	return in, nil
}
