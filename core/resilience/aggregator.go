// Package resilience combines the probabilistic survival simulation, the
// asset-availability scenarios and the deterministic fuel bound into the
// summary statistics reported for a fixed-size backup fleet.
package resilience

import (
	"github.com/google/uuid"

	"github.com/kilianp07/resilience/core/fuel"
	"github.com/kilianp07/resilience/core/markov"
	"github.com/kilianp07/resilience/core/model"
	"github.com/kilianp07/resilience/core/storage"
	"github.com/kilianp07/resilience/core/survival"
	"github.com/kilianp07/resilience/infra/logger"
)

// Engine evaluates outage survival for a given fleet. It performs no sizing:
// inputs are validated once at construction and the run is pure numerical
// computation.
type Engine struct {
	in  model.ScenarioInputs
	log logger.Logger
}

// New validates the inputs and returns a ready engine. No partial results
// are ever produced from an invalid configuration.
func New(in model.ScenarioInputs, log logger.Logger) (*Engine, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Engine{in: in, log: log}, nil
}

// scenario is one weighted asset-availability case: battery and PV are
// independently up or down at outage onset.
type scenario struct {
	name       string
	weight     float64
	useBattery bool
	usePV      bool
}

// Run executes every weighted scenario, bounds the combined survival matrix
// by the fuel-limited simulation and aggregates summary statistics.
func (e *Engine) Run() (*model.ResilienceSummary, error) {
	in := e.in
	opts := in.Options
	opts.SetDefaults()
	T := len(in.CriticalLoadKW)

	fm, err := markov.NewFailureModel(in.Fleet)
	if err != nil {
		return nil, err
	}

	batt := e.participating(in.Battery)
	h2 := e.participating(in.Hydrogen)
	pv := in.PV
	if pv != nil && (!pv.Modeled() || (opts.MicrogridOnly && !pv.IncludeInMicrogrid)) {
		pv = nil
	}

	combined := newMatrix(T, opts.MaxOutageSteps)
	for _, sc := range e.scenarios(batt, pv) {
		if sc.weight == 0 {
			continue
		}
		e.log.Debugw("running scenario", map[string]any{"scenario": sc.name, "weight": sc.weight})

		cfg := survival.Config{
			NetLoadKW:    e.netLoad(pv, sc.usePV),
			Model:        fm,
			MaxDuration:  opts.MaxOutageSteps,
			Cumulative:   !opts.Marginal,
			StepsPerHour: opts.StepsPerHour,
		}
		if sc.useBattery {
			cfg.Battery = e.storageParams(batt, opts.BatteryBins)
			// Hydrogen rides with the battery: it only participates in
			// scenarios where the battery is up.
			cfg.Hydrogen = e.storageParams(h2, opts.HydrogenBins)
		} else {
			cfg.Battery = survival.StorageParams{Bins: 1}
			cfg.Hydrogen = survival.StorageParams{Bins: 1}
		}

		sim, err := survival.New(cfg)
		if err != nil {
			return nil, err
		}
		accumulate(combined, sim.RunAll(opts.Workers), sc.weight)
	}

	fuelRes := e.fuelBound(batt, pv, opts)
	for t := range combined {
		for d := range combined[t] {
			combined[t][d] *= fuelRes.Survival[t][d]
		}
	}

	final := finalColumn(combined)
	return &model.ResilienceSummary{
		RunID:                  uuid.NewString(),
		MeanSurvivalByDuration: meanByDuration(combined),
		MinSurvivalByDuration:  minByDuration(combined),
		FinalDurationSurvival:  final,
		MonthlyQuartiles:       monthlyQuartiles(final, opts.StepsPerHour),
		FuelSurvivalByDuration: meanByDuration(fuelRes.Survival),
		TotalFuelUsed:          fuelRes.FuelUsed,
	}, nil
}

// participating drops storage assets excluded by the microgrid-only flag or
// not modeled at all.
func (e *Engine) participating(s *model.StorageSpec) *model.StorageSpec {
	if !s.Modeled() {
		return nil
	}
	if e.in.Options.MicrogridOnly && !s.IncludeInMicrogrid {
		return nil
	}
	return s
}

// scenarios builds the four mutually exclusive weighted availability cases.
// When PV cannot serve load without a battery its battery-down probability
// mass folds into the generator-only case.
func (e *Engine) scenarios(batt *model.StorageSpec, pv *model.PVSpec) []scenario {
	var ab, ap float64
	if batt != nil {
		ab = batt.OperationalAvailability
	}
	if pv != nil {
		ap = pv.OperationalAvailability
	}

	all := scenario{name: "generator+pv+battery", weight: ab * ap, useBattery: true, usePV: true}
	battOnly := scenario{name: "generator+battery", weight: ab * (1 - ap), useBattery: true}
	pvOnly := scenario{name: "generator+pv", usePV: true}
	genOnly := scenario{name: "generator-only"}
	if pv != nil && pv.CanServeWithoutBattery {
		pvOnly.weight = (1 - ab) * ap
		genOnly.weight = (1 - ab) * (1 - ap)
	} else {
		genOnly.weight = 1 - ab
	}
	return []scenario{genOnly, all, battOnly, pvOnly}
}

// netLoad returns the critical load, reduced by PV production when included.
func (e *Engine) netLoad(pv *model.PVSpec, usePV bool) []float64 {
	load := e.in.CriticalLoadKW
	if !usePV || pv == nil {
		return load
	}
	net := make([]float64, len(load))
	for i, l := range load {
		net[i] = l - pv.ACOutputKW[i]
	}
	return net
}

// storageParams discretizes a storage asset for the joint simulation. A nil
// asset collapses to a single bin, removing the dimension.
func (e *Engine) storageParams(s *model.StorageSpec, bins int) survival.StorageParams {
	if s == nil || bins <= 1 {
		return survival.StorageParams{Bins: 1}
	}
	usable := s.UsableCapacityKWh()
	return survival.StorageParams{
		Bins:         bins,
		BinKWh:       storage.BinWidthKWh(usable, bins),
		ChargeKW:     s.ChargePowerKW,
		DischargeKW:  s.DischargePowerKW,
		ChargeEff:    s.ChargeEfficiency,
		DischargeEff: s.DischargeEfficiency,
		StartBins:    storage.Discretize(e.startChargeKWh(s), bins, usable),
	}
}

// startChargeKWh converts the SOC series to usable energy above the SOC
// floor. Values below the floor are reported once and proceed; downstream
// clamping maps them to the empty bin.
func (e *Engine) startChargeKWh(s *model.StorageSpec) []float64 {
	out := make([]float64, len(s.SOCSeries))
	warned := false
	for i, soc := range s.SOCSeries {
		out[i] = s.UsableChargeKWh(soc)
		if out[i] < 0 && !warned {
			e.log.Warnf("starting SOC %v below minimum %v at step %d; clamping to empty", soc, s.MinSOCFraction, i)
			warned = true
		}
	}
	return out
}

// fuelBound runs the deterministic fuel-depletion simulation. Fleets without
// any fuel limit are unconstrained and survive everywhere.
func (e *Engine) fuelBound(batt *model.StorageSpec, pv *model.PVSpec, opts model.EngineOptions) *fuel.Result {
	T := len(e.in.CriticalLoadKW)
	limited := false
	for _, g := range e.in.Fleet.Types {
		if g.FuelLimit > 0 {
			limited = true
			break
		}
	}
	if !limited {
		res := &fuel.Result{Survival: newMatrix(T, opts.MaxOutageSteps), FuelUsed: newMatrix(T, len(e.in.Fleet.Types))}
		for t := range res.Survival {
			for d := range res.Survival[t] {
				res.Survival[t][d] = 1
			}
		}
		return res
	}

	cfg := fuel.Config{
		NetLoadKW:    e.netLoad(pv, pv != nil),
		Fleet:        e.in.Fleet,
		MaxDuration:  opts.MaxOutageSteps,
		StepsPerHour: opts.StepsPerHour,
	}
	if batt != nil {
		cfg.Battery = batt
		cfg.BatteryStartKWh = e.startChargeKWh(batt)
	}
	return fuel.Simulate(cfg)
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func accumulate(dst, src [][]float64, w float64) {
	for t := range dst {
		for d := range dst[t] {
			dst[t][d] += w * src[t][d]
		}
	}
}
