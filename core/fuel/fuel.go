// Package fuel bounds outage survival by deterministic fuel depletion. It
// assumes no equipment ever fails and dispatches generators against critical
// load until their tanks run dry, yielding a binary survival matrix that caps
// the probabilistic result.
package fuel

import (
	"math"
	"sort"

	"github.com/kilianp07/resilience/core/model"
)

const eps = 1e-9

// Config describes one fuel-limited simulation.
type Config struct {
	// NetLoadKW is the critical load net of renewable production. Negative
	// values denote excess production available for charging.
	NetLoadKW []float64

	Fleet model.GeneratorFleet

	// Battery is optional. BatteryStartKWh holds the usable stored energy
	// at every outage start time.
	Battery         *model.StorageSpec
	BatteryStartKWh []float64

	MaxDuration  int
	StepsPerHour float64
}

// Result is the outcome of the fuel-limited simulation.
type Result struct {
	// Survival is a T x MaxDuration matrix of 0/1 values: 1 when load was
	// fully met at every step from outage start through that duration.
	// Once an hour is missed the remainder of the row stays 0.
	Survival [][]float64

	// FuelUsed is the fuel consumed per start time and generator type when
	// riding through the maximum outage duration.
	FuelUsed [][]float64
}

// Simulate runs the never-fails dispatch for every outage start time.
func Simulate(cfg Config) *Result {
	T := len(cfg.NetLoadKW)
	D := cfg.MaxDuration
	types := cfg.Fleet.Types
	hours := 1.0
	if cfg.StepsPerHour > 0 {
		hours = 1 / cfg.StepsPerHour
	}

	res := &Result{
		Survival: make([][]float64, T),
		FuelUsed: make([][]float64, T),
	}

	fuelLeft := make([]float64, len(types))
	outKW := make([]float64, len(types))
	order := make([]int, len(types))

	for t := 0; t < T; t++ {
		row := make([]float64, D)
		used := make([]float64, len(types))
		res.Survival[t] = row
		res.FuelUsed[t] = used

		for i, g := range types {
			fuelLeft[i] = g.TotalFuel()
		}
		var charge, usable float64
		if cfg.Battery.Modeled() {
			usable = cfg.Battery.UsableCapacityKWh()
			charge = math.Max(0, math.Min(cfg.BatteryStartKWh[t], usable))
		}

		alive := true
		for d := 1; d <= D; d++ {
			load := cfg.NetLoadKW[(t+d-1)%T]
			demand := math.Max(load, 0)
			excess := math.Max(-load, 0)

			dispatchOrder(types, fuelLeft, hours, order)
			served := dispatchGenerators(types, fuelLeft, hours, order, demand, outKW)
			remaining := demand - served

			if remaining > eps && cfg.Battery.Modeled() {
				deliver := math.Min(remaining, cfg.Battery.DischargePowerKW)
				deliver = math.Min(deliver, charge*cfg.Battery.DischargeEfficiency/hours)
				if deliver > 0 {
					charge -= deliver / cfg.Battery.DischargeEfficiency * hours
					remaining -= deliver
				}
			}

			survived := remaining <= eps
			if survived && cfg.Battery.Modeled() && charge < usable {
				charge += chargeBattery(cfg, types, fuelLeft, hours, order, outKW, excess, usable-charge)
				if charge > usable {
					charge = usable
				}
			}

			burnFuel(types, fuelLeft, used, outKW, hours)

			// Generators keep serving partial load after the first unmet
			// step, so fuel accounting runs through the full window even
			// though the survival row stays 0.
			if !survived {
				alive = false
			}
			if alive {
				row[d-1] = 1
			}
		}
	}
	return res
}

// dispatchOrder sorts type indices by remaining runway, longest first, so the
// most fuel-constrained types are drawn down last.
func dispatchOrder(types []model.GeneratorType, fuelLeft []float64, hours float64, order []int) {
	for i := range order {
		order[i] = i
	}
	runway := func(i int) float64 {
		g := types[i]
		rate := g.FuelInterceptPerHour*float64(g.Count) + g.FuelBurnRatePerKWh*g.TotalCapacityKW()
		if rate <= 0 {
			return math.Inf(1)
		}
		return fuelLeft[i] / rate
	}
	sort.SliceStable(order, func(a, b int) bool {
		return runway(order[a]) > runway(order[b])
	})
}

// dispatchGenerators serves demand with generator capacity that still has
// fuel, sharing load proportionally to remaining capacity and topping up in
// runway order when proportional shares hit per-type limits. It returns the
// total power served and fills outKW per type.
func dispatchGenerators(types []model.GeneratorType, fuelLeft []float64, hours float64, order []int, demand float64, outKW []float64) float64 {
	clear(outKW)
	if demand <= 0 {
		return 0
	}

	var totalCap float64
	for i, g := range types {
		if fuelLeft[i] > eps {
			totalCap += g.TotalCapacityKW()
		}
	}
	if totalCap <= 0 {
		return 0
	}

	var served float64
	for _, i := range order {
		g := types[i]
		if fuelLeft[i] <= eps || g.TotalCapacityKW() <= 0 {
			continue
		}
		share := demand * g.TotalCapacityKW() / totalCap
		out := math.Min(share, g.TotalCapacityKW())
		out = math.Min(out, maxFuelOutputKW(g, fuelLeft[i], hours))
		outKW[i] = out
		served += out
	}

	remaining := demand - served
	for _, i := range order {
		if remaining <= eps {
			break
		}
		g := types[i]
		if fuelLeft[i] <= eps {
			continue
		}
		headroom := math.Min(g.TotalCapacityKW(), maxFuelOutputKW(g, fuelLeft[i], hours)) - outKW[i]
		if headroom <= 0 {
			continue
		}
		add := math.Min(remaining, headroom)
		outKW[i] += add
		served += add
		remaining -= add
	}
	return served
}

// chargeBattery uses excess renewable production first, then spare generator
// capacity, to refill the battery. It returns the energy added and raises the
// per-type outputs for the extra generation.
func chargeBattery(cfg Config, types []model.GeneratorType, fuelLeft []float64, hours float64, order []int, outKW []float64, excessKW, headroomKWh float64) float64 {
	batt := cfg.Battery
	budget := batt.ChargePowerKW
	budget = math.Min(budget, headroomKWh/(batt.ChargeEfficiency*hours))

	chargeKW := math.Min(excessKW, budget)
	budget -= chargeKW

	for _, i := range order {
		if budget <= eps {
			break
		}
		g := types[i]
		if fuelLeft[i] <= eps {
			continue
		}
		spare := math.Min(g.TotalCapacityKW(), maxFuelOutputKW(g, fuelLeft[i], hours)) - outKW[i]
		if spare <= 0 {
			continue
		}
		add := math.Min(spare, budget)
		outKW[i] += add
		chargeKW += add
		budget -= add
	}
	return chargeKW * batt.ChargeEfficiency * hours
}

// maxFuelOutputKW is the power a type can sustain for one step before its
// tank runs dry, accounting for the idle intercept of its running units.
func maxFuelOutputKW(g model.GeneratorType, fuelLeft, hours float64) float64 {
	if g.FuelBurnRatePerKWh <= 0 {
		if fuelLeft > g.FuelInterceptPerHour*float64(g.Count)*hours {
			return math.Inf(1)
		}
		return 0
	}
	kw := (fuelLeft/hours - g.FuelInterceptPerHour*float64(g.Count)) / g.FuelBurnRatePerKWh
	if kw < 0 {
		return 0
	}
	return kw
}

// burnFuel deducts the step's consumption per type: the idle intercept for
// each running unit plus the per-kWh rate on delivered energy.
func burnFuel(types []model.GeneratorType, fuelLeft, used, outKW []float64, hours float64) {
	for i, g := range types {
		if outKW[i] <= 0 {
			continue
		}
		running := g.Count
		if g.SizeKW > 0 {
			running = int(math.Ceil(outKW[i] / g.SizeKW))
			if running > g.Count {
				running = g.Count
			}
		}
		burned := (g.FuelInterceptPerHour*float64(running) + g.FuelBurnRatePerKWh*outKW[i]) * hours
		if burned > fuelLeft[i] {
			burned = fuelLeft[i]
		}
		fuelLeft[i] -= burned
		used[i] += burned
	}
}
