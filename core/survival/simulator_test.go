package survival

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/resilience/core/markov"
	"github.com/kilianp07/resilience/core/model"
)

func mustModel(t *testing.T, types ...model.GeneratorType) *markov.FailureModel {
	t.Helper()
	fm, err := markov.NewFailureModel(model.GeneratorFleet{Types: types})
	require.NoError(t, err)
	return fm
}

func noStorage() StorageParams { return StorageParams{Bins: 1} }

func TestRun_GeneratorOnlyMarginal(t *testing.T) {
	fm := mustModel(t, model.GeneratorType{
		Count: 2, SizeKW: 1, OperationalAvailability: 1, FailureToStart: 0, MTTFSteps: 5,
	})
	sim, err := New(Config{
		NetLoadKW:    []float64{1, 2, 2, 1},
		Model:        fm,
		Battery:      noStorage(),
		Hydrogen:     noStorage(),
		MaxDuration:  3,
		Cumulative:   false,
		StepsPerHour: 1,
	})
	require.NoError(t, err)

	matrix := sim.RunAll(1)
	require.Len(t, matrix, 4)
	want := []float64{0.96, 0.4096, 0.262144}
	for d, w := range want {
		assert.InDelta(t, w, matrix[0][d], 1e-12, "duration %d", d+1)
	}
}

func TestRun_WrapsAroundYearEnd(t *testing.T) {
	fm := mustModel(t, model.GeneratorType{
		Count: 1, SizeKW: 2, OperationalAvailability: 1, MTTFSteps: 5,
	})
	sim, err := New(Config{
		NetLoadKW:   []float64{1, 1, 3, 1},
		Model:       fm,
		Battery:     noStorage(),
		Hydrogen:    noStorage(),
		MaxDuration: 3,
		Cumulative:  true,
	})
	require.NoError(t, err)

	matrix := sim.RunAll(1)
	// Starting at the last hour, the second outage step is hour 0 again.
	assert.Greater(t, matrix[3][1], 0.0)
	// Starting at hour 1, the outage hits the impossible 3 kW hour at step 2.
	assert.Equal(t, 0.0, matrix[1][1])
}

func TestRun_ZeroSizedBatteryMatchesGeneratorOnly(t *testing.T) {
	loads := []float64{1, 2, 2, 1, 0.5, 1.5}
	gen := model.GeneratorType{Count: 2, SizeKW: 1, OperationalAvailability: 0.98, FailureToStart: 0.01, MTTFSteps: 50}

	base, err := New(Config{
		NetLoadKW: loads, Model: mustModel(t, gen),
		Battery: noStorage(), Hydrogen: noStorage(),
		MaxDuration: 4, Cumulative: true, StepsPerHour: 1,
	})
	require.NoError(t, err)

	zeroBatt, err := New(Config{
		NetLoadKW: loads, Model: mustModel(t, gen),
		Battery: StorageParams{
			Bins: 4, BinKWh: 1, ChargeKW: 0, DischargeKW: 0,
			ChargeEff: 1, DischargeEff: 1,
			StartBins: []int{1, 1, 1, 1, 1, 1},
		},
		Hydrogen:    noStorage(),
		MaxDuration: 4, Cumulative: true, StepsPerHour: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, base.RunAll(1), zeroBatt.RunAll(1))
}

func TestRun_BatteryExtendsSurvival(t *testing.T) {
	// One perfectly reliable 1 kW generator against a 2 kW load: the
	// battery bridges the gap until it empties, one bin per step.
	fm := mustModel(t, model.GeneratorType{Count: 1, SizeKW: 1, OperationalAvailability: 1})
	loads := []float64{2, 2, 2, 2, 2, 2}
	sim, err := New(Config{
		NetLoadKW: loads,
		Model:     fm,
		Battery: StorageParams{
			Bins: 3, BinKWh: 1, ChargeKW: 10, DischargeKW: 10,
			ChargeEff: 1, DischargeEff: 1,
			StartBins: []int{3, 3, 3, 3, 3, 3},
		},
		Hydrogen:    noStorage(),
		MaxDuration: 4, Cumulative: true, StepsPerHour: 1,
	})
	require.NoError(t, err)

	row := sim.RunAll(1)[0]
	assert.Equal(t, []float64{1, 1, 0, 0}, row)
}

func TestRun_ChargeAccumulatesAtFullBoundary(t *testing.T) {
	// Excess generation beyond the full bin must pile up at the boundary,
	// not wrap to empty: after two idle hours the battery is still full
	// enough to cover the 3 kW hour.
	fm := mustModel(t, model.GeneratorType{Count: 1, SizeKW: 1, OperationalAvailability: 1})
	sim, err := New(Config{
		NetLoadKW: []float64{0, 0, 3, 3},
		Model:     fm,
		Battery: StorageParams{
			Bins: 3, BinKWh: 1, ChargeKW: 10, DischargeKW: 10,
			ChargeEff: 1, DischargeEff: 1,
			StartBins: []int{2, 2, 2, 2},
		},
		Hydrogen:    noStorage(),
		MaxDuration: 3, Cumulative: true, StepsPerHour: 1,
	})
	require.NoError(t, err)

	row := sim.RunAll(1)[0]
	assert.Equal(t, []float64{1, 1, 1}, row)
}

func TestRun_DischargeEfficiencyDrainsFaster(t *testing.T) {
	fm := mustModel(t, model.GeneratorType{Count: 1, SizeKW: 1, OperationalAvailability: 1})
	loads := []float64{2, 2, 2, 2, 2, 2}
	cfg := Config{
		NetLoadKW: loads,
		Model:     fm,
		Battery: StorageParams{
			Bins: 5, BinKWh: 1, ChargeKW: 10, DischargeKW: 10,
			ChargeEff: 1, DischargeEff: 0.5,
			StartBins: []int{5, 5, 5, 5, 5, 5},
		},
		Hydrogen:    noStorage(),
		MaxDuration: 4, Cumulative: true, StepsPerHour: 1,
	}
	sim, err := New(cfg)
	require.NoError(t, err)

	// Each 1 kW deficit costs 2 kWh of stored energy at 50% efficiency.
	row := sim.RunAll(1)[0]
	assert.Equal(t, []float64{1, 1, 0, 0}, row)
}

func TestRun_HydrogenAbsorbsResidualPower(t *testing.T) {
	// Battery inverter caps at 1 kW; the remaining 1 kW deficit is served
	// by the fuel cell until the hydrogen store empties.
	fm := mustModel(t, model.GeneratorType{Count: 1, SizeKW: 1, OperationalAvailability: 1})
	loads := []float64{3, 3, 3, 3, 3, 3}
	sim, err := New(Config{
		NetLoadKW: loads,
		Model:     fm,
		Battery: StorageParams{
			Bins: 4, BinKWh: 1, ChargeKW: 1, DischargeKW: 1,
			ChargeEff: 1, DischargeEff: 1,
			StartBins: []int{4, 4, 4, 4, 4, 4},
		},
		Hydrogen: StorageParams{
			Bins: 3, BinKWh: 1, ChargeKW: 1, DischargeKW: 1,
			ChargeEff: 1, DischargeEff: 1,
			StartBins: []int{3, 3, 3, 3, 3, 3},
		},
		MaxDuration: 3, Cumulative: true, StepsPerHour: 1,
	})
	require.NoError(t, err)

	// Both stores drain one bin per step; the hydrogen store empties after
	// two steps and the joint system can no longer cover 3 kW.
	row := sim.RunAll(1)[0]
	assert.Equal(t, []float64{1, 1, 0}, row)
}

func TestRunAll_ParallelMatchesSequential(t *testing.T) {
	fm := mustModel(t, model.GeneratorType{
		Count: 2, SizeKW: 1, OperationalAvailability: 0.97, FailureToStart: 0.02, MTTFSteps: 30,
	})
	loads := make([]float64, 48)
	startBins := make([]int, 48)
	for i := range loads {
		loads[i] = 0.5 + float64(i%5)*0.4
		startBins[i] = 1 + i%6
	}
	cfg := Config{
		NetLoadKW: loads,
		Model:     fm,
		Battery: StorageParams{
			Bins: 6, BinKWh: 0.5, ChargeKW: 2, DischargeKW: 2,
			ChargeEff: 0.95, DischargeEff: 0.95,
			StartBins: startBins,
		},
		Hydrogen:    noStorage(),
		MaxDuration: 12, Cumulative: true, StepsPerHour: 1,
	}
	seq, err := New(cfg)
	require.NoError(t, err)
	par, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, seq.RunAll(1), par.RunAll(4))
}

func TestRun_CumulativeMassNeverIncreases(t *testing.T) {
	fm := mustModel(t, model.GeneratorType{
		Count: 3, SizeKW: 1, OperationalAvailability: 0.95, FailureToStart: 0.05, MTTFSteps: 10,
	})
	sim, err := New(Config{
		NetLoadKW:   []float64{1, 2, 1, 2, 3, 1},
		Model:       fm,
		Battery:     noStorage(),
		Hydrogen:    noStorage(),
		MaxDuration: 6, Cumulative: true,
	})
	require.NoError(t, err)

	for _, row := range sim.RunAll(1) {
		prev := 1.0
		for _, v := range row {
			assert.LessOrEqual(t, v, prev+1e-12)
			assert.GreaterOrEqual(t, v, 0.0)
			prev = v
		}
	}
}

func TestNew_RejectsBadConfigs(t *testing.T) {
	fm := mustModel(t, model.GeneratorType{Count: 1, SizeKW: 1, OperationalAvailability: 1})
	_, err := New(Config{Model: fm, Battery: noStorage(), Hydrogen: noStorage(), MaxDuration: 3})
	assert.Error(t, err)

	_, err = New(Config{NetLoadKW: []float64{1}, Model: fm, Battery: noStorage(), Hydrogen: noStorage()})
	assert.Error(t, err)

	_, err = New(Config{
		NetLoadKW: []float64{1, 1}, Model: fm, MaxDuration: 2,
		Battery:  StorageParams{Bins: 3, BinKWh: 1, DischargeKW: 1, StartBins: []int{1}},
		Hydrogen: noStorage(),
	})
	assert.Error(t, err)
}
