package markov

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/resilience/core/model"
)

func TestTransitionMatrix_ColumnsSumToOne(t *testing.T) {
	cases := []struct {
		counts []int
		probs  []float64
	}{
		{[]int{2}, []float64{0.1}},
		{[]int{2, 1}, []float64{0.1, 0.25}},
		{[]int{3, 2, 1}, []float64{0.05, 0.5, 0.9}},
	}
	for _, c := range cases {
		states := NewStateSpace(c.counts)
		m := TransitionMatrix(states, c.probs)
		n := states.Size()
		for start := 0; start < n; start++ {
			var sum float64
			for end := 0; end < n; end++ {
				v := m.At(end, start)
				assert.GreaterOrEqual(t, v, 0.0)
				sum += v
			}
			assert.InDelta(t, 1.0, sum, 1e-12, "column %d of %v", start, c.counts)
		}
	}
}

func TestTransitionMatrix_NoFailuresIsIdentity(t *testing.T) {
	states := NewStateSpace([]int{1})
	m := TransitionMatrix(states, []float64{0})
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 0.0, m.At(1, 0))
	assert.Equal(t, 0.0, m.At(0, 1))
	assert.Equal(t, 1.0, m.At(1, 1))
}

func TestTransitionMatrix_CertainFailureAbsorbsAtZeroWorking(t *testing.T) {
	states := NewStateSpace([]int{1})
	m := TransitionMatrix(states, []float64{1})
	// All mass flows into the zero-units-working state in one step.
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 1.0, m.At(0, 1))
	assert.Equal(t, 0.0, m.At(1, 0))
	assert.Equal(t, 0.0, m.At(1, 1))
}

func TestTransitionMatrix_UnitsNeverRepair(t *testing.T) {
	states := NewStateSpace([]int{2})
	m := TransitionMatrix(states, []float64{0.1})
	// Entries above the working-unit count of the start state are zero.
	assert.Equal(t, 0.0, m.At(1, 0))
	assert.Equal(t, 0.0, m.At(2, 0))
	assert.Equal(t, 0.0, m.At(2, 1))
	assert.InDelta(t, 0.81, m.At(2, 2), 1e-12)
	assert.InDelta(t, 0.18, m.At(1, 2), 1e-12)
	assert.InDelta(t, 0.01, m.At(0, 2), 1e-12)
}

func TestStartingProbabilities_PerfectFleetIsOneHot(t *testing.T) {
	states := NewStateSpace([]int{2, 1})
	probs := StartingProbabilities(states, []float64{1, 1}, []float64{0, 0})
	for st := 0; st < states.Size()-1; st++ {
		assert.Equal(t, 0.0, probs[st])
	}
	assert.Equal(t, 1.0, probs[states.Size()-1])
}

func TestStartingProbabilities_SumToOne(t *testing.T) {
	states := NewStateSpace([]int{2, 3})
	probs := StartingProbabilities(states, []float64{0.95, 0.8}, []float64{0.05, 0.1})
	var sum float64
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestGeneratorOutput_LeftmostTypeFastest(t *testing.T) {
	states := NewStateSpace([]int{2, 1})
	out := GeneratorOutput(states, []float64{250, 300})
	assert.Equal(t, []float64{0, 250, 500, 300, 550, 800}, out)
}

func TestNewFailureModel_RejectsSubStepMTTF(t *testing.T) {
	fleet := model.GeneratorFleet{Types: []model.GeneratorType{{
		Count: 1, SizeKW: 100, OperationalAvailability: 1, MTTFSteps: 0.2,
	}}}
	_, err := NewFailureModel(fleet)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfig))
}

func TestNewFailureModel_Shapes(t *testing.T) {
	fleet := model.GeneratorFleet{Types: []model.GeneratorType{
		{Count: 2, SizeKW: 250, OperationalAvailability: 0.99, FailureToStart: 0.01, MTTFSteps: 1100},
		{Count: 1, SizeKW: 300, OperationalAvailability: 0.95, FailureToStart: 0.02, MTTFSteps: 800},
	}}
	fm, err := NewFailureModel(fleet)
	require.NoError(t, err)
	assert.Equal(t, 6, fm.States.Size())
	r, c := fm.Transition.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 6, c)
	assert.Len(t, fm.Starting, 6)
	assert.Len(t, fm.OutputKW, 6)
}
