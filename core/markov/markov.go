// Package markov models backup generator degradation as a discrete-state
// Markov chain over the number of working units of each generator type.
package markov

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/resilience/core/model"
)

// StateSpace enumerates joint generator availability states. States are
// numbered with the leftmost type's unit count incrementing fastest and the
// zero-units-working state first, giving a bijection between state indices
// and per-type working-unit tuples.
type StateSpace struct {
	counts []int
	dims   []int
	size   int
}

// NewStateSpace builds the enumeration for the given per-type unit counts.
func NewStateSpace(counts []int) *StateSpace {
	dims := make([]int, len(counts))
	size := 1
	for i, c := range counts {
		dims[i] = c + 1
		size *= dims[i]
	}
	return &StateSpace{counts: append([]int(nil), counts...), dims: dims, size: size}
}

// Size returns the number of joint states.
func (s *StateSpace) Size() int { return s.size }

// Working fills dst with the number of working units per type for the
// zero-based state index and returns it.
func (s *StateSpace) Working(state int, dst []int) []int {
	if dst == nil {
		dst = make([]int, len(s.dims))
	}
	for i, d := range s.dims {
		dst[i] = state % d
		state /= d
	}
	return dst
}

// FailureModel bundles the immutable probabilistic description of a fleet:
// the one-step transition matrix, the state distribution at outage onset and
// the deliverable power of each state.
type FailureModel struct {
	States     *StateSpace
	Transition *mat.Dense
	Starting   []float64
	OutputKW   []float64
}

// NewFailureModel derives the model from fleet parameters. The fleet must
// already be validated; per-step failure probabilities above 1 are rejected.
func NewFailureModel(fleet model.GeneratorFleet) (*FailureModel, error) {
	if err := fleet.Validate(); err != nil {
		return nil, err
	}
	counts := fleet.Counts()
	states := NewStateSpace(counts)

	avail := make([]float64, len(fleet.Types))
	fts := make([]float64, len(fleet.Types))
	for i, t := range fleet.Types {
		avail[i] = t.OperationalAvailability
		fts[i] = t.FailureToStart
	}

	return &FailureModel{
		States:     states,
		Transition: TransitionMatrix(states, fleet.FailProbs()),
		Starting:   StartingProbabilities(states, avail, fts),
		OutputKW:   GeneratorOutput(states, fleet.SizesKW()),
	}, nil
}

// TransitionMatrix returns the N x N one-step transition matrix. Entry
// (end, start) holds the probability of moving from start to end; units can
// only fail within a step, so every column sums to 1. NaN values arising from
// degenerate powers are normalized to 0.
func TransitionMatrix(states *StateSpace, failProbs []float64) *mat.Dense {
	n := states.Size()
	m := mat.NewDense(n, n, nil)
	from := make([]int, len(states.dims))
	to := make([]int, len(states.dims))
	for start := 0; start < n; start++ {
		states.Working(start, from)
		for end := 0; end < n; end++ {
			states.Working(end, to)
			p := 1.0
			for i := range from {
				p *= binomialPMF(from[i], to[i], 1-failProbs[i])
			}
			if math.IsNaN(p) || math.IsInf(p, 0) {
				p = 0
			}
			m.Set(end, start, p)
		}
	}
	return m
}

// StartingProbabilities returns the distribution over states at an arbitrary
// outage start. A unit is unready when it is down for maintenance or fails to
// start when called.
func StartingProbabilities(states *StateSpace, availability, failureToStart []float64) []float64 {
	n := states.Size()
	probs := make([]float64, n)
	units := make([]int, len(states.dims))
	for st := 0; st < n; st++ {
		states.Working(st, units)
		p := 1.0
		for i := range units {
			unready := (1 - availability[i]) + failureToStart[i]*availability[i]
			p *= binomialPMF(states.counts[i], units[i], 1-unready)
		}
		if math.IsNaN(p) || math.IsInf(p, 0) {
			p = 0
		}
		probs[st] = p
	}
	return probs
}

// GeneratorOutput returns the deliverable power of each state in canonical
// order.
func GeneratorOutput(states *StateSpace, sizesKW []float64) []float64 {
	n := states.Size()
	out := make([]float64, n)
	units := make([]int, len(states.dims))
	for st := 0; st < n; st++ {
		states.Working(st, units)
		var kw float64
		for i, u := range units {
			kw += float64(u) * sizesKW[i]
		}
		out[st] = kw
	}
	return out
}

// binomialPMF is the probability of k successes out of n trials with success
// probability q. k > n yields 0, matching the units-only-fail constraint.
func binomialPMF(n, k int, q float64) float64 {
	if k > n || k < 0 {
		return 0
	}
	c := 1.0
	for j := 0; j < k; j++ {
		c *= float64(n-j) / float64(j+1)
	}
	return c * math.Pow(q, float64(k)) * math.Pow(1-q, float64(n-k))
}
