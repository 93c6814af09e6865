// Package survival runs the joint probability simulation over generator
// availability and storage state of charge that yields, for every outage
// start time and duration, the chance the backup system meets critical load.
package survival

import (
	"fmt"
	"math"

	"github.com/kilianp07/resilience/core/markov"
	"github.com/kilianp07/resilience/core/model"
	"github.com/kilianp07/resilience/core/storage"
)

// Config describes one survival simulation over a full year of outage start
// times.
type Config struct {
	// NetLoadKW is the critical load net of any renewable production, one
	// value per time step.
	NetLoadKW []float64

	Model *markov.FailureModel

	Battery  StorageParams
	Hydrogen StorageParams

	// MaxDuration is the number of outage steps simulated per start time.
	MaxDuration int

	// Cumulative filters failed states out of the probability mass at each
	// step, yielding the probability of surviving continuously through d.
	// When false the per-step marginal survival chance is recorded instead.
	Cumulative bool

	StepsPerHour float64
}

// Simulator evaluates survival probabilities. The transition matrix and the
// max-generation table are shared read-only across start times; per-run
// mutable state lives in private buffers.
type Simulator struct {
	cfg Config

	n, nb, nh int
	trans     []float64 // row-major, trans[end*n+start]
	table     []float64
	outKW     []float64
	starting  []float64

	genOnly bool
}

// New validates the configuration and precomputes the shared tables.
func New(cfg Config) (*Simulator, error) {
	if len(cfg.NetLoadKW) == 0 {
		return nil, fmt.Errorf("%w: empty net load series", model.ErrConfig)
	}
	if cfg.MaxDuration < 1 {
		return nil, fmt.Errorf("%w: max duration must be at least one step", model.ErrConfig)
	}
	if cfg.Battery.modeled() && len(cfg.Battery.StartBins) != len(cfg.NetLoadKW) {
		return nil, fmt.Errorf("%w: battery start bins do not cover every start time", model.ErrConfig)
	}
	if cfg.Hydrogen.modeled() && len(cfg.Hydrogen.StartBins) != len(cfg.NetLoadKW) {
		return nil, fmt.Errorf("%w: hydrogen start bins do not cover every start time", model.ErrConfig)
	}
	if cfg.StepsPerHour <= 0 {
		cfg.StepsPerHour = 1
	}
	n := cfg.Model.States.Size()
	s := &Simulator{
		cfg:      cfg,
		n:        n,
		nb:       cfg.Battery.Bins,
		nh:       cfg.Hydrogen.Bins,
		outKW:    cfg.Model.OutputKW,
		starting: cfg.Model.Starting,
		genOnly:  cfg.Battery.Bins <= 1 && cfg.Hydrogen.Bins <= 1,
	}
	if s.nb < 1 {
		s.nb = 1
	}
	if s.nh < 1 {
		s.nh = 1
	}

	// Flatten the transition matrix once; the hot loop walks raw values.
	s.trans = make([]float64, n*n)
	for end := 0; end < n; end++ {
		for start := 0; start < n; start++ {
			v := cfg.Model.Transition.At(end, start)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			s.trans[end*n+start] = v
		}
	}
	s.table = buildTable(s.outKW, StorageParams{Bins: s.nb, BinKWh: cfg.Battery.BinKWh, DischargeKW: cfg.Battery.DischargeKW, DischargeEff: cfg.Battery.DischargeEff},
		StorageParams{Bins: s.nh, BinKWh: cfg.Hydrogen.BinKWh, DischargeKW: cfg.Hydrogen.DischargeKW, DischargeEff: cfg.Hydrogen.DischargeEff})
	return s, nil
}

// Periods returns the number of outage start times simulated.
func (s *Simulator) Periods() int { return len(s.cfg.NetLoadKW) }

// buffers holds the per-run mutable state: a ping-pong pair of joint
// probability tensors reused across duration steps, and a scratch lane for
// bin shifts. One instance is owned by exactly one worker.
type buffers struct {
	pair    [2][]float64
	scratch []float64
}

func (s *Simulator) newBuffers() *buffers {
	size := s.n * s.nb * s.nh
	lane := s.nb
	if s.nh > lane {
		lane = s.nh
	}
	return &buffers{
		pair:    [2][]float64{make([]float64, size), make([]float64, size)},
		scratch: make([]float64, lane),
	}
}

// Run simulates a single outage start (0-based) and writes survival
// probabilities for durations 1..MaxDuration into row.
func (s *Simulator) Run(start int, buf *buffers, row []float64) {
	if s.genOnly {
		s.runGenOnly(start, buf, row)
		return
	}

	cur := buf.pair[0]
	next := buf.pair[1]
	clear(cur)

	b0, h0 := 0, 0
	if s.cfg.Battery.modeled() {
		b0 = s.cfg.Battery.StartBins[start] - 1
	}
	if s.cfg.Hydrogen.modeled() {
		h0 = s.cfg.Hydrogen.StartBins[start] - 1
	}
	for g := 0; g < s.n; g++ {
		cur[(g*s.nb+b0)*s.nh+h0] = s.starting[g]
	}

	T := len(s.cfg.NetLoadKW)
	for d := 1; d <= s.cfg.MaxDuration; d++ {
		hour := (start + d - 1) % T
		load := s.cfg.NetLoadKW[hour]

		s.propagate(cur, next)

		if s.cfg.Cumulative {
			var alive float64
			for i, v := range next {
				if s.table[i] >= load {
					alive += v
				} else {
					next[i] = 0
				}
			}
			row[d-1] = alive
		} else {
			var alive float64
			for i, v := range next {
				if s.table[i] >= load {
					alive += v
				}
			}
			row[d-1] = alive
		}

		s.shiftStorage(next, buf.scratch, load)

		cur, next = next, cur
	}
}

// propagate applies one Markov degradation step along the generator axis for
// every fixed storage-bin pair, writing into dst.
func (s *Simulator) propagate(src, dst []float64) {
	clear(dst)
	stride := s.nb * s.nh
	for end := 0; end < s.n; end++ {
		dstBase := end * stride
		for start := 0; start < s.n; start++ {
			p := s.trans[end*s.n+start]
			if p == 0 {
				continue
			}
			srcBase := start * stride
			for k := 0; k < stride; k++ {
				dst[dstBase+k] += p * src[srcBase+k]
			}
		}
	}
}

// shiftStorage moves probability mass along the battery axis, then lets the
// hydrogen dimension absorb whatever power the battery could not. Mass pushed
// past the empty or full boundary accumulates at that boundary bin; nothing
// wraps around and nothing is discarded.
func (s *Simulator) shiftStorage(tensor, scratch []float64, loadKW float64) {
	batt := s.cfg.Battery
	h2 := s.cfg.Hydrogen
	for g := 0; g < s.n; g++ {
		power := s.outKW[g] - loadKW

		applied := clamp(power, -batt.DischargeKW, batt.ChargeKW)
		if batt.modeled() {
			shift := storage.ShiftSteps(s.flowKWh(applied, batt), batt.BinKWh)
			if shift != 0 {
				s.shiftBattery(tensor, scratch, g, shift)
			}
		} else {
			applied = 0
		}

		if h2.modeled() {
			residual := clamp(power-applied, -h2.DischargeKW, h2.ChargeKW)
			shift := storage.ShiftSteps(s.flowKWh(residual, h2), h2.BinKWh)
			if shift != 0 {
				s.shiftHydrogen(tensor, scratch, g, shift)
			}
		}
	}
}

// flowKWh converts an applied power to the energy change seen by the storage
// over one step: charging is reduced by the charge efficiency, discharging
// draws more than it delivers.
func (s *Simulator) flowKWh(appliedKW float64, p StorageParams) float64 {
	hours := 1 / s.cfg.StepsPerHour
	if appliedKW >= 0 {
		return appliedKW * p.ChargeEff * hours
	}
	if p.DischargeEff <= 0 {
		return 0
	}
	return appliedKW / p.DischargeEff * hours
}

func (s *Simulator) shiftBattery(tensor, scratch []float64, g, shift int) {
	for h := 0; h < s.nh; h++ {
		lane := scratch[:s.nb]
		clear(lane)
		base := g * s.nb * s.nh
		for b := 0; b < s.nb; b++ {
			v := tensor[base+b*s.nh+h]
			if v == 0 {
				continue
			}
			nb := clampInt(b+shift, 0, s.nb-1)
			lane[nb] += v
		}
		for b := 0; b < s.nb; b++ {
			tensor[base+b*s.nh+h] = lane[b]
		}
	}
}

func (s *Simulator) shiftHydrogen(tensor, scratch []float64, g, shift int) {
	for b := 0; b < s.nb; b++ {
		lane := scratch[:s.nh]
		clear(lane)
		base := (g*s.nb + b) * s.nh
		for h := 0; h < s.nh; h++ {
			v := tensor[base+h]
			if v == 0 {
				continue
			}
			nh := clampInt(h+shift, 0, s.nh-1)
			lane[nh] += v
		}
		copy(tensor[base:base+s.nh], lane)
	}
}

// runGenOnly is the storage-free fast path: the state space collapses to the
// generator dimension and no bin shifts occur. It produces results identical
// to the general path with single-bin storage.
func (s *Simulator) runGenOnly(start int, buf *buffers, row []float64) {
	cur := buf.pair[0][:s.n]
	next := buf.pair[1][:s.n]
	copy(cur, s.starting)

	T := len(s.cfg.NetLoadKW)
	for d := 1; d <= s.cfg.MaxDuration; d++ {
		hour := (start + d - 1) % T
		load := s.cfg.NetLoadKW[hour]

		clear(next)
		for end := 0; end < s.n; end++ {
			var acc float64
			for st := 0; st < s.n; st++ {
				acc += s.trans[end*s.n+st] * cur[st]
			}
			next[end] = acc
		}

		var alive float64
		for g := 0; g < s.n; g++ {
			if s.outKW[g] >= load {
				alive += next[g]
			} else if s.cfg.Cumulative {
				next[g] = 0
			}
		}
		row[d-1] = alive

		cur, next = next, cur
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
