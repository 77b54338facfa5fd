package exchange

import "math/rand"

// FillModel answers the stochastic questions of the matching engine: whether
// a fill slips one tick, and whether orders resting exactly at the touch
// trade. Tests substitute deterministic implementations.
type FillModel interface {
	IsSlipped() bool
	IsStopFilled() bool
	IsLimitFilled() bool
}

// StaticFillModel returns fixed answers; the zero value never slips and
// always fills at the touch boundary.
type StaticFillModel struct {
	Slipped     bool
	StopMisses  bool
	LimitMisses bool
}

// IsSlipped implements FillModel.
func (m StaticFillModel) IsSlipped() bool { return m.Slipped }

// IsStopFilled implements FillModel.
func (m StaticFillModel) IsStopFilled() bool { return !m.StopMisses }

// IsLimitFilled implements FillModel.
func (m StaticFillModel) IsLimitFilled() bool { return !m.LimitMisses }

// ProbabilisticFillModel draws fill decisions from a seeded source so runs
// stay reproducible for a given seed.
type ProbabilisticFillModel struct {
	probFillAtLimit float64
	probFillAtStop  float64
	probSlippage    float64
	rng             *rand.Rand
}

// NewProbabilisticFillModel constructs a fill model with the given
// probabilities, each clamped into [0, 1].
func NewProbabilisticFillModel(probFillAtLimit, probFillAtStop, probSlippage float64, seed int64) *ProbabilisticFillModel {
	return &ProbabilisticFillModel{
		probFillAtLimit: clampProbability(probFillAtLimit),
		probFillAtStop:  clampProbability(probFillAtStop),
		probSlippage:    clampProbability(probSlippage),
		rng:             rand.New(rand.NewSource(seed)),
	}
}

// IsSlipped implements FillModel.
func (m *ProbabilisticFillModel) IsSlipped() bool { return m.draw(m.probSlippage) }

// IsStopFilled implements FillModel.
func (m *ProbabilisticFillModel) IsStopFilled() bool { return m.draw(m.probFillAtStop) }

// IsLimitFilled implements FillModel.
func (m *ProbabilisticFillModel) IsLimitFilled() bool { return m.draw(m.probFillAtLimit) }

func (m *ProbabilisticFillModel) draw(probability float64) bool {
	if probability <= 0 {
		return false
	}
	if probability >= 1 {
		return true
	}
	return m.rng.Float64() < probability
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
