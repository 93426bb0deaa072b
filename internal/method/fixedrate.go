// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package method

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// FixedRate is plain gradient descent with a fixed (optionally decaying)
// learning rate and no line search.
type FixedRate struct {
	state
	config FixedRateConfig
	lr     float64
}

// FixedRateConfig holds configuration for FixedRate.
type FixedRateConfig struct {
	LR    float64 // learning rate (default: 1e-3)
	Decay float64 // multiplicative rate decay per step (default: 0)
}

// NewFixedRate creates a fixed-rate gradient descent method.
func NewFixedRate(dim int, config FixedRateConfig) *FixedRate {
	if config.LR == 0 {
		config.LR = 1e-3
	}
	return &FixedRate{
		state:  newState(dim),
		config: config,
		lr:     config.LR,
	}
}

// Init establishes the starting point; reset restores the learning rate.
func (m *FixedRate) Init(eval EvalFunc, x0 []float64, reset bool, bound StepBound) error {
	if reset {
		m.lr = m.config.LR
	}
	return m.seed(eval, x0)
}

// Step moves x ← x − lr·g and decays the rate.
func (m *FixedRate) Step(eval EvalFunc, bound StepBound) (float64, error) {
	m.rotate()
	for i := range m.dir {
		m.dir[i] = -m.gpre[i]
	}
	alpha := m.boundedRate(m.lr, bound)
	if alpha > 0 {
		if _, _, err := eval(m.xpre, alpha, m.dir); err != nil {
			return 0, errors.Wrap(err, "fixed-rate step")
		}
	} else {
		m.retreat()
	}
	m.lr *= 1 - m.config.Decay
	return alpha, nil
}

// Reset restores the initial learning rate; a non-nil x0 reseeds the point.
func (m *FixedRate) Reset(x0 []float64) error {
	m.lr = m.config.LR
	return m.reseed(x0)
}

// Momentum is gradient descent with a heavy-ball velocity buffer:
// v ← ρ·v − lr·g, x ← x + v. Steps that increase the value are rejected:
// the point holds, the velocity is zeroed and the working rate is halved.
// Each accepted step doubles the rate back toward the configured one.
type Momentum struct {
	state
	config MomentumConfig
	vel    []float64
	rate   float64
}

// MomentumConfig holds configuration for Momentum.
type MomentumConfig struct {
	LR    float64 // learning rate (default: 1e-3)
	Ratio float64 // momentum coefficient ρ (default: 0.9)
}

// NewMomentum creates a momentum descent method.
func NewMomentum(dim int, config MomentumConfig) *Momentum {
	if config.LR == 0 {
		config.LR = 1e-3
	}
	if config.Ratio == 0 {
		config.Ratio = 0.9
	}
	return &Momentum{
		state:  newState(dim),
		config: config,
		vel:    make([]float64, dim),
		rate:   config.LR,
	}
}

// Init establishes the starting point; reset zeroes the velocity and
// restores the working rate.
func (m *Momentum) Init(eval EvalFunc, x0 []float64, reset bool, bound StepBound) error {
	if reset {
		for i := range m.vel {
			m.vel[i] = 0
		}
		m.rate = m.config.LR
	}
	return m.seed(eval, x0)
}

// Step updates the velocity and takes a unit step along it. A step that does
// not decrease the value (including one landing on NaN) is undone instead.
func (m *Momentum) Step(eval EvalFunc, bound StepBound) (float64, error) {
	m.rotate()
	for i := range m.vel {
		m.vel[i] = m.config.Ratio*m.vel[i] - m.rate*m.gpre[i]
	}
	copy(m.dir, m.vel)
	alpha := m.boundedRate(1, bound)
	if alpha <= 0 {
		m.retreat()
		return 0, nil
	}
	if _, _, err := eval(m.xpre, alpha, m.dir); err != nil {
		return 0, errors.Wrap(err, "momentum step")
	}
	if m.y > m.ypre || math.IsNaN(m.y) {
		m.retreat()
		for i := range m.vel {
			m.vel[i] = 0
		}
		m.rate *= 0.5
		return 0, nil
	}
	m.rate = math.Min(2*m.rate, m.config.LR)
	return alpha, nil
}

// Reset zeroes the velocity and restores the working rate; a non-nil x0
// reseeds the point.
func (m *Momentum) Reset(x0 []float64) error {
	for i := range m.vel {
		m.vel[i] = 0
	}
	m.rate = m.config.LR
	return m.reseed(x0)
}

// hyperRateCeil floors the upper clamp on the adapted rate so a tiny
// configured rate can still grow enough to make progress.
const hyperRateCeil = 0.1

// HyperGradient is momentum descent whose scalar learning rate is itself
// adapted by gradient descent on the step objective (Baydin et al., SGDN-HD):
// before each step the rate moves by μ times the cosine of the angle between
// the two most recent gradients, clamped to [0, max(LR, 0.1)]. Uphill steps
// are rejected the same way Momentum rejects them.
type HyperGradient struct {
	state
	config HyperGradientConfig
	vel    []float64
	rate   float64
	primed bool
}

// HyperGradientConfig holds configuration for HyperGradient.
type HyperGradientConfig struct {
	LR      float64 // initial learning rate (default: 1e-3)
	HyperLR float64 // learning rate of the rate itself, μ (default: 1e-4)
	Ratio   float64 // momentum coefficient ρ (default: 0.9)
}

// NewHyperGradient creates a hypergradient descent method.
func NewHyperGradient(dim int, config HyperGradientConfig) *HyperGradient {
	if config.LR == 0 {
		config.LR = 1e-3
	}
	if config.HyperLR == 0 {
		config.HyperLR = 1e-4
	}
	if config.Ratio == 0 {
		config.Ratio = 0.9
	}
	return &HyperGradient{
		state:  newState(dim),
		config: config,
		vel:    make([]float64, dim),
		rate:   config.LR,
	}
}

// Init establishes the starting point; reset zeroes the velocity and
// restores the initial rate.
func (m *HyperGradient) Init(eval EvalFunc, x0 []float64, reset bool, bound StepBound) error {
	if reset {
		for i := range m.vel {
			m.vel[i] = 0
		}
		m.rate = m.config.LR
	}
	m.primed = false
	return m.seed(eval, x0)
}

// Step adapts the rate from the alignment of successive gradients, then
// takes a momentum step at that rate. The first step after Init uses the
// configured rate unchanged since only one gradient exists yet, and a step
// that does not decrease the value is undone like in Momentum.
func (m *HyperGradient) Step(eval EvalFunc, bound StepBound) (float64, error) {
	m.rotate()
	if m.primed {
		norm := floats.Norm(m.gpre, 2) * floats.Norm(m.g, 2)
		if norm > 0 {
			m.rate += m.config.HyperLR * floats.Dot(m.gpre, m.g) / norm
		}
		if m.rate < 0 {
			m.rate = 0
		}
		if ceil := math.Max(m.config.LR, hyperRateCeil); m.rate > ceil {
			m.rate = ceil
		}
	}
	m.primed = true
	for i := range m.vel {
		m.vel[i] = m.config.Ratio*m.vel[i] - m.rate*m.gpre[i]
	}
	copy(m.dir, m.vel)
	alpha := m.boundedRate(1, bound)
	if alpha <= 0 {
		m.retreat()
		return 0, nil
	}
	if _, _, err := eval(m.xpre, alpha, m.dir); err != nil {
		return 0, errors.Wrap(err, "hypergradient step")
	}
	if m.y > m.ypre || math.IsNaN(m.y) {
		m.retreat()
		for i := range m.vel {
			m.vel[i] = 0
		}
		m.rate *= 0.5
		return 0, nil
	}
	return alpha, nil
}

// Reset zeroes the velocity and restores the initial rate; a non-nil x0
// reseeds the point.
func (m *HyperGradient) Reset(x0 []float64) error {
	for i := range m.vel {
		m.vel[i] = 0
	}
	m.rate = m.config.LR
	m.primed = false
	return m.reseed(x0)
}
