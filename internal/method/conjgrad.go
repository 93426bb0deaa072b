// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package method

import (
	"io"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/descent-ml/descent/internal/linesearch"
)

// hzEta is the Hager-Zhang lower-bound parameter for the direction-update
// coefficient. The clamp β ≥ −1/(‖d‖·min(η, ‖g‖)) prevents the conjugate
// direction from collapsing onto a non-descent direction.
const hzEta = 0.01

// ConjugateGradient is nonlinear conjugate gradient with the Hager-Zhang
// direction update. Needs no matrix state, which makes it the method of
// choice for large dimensions where a dense inverse Hessian is too big.
type ConjugateGradient struct {
	state
	search    linesearch.Config
	gdiff     []float64 // gradient change buffer for the β computation
	fresh     bool      // next step restarts along −g
	lastAlpha float64
}

// ConjugateGradientConfig holds configuration for ConjugateGradient.
type ConjugateGradientConfig struct {
	Search linesearch.Config // line-search parameters, zero value for defaults
}

// NewConjugateGradient creates a conjugate-gradient method for the given
// problem dimension.
func NewConjugateGradient(dim int, config ConjugateGradientConfig) *ConjugateGradient {
	return &ConjugateGradient{
		state:  newState(dim),
		search: config.Search,
		gdiff:  make([]float64, dim),
		fresh:  true,
	}
}

// Init establishes the starting point and restarts the direction history.
func (m *ConjugateGradient) Init(eval EvalFunc, x0 []float64, reset bool, bound StepBound) error {
	m.fresh = true
	if reset {
		m.lastAlpha = 0
	}
	return m.seed(eval, x0)
}

// Step updates the conjugate direction and line-searches along it.
//
// The initial trial step is adapted from the previous function decrease:
// when the last step lowered f, the quadratic estimate 2·Δf/(d·g) seeds the
// search so well-scaled problems accept the first trial.
func (m *ConjugateGradient) Step(eval EvalFunc, bound StepBound) (float64, error) {
	m.rotate()
	cfg := m.search
	if m.lastAlpha > 0 {
		cfg.AlphaInit = m.lastAlpha
	}

	if m.fresh {
		for i := range m.dir {
			m.dir[i] = -m.gpre[i]
		}
		m.fresh = false
	} else {
		// Hager-Zhang: β = (y·g)/(d·y) − 2·(d·g)·(y·y)/(d·y)², with
		// y the gradient change and g the newest gradient.
		for i := range m.gdiff {
			m.gdiff[i] = m.gpre[i] - m.g[i]
		}
		dy := floats.Dot(m.dir, m.gdiff)
		beta := 0.0
		if dy != 0 {
			beta = floats.Dot(m.gdiff, m.gpre)/dy -
				2*floats.Dot(m.dir, m.gpre)*floats.Dot(m.gdiff, m.gdiff)/(dy*dy)
		}
		dnorm := floats.Norm(m.dir, 2)
		gnorm := floats.Norm(m.gpre, 2)
		if dnorm > 0 && gnorm > 0 {
			if lower := -1 / (dnorm * math.Min(hzEta, gnorm)); beta < lower {
				beta = lower
			}
		}
		for i := range m.dir {
			m.dir[i] = beta*m.dir[i] - m.gpre[i]
		}

		if slope := floats.Dot(m.dir, m.gpre); slope < 0 {
			if seed := 2 * (m.ypre - m.y) / slope; seed > 0 && !math.IsInf(seed, 0) && !math.IsNaN(seed) {
				cfg.AlphaInit = seed
			}
		}
	}

	alpha, err := m.lineStep(eval, bound, cfg)
	if err != nil {
		return 0, err
	}
	if alpha <= 0 {
		m.retreat()
		m.fresh = true // restart along −g after a stalled search
		return 0, nil
	}
	m.lastAlpha = alpha
	return alpha, nil
}

// SetLineSearchTrace routes the line-search trace to w.
func (m *ConjugateGradient) SetLineSearchTrace(w io.Writer) { m.search.Trace = w }

// Reset restarts the direction history; a non-nil x0 reseeds the point.
func (m *ConjugateGradient) Reset(x0 []float64) error {
	m.fresh = true
	m.lastAlpha = 0
	return m.reseed(x0)
}
