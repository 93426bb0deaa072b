// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package method

import (
	"io"

	"github.com/descent-ml/descent/internal/linesearch"
)

// SteepestDescent minimizes along the negative gradient with a strong-Wolfe
// line search at every step. Slow on ill-conditioned problems but entirely
// free of curvature state, which also makes it the probe step the
// quasi-Newton methods use to seed their estimates.
type SteepestDescent struct {
	state
	search    linesearch.Config
	lastAlpha float64
}

// SteepestConfig holds configuration for SteepestDescent.
type SteepestConfig struct {
	Search linesearch.Config // line-search parameters, zero value for defaults
}

// steepestCurvature loosens the Wolfe curvature condition relative to the
// shared line-search default. A near-exact search makes steepest descent
// zigzag across a curved valley; accepting longer steps keeps it tracking
// the valley floor instead.
const steepestCurvature = 0.6

// NewSteepestDescent creates a steepest-descent method for the given
// problem dimension.
func NewSteepestDescent(dim int, config SteepestConfig) *SteepestDescent {
	if config.Search.Curvature == 0 {
		config.Search.Curvature = steepestCurvature
	}
	return &SteepestDescent{
		state:  newState(dim),
		search: config.Search,
	}
}

// Init establishes the starting point. Steepest descent carries no
// curvature state, so reset only clears the remembered step length.
func (m *SteepestDescent) Init(eval EvalFunc, x0 []float64, reset bool, bound StepBound) error {
	if reset {
		m.lastAlpha = 0
	}
	return m.seed(eval, x0)
}

// Step takes one line-search step along −g. The previous accepted step
// seeds the next search's initial trial.
func (m *SteepestDescent) Step(eval EvalFunc, bound StepBound) (float64, error) {
	m.rotate()
	for i := range m.dir {
		m.dir[i] = -m.gpre[i]
	}
	cfg := m.search
	if m.lastAlpha > 0 {
		cfg.AlphaInit = m.lastAlpha
	}
	alpha, err := m.lineStep(eval, bound, cfg)
	if err != nil {
		return 0, err
	}
	if alpha <= 0 {
		m.retreat()
		return 0, nil
	}
	m.lastAlpha = alpha
	return alpha, nil
}

// SetLineSearchTrace routes the line-search trace to w.
func (m *SteepestDescent) SetLineSearchTrace(w io.Writer) { m.search.Trace = w }

// Reset restores the default state; a non-nil x0 reseeds the point.
func (m *SteepestDescent) Reset(x0 []float64) error {
	m.lastAlpha = 0
	return m.reseed(x0)
}

// reseed copies x0 into both point slots when given, validating dimension.
func (s *state) reseed(x0 []float64) error {
	if x0 == nil {
		return nil
	}
	if len(x0) != s.dim() {
		return ErrDimension
	}
	copy(s.x, x0)
	copy(s.xpre, x0)
	return nil
}
