// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package method

import (
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/descent-ml/descent/internal/linesearch"
)

// Diagonal seeding clamps for the inverse Hessian estimate, relative to the
// scalar scale (δ·γ)/(γ·γ).
const (
	bfgsSeedMin = 1e-5
	bfgsSeedMax = 1e5
)

// BFGS maintains an explicit dense approximation of the inverse Hessian,
// refined by the rank-two inverse-BFGS update after every accepted step.
// The update preserves symmetry and, given strong-Wolfe steps, positive
// definiteness, so the produced directions stay descent directions.
type BFGS struct {
	state
	search linesearch.Config
	invH   *mat.SymDense

	delta, gamma, hy []float64
}

// BFGSConfig holds configuration for BFGS.
type BFGSConfig struct {
	Search linesearch.Config // line-search parameters, zero value for defaults
}

// NewBFGS creates a BFGS method for the given problem dimension. The
// inverse Hessian starts as the identity.
func NewBFGS(dim int, config BFGSConfig) *BFGS {
	m := &BFGS{
		state:  newState(dim),
		search: config.Search,
		invH:   mat.NewSymDense(dim, nil),
		delta:  make([]float64, dim),
		gamma:  make([]float64, dim),
		hy:     make([]float64, dim),
	}
	m.identity()
	return m
}

func (m *BFGS) identity() {
	m.invH.Zero()
	for i := 0; i < m.dim(); i++ {
		m.invH.SetSym(i, i, 1)
	}
}

// Init establishes the starting point. With reset it restores the identity
// estimate and takes one steepest-descent probe step to seed the inverse
// Hessian diagonal from the observed curvature; a poor initial guess would
// otherwise destabilize the first real step.
func (m *BFGS) Init(eval EvalFunc, x0 []float64, reset bool, bound StepBound) error {
	if err := m.seed(eval, x0); err != nil {
		return err
	}
	if !reset {
		return nil
	}
	m.identity()
	if floats.Norm(m.g, 2) == 0 {
		return nil // already stationary, nothing to probe
	}

	m.rotate()
	for i := range m.dir {
		m.dir[i] = -m.gpre[i]
	}
	cfg := m.search
	cfg.AlphaInit = 1 / math.Max(1, floats.Norm(m.gpre, 2))
	alpha, err := m.lineStep(eval, bound, cfg)
	if err != nil {
		return err
	}
	if alpha <= 0 {
		m.retreat()
		return nil
	}

	floats.SubTo(m.delta, m.x, m.xpre)
	floats.SubTo(m.gamma, m.g, m.gpre)
	sy := floats.Dot(m.delta, m.gamma)
	yy := floats.Dot(m.gamma, m.gamma)
	if sy <= 0 || yy == 0 {
		return nil
	}
	scale := sy / yy
	m.invH.Zero()
	for i := 0; i < m.dim(); i++ {
		r := scale
		if m.gamma[i] != 0 {
			r = m.delta[i] / m.gamma[i]
			r = math.Min(math.Max(r, bfgsSeedMin*scale), bfgsSeedMax*scale)
		}
		m.invH.SetSym(i, i, r)
	}
	return nil
}

// Step line-searches along −invH·g and applies the inverse-BFGS rank-two
// update with the accepted position and gradient changes.
func (m *BFGS) Step(eval EvalFunc, bound StepBound) (float64, error) {
	m.rotate()

	dv := mat.NewVecDense(m.dim(), m.dir)
	dv.MulVec(m.invH, mat.NewVecDense(m.dim(), m.gpre))
	floats.Scale(-1, m.dir)

	if floats.Dot(m.dir, m.gpre) >= 0 {
		// Stationary point (or a degenerate estimate): no descent possible.
		m.retreat()
		return 0, nil
	}

	alpha, err := m.lineStep(eval, bound, m.search)
	if err != nil {
		return 0, err
	}
	if alpha <= 0 {
		m.retreat()
		return 0, nil
	}

	floats.SubTo(m.delta, m.x, m.xpre)
	floats.SubTo(m.gamma, m.g, m.gpre)
	sy := floats.Dot(m.delta, m.gamma)
	if sy <= 0 {
		// Curvature condition failed; applying the update would lose
		// positive-definiteness, so skip it for this step.
		return alpha, nil
	}

	hyv := mat.NewVecDense(m.dim(), m.hy)
	hyv.MulVec(m.invH, mat.NewVecDense(m.dim(), m.gamma))
	yhy := floats.Dot(m.gamma, m.hy)

	deltv := mat.NewVecDense(m.dim(), m.delta)
	m.invH.RankTwo(m.invH, -1/sy, deltv, hyv)
	m.invH.SymRankOne(m.invH, (sy+yhy)/(sy*sy), deltv)
	return alpha, nil
}

// SetLineSearchTrace routes the line-search trace to w.
func (m *BFGS) SetLineSearchTrace(w io.Writer) { m.search.Trace = w }

// Reset restores the identity inverse Hessian; a non-nil x0 reseeds the
// point.
func (m *BFGS) Reset(x0 []float64) error {
	m.identity()
	return m.reseed(x0)
}
