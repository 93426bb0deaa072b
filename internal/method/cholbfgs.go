// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package method

import (
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/descent-ml/descent/internal/linalg"
	"github.com/descent-ml/descent/internal/linesearch"
)

// CholBFGS maintains the Hessian approximation (not its inverse) as an
// upper-triangular Cholesky factor H = UᵀU, so positive-definiteness is
// structural rather than incidental. Directions come from two triangular
// solves; the curvature update applies a rank-one update with γ/√(δ·γ) and
// a rank-one downdate with Hδ/√(δ·Hδ) directly to the factor, which is
// numerically more stable than re-factoring a dense rank-two change.
type CholBFGS struct {
	state
	search linesearch.Config
	factor *linalg.UpperTriangular
	backup *linalg.UpperTriangular // pre-update copy for downdate repair

	delta, gamma, hd []float64
}

// CholBFGSConfig holds configuration for CholBFGS.
type CholBFGSConfig struct {
	Search linesearch.Config // line-search parameters, zero value for defaults
}

// NewCholBFGS creates a Cholesky-factor BFGS method for the given problem
// dimension. The Hessian estimate starts as the identity.
func NewCholBFGS(dim int, config CholBFGSConfig) *CholBFGS {
	return &CholBFGS{
		state:  newState(dim),
		search: config.Search,
		factor: linalg.NewUpperTriangular(dim),
		backup: linalg.NewUpperTriangular(dim),
		delta:  make([]float64, dim),
		gamma:  make([]float64, dim),
		hd:     make([]float64, dim),
	}
}

// Init establishes the starting point. With reset it restores the identity
// factor and takes one steepest-descent probe step so the factor starts at
// the observed curvature scale (γ·γ)/(δ·γ) instead of 1.
func (m *CholBFGS) Init(eval EvalFunc, x0 []float64, reset bool, bound StepBound) error {
	if err := m.seed(eval, x0); err != nil {
		return err
	}
	if !reset {
		return nil
	}
	m.factor.ScaledIdentity(1)
	if floats.Norm(m.g, 2) == 0 {
		return nil
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
	if sy > 0 && yy > 0 {
		// H ≈ (γ·γ)/(δ·γ)·I, the reciprocal of the inverse-BFGS seed.
		m.factor.ScaledIdentity(yy / sy)
	}
	return nil
}

// Step solves H·d = −g for the direction, line-searches along it and
// applies the factored rank-two curvature update. A step the search could
// not make positive skips the update and zeroes the recorded position
// change so convergence checks observe no progress.
func (m *CholBFGS) Step(eval EvalFunc, bound StepBound) (float64, error) {
	m.rotate()

	if err := m.factor.SolveVec(m.dir, m.gpre); err != nil {
		return 0, errors.Wrap(err, "cholbfgs direction")
	}
	floats.Scale(-1, m.dir)

	if floats.Dot(m.dir, m.gpre) >= 0 {
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
		return alpha, nil
	}

	// Hδ and δ·Hδ must use the factor from before the update.
	if err := m.factor.MulHVec(m.hd, m.delta); err != nil {
		return 0, errors.Wrap(err, "cholbfgs curvature")
	}
	shd := floats.Dot(m.delta, m.hd)
	if shd <= 0 {
		return alpha, nil
	}

	m.backup.CopyFrom(m.factor) //nolint:errcheck // dimensions match by construction

	rsy := 1 / math.Sqrt(sy)
	floats.Scale(rsy, m.gamma) // γ/√(δ·γ)
	m.factor.RankOneUpdate(m.gamma)

	rshd := 1 / math.Sqrt(shd)
	floats.Scale(rshd, m.hd) // Hδ/√(δ·Hδ)
	if err := m.factor.RankOneDowndate(m.hd); err != nil {
		m.repair(err)
	}
	return alpha, nil
}

// repair rebuilds the factor from the dense target of the failed rank-two
// change through the modified Cholesky, which perturbs the diagonal just
// enough to restore positive-definiteness. The backup holds the pre-update
// factor; gamma and hd still carry the scaled update/downdate vectors.
func (m *CholBFGS) repair(cause error) {
	logrus.WithError(cause).Debug("cholbfgs: downdate failed, repairing factor")
	h := m.backup.Sym()
	n := m.dim()
	h.SymRankOne(h, 1, mat.NewVecDense(n, m.gamma))
	h.SymRankOne(h, -1, mat.NewVecDense(n, m.hd))
	_ = linalg.FactorInto(m.factor, h)
}

// SetLineSearchTrace routes the line-search trace to w.
func (m *CholBFGS) SetLineSearchTrace(w io.Writer) { m.search.Trace = w }

// Reset restores the identity factor; a non-nil x0 reseeds the point.
func (m *CholBFGS) Reset(x0 []float64) error {
	m.factor.ScaledIdentity(1)
	return m.reseed(x0)
}
