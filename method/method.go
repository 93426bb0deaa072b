// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package method exposes the descent methods: line-search algorithms
// (steepest descent, conjugate gradient, BFGS, Cholesky-factor BFGS) and
// fixed-rate rules (plain, momentum, hypergradient).
package method

import (
	"github.com/descent-ml/descent/internal/linesearch"
	"github.com/descent-ml/descent/internal/method"
)

// Core is the capability set every descent method implements. A Core
// produces one step per call; driving it to convergence is the
// optimize package's job.
type Core = method.Core

// EvalFunc evaluates the objective at x + α·dir.
type EvalFunc = method.EvalFunc

// StepBound limits the step length the line search may take from origin
// along dir.
type StepBound = method.StepBound

// SearchConfig holds strong-Wolfe line-search parameters shared by the
// line-search methods. The zero value selects the defaults.
type SearchConfig = linesearch.Config

// ErrDimension reports a point whose length does not match the method's
// problem dimension.
var ErrDimension = method.ErrDimension

// Line-search methods

// SteepestDescent steps along the negative gradient with a strong-Wolfe
// line search.
type SteepestDescent = method.SteepestDescent

// SteepestConfig contains configuration for steepest descent.
type SteepestConfig = method.SteepestConfig

// NewSteepestDescent creates a steepest-descent method.
//
// Example:
//
//	m := method.NewSteepestDescent(2, method.SteepestConfig{})
//	res, err := optimize.Optimize(objective.Rosenbrock(2), m, []float64{-1.2, 1})
func NewSteepestDescent(dim int, config SteepestConfig) *SteepestDescent {
	return method.NewSteepestDescent(dim, config)
}

// ConjugateGradient is the Hager-Zhang nonlinear conjugate-gradient
// method.
type ConjugateGradient = method.ConjugateGradient

// ConjugateGradientConfig contains configuration for conjugate gradient.
type ConjugateGradientConfig = method.ConjugateGradientConfig

// NewConjugateGradient creates a conjugate-gradient method.
func NewConjugateGradient(dim int, config ConjugateGradientConfig) *ConjugateGradient {
	return method.NewConjugateGradient(dim, config)
}

// BFGS maintains a dense inverse-Hessian estimate updated by the BFGS
// rank-two formula.
type BFGS = method.BFGS

// BFGSConfig contains configuration for BFGS.
type BFGSConfig = method.BFGSConfig

// NewBFGS creates a BFGS method.
func NewBFGS(dim int, config BFGSConfig) *BFGS {
	return method.NewBFGS(dim, config)
}

// CholBFGS maintains the Hessian estimate as a Cholesky factor, with
// positive definiteness repaired by a modified factorization when a
// curvature update breaks it.
type CholBFGS = method.CholBFGS

// CholBFGSConfig contains configuration for Cholesky-factor BFGS.
type CholBFGSConfig = method.CholBFGSConfig

// NewCholBFGS creates a Cholesky-factor BFGS method.
func NewCholBFGS(dim int, config CholBFGSConfig) *CholBFGS {
	return method.NewCholBFGS(dim, config)
}

// Fixed-rate rules

// FixedRate steps a fixed (optionally decaying) multiple of the negative
// gradient.
type FixedRate = method.FixedRate

// FixedRateConfig contains configuration for fixed-rate descent.
type FixedRateConfig = method.FixedRateConfig

// NewFixedRate creates a fixed-rate gradient descent method.
func NewFixedRate(dim int, config FixedRateConfig) *FixedRate {
	return method.NewFixedRate(dim, config)
}

// Momentum accumulates a velocity and steps along it.
type Momentum = method.Momentum

// MomentumConfig contains configuration for momentum descent.
type MomentumConfig = method.MomentumConfig

// NewMomentum creates a momentum descent method.
func NewMomentum(dim int, config MomentumConfig) *Momentum {
	return method.NewMomentum(dim, config)
}

// HyperGradient is momentum descent that adapts its learning rate online
// from the alignment of successive gradients.
type HyperGradient = method.HyperGradient

// HyperGradientConfig contains configuration for hypergradient descent.
type HyperGradientConfig = method.HyperGradientConfig

// NewHyperGradient creates a hypergradient descent method.
func NewHyperGradient(dim int, config HyperGradientConfig) *HyperGradient {
	return method.NewHyperGradient(dim, config)
}
