// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package method implements the core descent methods and the iteration
// protocol they share.
//
// A Core owns all of its numeric buffers exclusively. The current and
// previous point (and gradient) rotate by slice-header swap at the start of
// every step, so no step allocates. Objective evaluations made inside
// Step/Init go through the EvalFunc the caller supplies; the optimization
// driver builds that closure so it routes through the wrapper chain, which
// is how wrappers count and observe evaluations without the method knowing
// about them.
//
// A Core never decides to terminate: it always believes it can take another
// step. Stopping is the wrapper chain's concern.
package method

import (
	"io"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/descent-ml/descent/internal/linesearch"
	"github.com/descent-ml/descent/internal/objective"
)

// ErrDimension reports a point whose length does not match the method's
// configured dimension.
var ErrDimension = errors.New("method: dimension mismatch")

// EvalFunc evaluates the objective at x + α·dir and returns value and
// gradient. The driver supplies a closure routing through the wrapper
// chain's Call.
type EvalFunc func(x []float64, alpha float64, dir []float64) (float64, []float64, error)

// StepBound limits the step length the line search may take from origin
// along dir. A nil StepBound means unbounded.
type StepBound func(origin, dir []float64) float64

// Core is the capability set every descent method implements.
type Core interface {
	// Argument returns the current point x as a view, not a copy.
	Argument() []float64
	// Gradient returns the gradient at the current point.
	Gradient() []float64
	// StepOrigin returns the point the last step was taken from.
	StepOrigin() []float64
	// Value returns the objective value at the current point.
	Value() float64
	// OriginValue returns the objective value at the step origin.
	OriginValue() float64

	// Call evaluates fdf at x + α·dir and records the trial as the current
	// point. It is the single choke point for objective evaluations.
	Call(fdf objective.Func, x []float64, alpha float64, dir []float64) (float64, []float64, error)
	// Init establishes the first point. When reset is true, methods with
	// curvature state additionally take a steepest-descent probe step to
	// seed their estimates.
	Init(eval EvalFunc, x0 []float64, reset bool, bound StepBound) error
	// Step performs one outer iteration and returns the accepted step
	// length.
	Step(eval EvalFunc, bound StepBound) (float64, error)
	// Reset restores the initial internal state (identity curvature, zero
	// momentum, initial rates). A non-nil x0 also reseeds the point; Init
	// must still run before the next Step.
	Reset(x0 []float64) error
}

// Traceable is implemented by methods that run a line search and can route
// its bracketing/zoom trace to a sink. The driver wires the tracking sink
// in here before a run when verbose tracking is requested.
type Traceable interface {
	SetLineSearchTrace(w io.Writer)
}

var (
	_ Core = (*SteepestDescent)(nil)
	_ Core = (*FixedRate)(nil)
	_ Core = (*Momentum)(nil)
	_ Core = (*HyperGradient)(nil)
	_ Core = (*ConjugateGradient)(nil)
	_ Core = (*BFGS)(nil)
	_ Core = (*CholBFGS)(nil)
)

// state is the buffer arena shared by every method: current/previous point,
// gradient and value, plus the scratch direction.
type state struct {
	x, xpre []float64
	g, gpre []float64
	dir     []float64
	y, ypre float64
}

func newState(dim int) state {
	return state{
		x:    make([]float64, dim),
		xpre: make([]float64, dim),
		g:    make([]float64, dim),
		gpre: make([]float64, dim),
		dir:  make([]float64, dim),
	}
}

func (s *state) dim() int              { return len(s.x) }
func (s *state) Argument() []float64   { return s.x }
func (s *state) Gradient() []float64   { return s.g }
func (s *state) StepOrigin() []float64 { return s.xpre }
func (s *state) Value() float64        { return s.y }
func (s *state) OriginValue() float64  { return s.ypre }

// rotate swaps the current and previous roles by exchanging slice headers.
// After rotation the freshest data lives in xpre/gpre/ypre and x/g/y are
// free to receive the next trial.
func (s *state) rotate() {
	s.x, s.xpre = s.xpre, s.x
	s.g, s.gpre = s.gpre, s.g
	s.y, s.ypre = s.ypre, s.y
}

// Call evaluates fdf at x + α·dir and stores the trial point, gradient and
// value in the current slots. A nil dir evaluates at x itself.
func (s *state) Call(fdf objective.Func, x []float64, alpha float64, dir []float64) (float64, []float64, error) {
	yv, grad, err := fdf(x, alpha, dir)
	if err != nil {
		return yv, grad, err
	}
	if dir == nil || alpha == 0 {
		copy(s.x, x)
	} else {
		for i := range s.x {
			s.x[i] = x[i] + alpha*dir[i]
		}
	}
	copy(s.g, grad)
	s.y = yv
	return yv, s.g, nil
}

// seed evaluates the objective at x0 and makes it both the current point and
// the step origin.
func (s *state) seed(eval EvalFunc, x0 []float64) error {
	if len(x0) != s.dim() {
		return errors.Wrapf(ErrDimension, "got %d, dimension is %d", len(x0), s.dim())
	}
	if _, _, err := eval(x0, 0, nil); err != nil {
		return errors.Wrap(err, "objective undefined at initial point")
	}
	copy(s.xpre, s.x)
	copy(s.gpre, s.g)
	s.ypre = s.y
	return nil
}

// retreat restores the step origin as the current point, used when a step
// made no progress so that convergence checks observe a zero position
// change.
func (s *state) retreat() {
	copy(s.x, s.xpre)
	copy(s.g, s.gpre)
	s.y = s.ypre
}

// lineStep runs the strong-Wolfe search along the prepared direction. The
// state must already be rotated so xpre/gpre/ypre hold the origin. The
// accepted trial ends up in x/g/y thanks to the search's guarantee that its
// final probe lands on the returned step.
func (s *state) lineStep(eval EvalFunc, bound StepBound, cfg linesearch.Config) (float64, error) {
	slope0 := floats.Dot(s.dir, s.gpre)
	if bound != nil {
		if m := bound(s.xpre, s.dir); m < cfg.AlphaMax || cfg.AlphaMax <= 0 {
			cfg.AlphaMax = m
		}
	}
	probe := func(alpha float64) (float64, float64, error) {
		yv, grad, err := eval(s.xpre, alpha, s.dir)
		if err != nil {
			return yv, 0, err
		}
		return yv, floats.Dot(s.dir, grad), nil
	}
	return linesearch.Search(probe, s.ypre, slope0, cfg)
}

// boundedRate caps a fixed step length with the optional external bound.
func (s *state) boundedRate(rate float64, bound StepBound) float64 {
	if bound == nil {
		return rate
	}
	if m := bound(s.xpre, s.dir); m < rate {
		return math.Max(m, 0)
	}
	return rate
}
