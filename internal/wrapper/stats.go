// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package wrapper

import (
	"github.com/descent-ml/descent/internal/method"
	"github.com/descent-ml/descent/internal/objective"
)

// Predicate decides convergence from the current and previous point, the
// current and previous value, and the current gradient.
type Predicate func(x, xpre []float64, y, ypre float64, g []float64) bool

// ConvergenceStats generalizes the gradient stop and the call/iteration
// limits into a single wrapper around a user predicate, and remembers
// whether the run halted because the predicate held ("converged") or
// because a budget ran out ("limited") — the distinction surfaces in the
// final report.
type ConvergenceStats struct {
	Base
	pred      Predicate
	maxCalls  int
	maxIters  int
	calls     int
	iters     int
	converged bool
}

// NewConvergenceStats wraps inner with a convergence predicate and optional
// budgets (zero means unlimited).
func NewConvergenceStats(inner Method, pred Predicate, maxCalls, maxIters int) *ConvergenceStats {
	return &ConvergenceStats{
		Base:     NewBase(inner),
		pred:     pred,
		maxCalls: maxCalls,
		maxIters: maxIters,
	}
}

func (w *ConvergenceStats) Call(fdf objective.Func, x []float64, alpha float64, dir []float64) (float64, []float64, error) {
	w.calls++
	return w.Base.Call(fdf, x, alpha, dir)
}

func (w *ConvergenceStats) Init(eval method.EvalFunc, x0 []float64, reset bool, bound method.StepBound) error {
	w.calls, w.iters, w.converged = 0, 0, false
	return w.Base.Init(eval, x0, reset, bound)
}

func (w *ConvergenceStats) Step(eval method.EvalFunc, bound method.StepBound) (float64, error) {
	alpha, err := w.Base.Step(eval, bound)
	if err != nil {
		return alpha, err
	}
	w.iters++
	if w.pred != nil && w.pred(w.Argument(), w.StepOrigin(), w.Value(), w.OriginValue(), w.Gradient()) {
		w.converged = true
	}
	return alpha, nil
}

func (w *ConvergenceStats) Stop() bool {
	switch {
	case w.converged:
		return true
	case w.maxCalls > 0 && w.calls >= w.maxCalls:
		return true
	case w.maxIters > 0 && w.iters >= w.maxIters:
		return true
	}
	return w.Base.Stop()
}

func (w *ConvergenceStats) Converged() bool { return w.converged || w.Base.Converged() }
func (w *ConvergenceStats) Calls() int      { return w.calls }
func (w *ConvergenceStats) Iterations() int { return w.iters }
