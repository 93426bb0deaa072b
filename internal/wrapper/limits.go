// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package wrapper

import (
	"github.com/descent-ml/descent/internal/method"
	"github.com/descent-ml/descent/internal/objective"
)

// LimitCalls halts the run once the objective has been evaluated max
// times. It observes every evaluation because the driver's eval closure
// routes line-search trials through the chain's Call. Hitting the limit is
// not convergence.
type LimitCalls struct {
	Base
	max   int
	count int
}

// NewLimitCalls wraps inner with an objective-evaluation budget.
func NewLimitCalls(inner Method, max int) *LimitCalls {
	return &LimitCalls{Base: NewBase(inner), max: max}
}

func (w *LimitCalls) Call(fdf objective.Func, x []float64, alpha float64, dir []float64) (float64, []float64, error) {
	w.count++
	return w.Base.Call(fdf, x, alpha, dir)
}

func (w *LimitCalls) Init(eval method.EvalFunc, x0 []float64, reset bool, bound method.StepBound) error {
	w.count = 0
	return w.Base.Init(eval, x0, reset, bound)
}

func (w *LimitCalls) Stop() bool {
	return (w.max > 0 && w.count >= w.max) || w.Base.Stop()
}

func (w *LimitCalls) Calls() int { return w.count }

// LimitIters halts the run after max outer steps. Hitting the limit is not
// convergence.
type LimitIters struct {
	Base
	max   int
	count int
}

// NewLimitIters wraps inner with an iteration budget.
func NewLimitIters(inner Method, max int) *LimitIters {
	return &LimitIters{Base: NewBase(inner), max: max}
}

func (w *LimitIters) Step(eval method.EvalFunc, bound method.StepBound) (float64, error) {
	alpha, err := w.Base.Step(eval, bound)
	if err == nil {
		w.count++
	}
	return alpha, err
}

func (w *LimitIters) Init(eval method.EvalFunc, x0 []float64, reset bool, bound method.StepBound) error {
	w.count = 0
	return w.Base.Init(eval, x0, reset, bound)
}

func (w *LimitIters) Stop() bool {
	return (w.max > 0 && w.count >= w.max) || w.Base.Stop()
}

func (w *LimitIters) Iterations() int { return w.count }
