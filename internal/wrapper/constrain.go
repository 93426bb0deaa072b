// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package wrapper

import (
	"github.com/descent-ml/descent/internal/method"
)

// ConstrainStep passes a step-length bound down into every Init and Step,
// typically to keep trial points inside the objective's feasible domain
// (a positive density, a log argument and so on). When the caller supplies
// its own bound as well, the tighter of the two applies.
type ConstrainStep struct {
	Base
	bound method.StepBound
}

// NewConstrainStep wraps inner with a maximum-step callback.
func NewConstrainStep(inner Method, bound method.StepBound) *ConstrainStep {
	return &ConstrainStep{Base: NewBase(inner), bound: bound}
}

func (w *ConstrainStep) Init(eval method.EvalFunc, x0 []float64, reset bool, bound method.StepBound) error {
	return w.Base.Init(eval, x0, reset, w.combine(bound))
}

func (w *ConstrainStep) Step(eval method.EvalFunc, bound method.StepBound) (float64, error) {
	return w.Base.Step(eval, w.combine(bound))
}

func (w *ConstrainStep) combine(outer method.StepBound) method.StepBound {
	if outer == nil {
		return w.bound
	}
	mine := w.bound
	return func(origin, dir []float64) float64 {
		a, b := mine(origin, dir), outer(origin, dir)
		if a < b {
			return a
		}
		return b
	}
}
