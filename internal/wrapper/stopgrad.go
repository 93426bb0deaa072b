// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package wrapper

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// StopByGradient halts the run once the Euclidean norm of the gradient
// drops to gtol. Success reporting uses the max norm, the weaker criterion,
// so a 2-norm stop always counts as converged. A zero gtol disables the
// wrapper entirely.
type StopByGradient struct {
	Base
	gtol float64
}

// NewStopByGradient wraps inner with a gradient-norm stopping criterion.
func NewStopByGradient(inner Method, gtol float64) *StopByGradient {
	return &StopByGradient{Base: NewBase(inner), gtol: gtol}
}

func (w *StopByGradient) Stop() bool {
	if w.gtol > 0 && floats.Norm(w.Gradient(), 2) <= w.gtol {
		return true
	}
	return w.Base.Stop()
}

func (w *StopByGradient) Converged() bool {
	if w.gtol > 0 && floats.Norm(w.Gradient(), math.Inf(1)) <= w.gtol {
		return true
	}
	return w.Base.Converged()
}
