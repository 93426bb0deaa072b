// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optimize runs a descent method to convergence.
package optimize

import (
	"io"

	"github.com/descent-ml/descent/internal/method"
	"github.com/descent-ml/descent/internal/objective"
	"github.com/descent-ml/descent/internal/optimize"
	"github.com/descent-ml/descent/internal/wrapper"
)

// Result is the final report of an optimization run.
type Result = optimize.Result

// Option configures an optimization run.
type Option = optimize.Option

// Predicate decides convergence from the current and previous point, the
// current and previous value, and the current gradient.
type Predicate = wrapper.Predicate

// DefaultGradTolerance is the gradient-norm stopping tolerance used when
// no custom convergence predicate is supplied.
const DefaultGradTolerance = optimize.DefaultGradTolerance

// Optimize minimizes fdf with the given method starting from x0.
//
// Example:
//
//	fdf := objective.Rosenbrock(2)
//	m := method.NewBFGS(2, method.BFGSConfig{})
//	res, err := optimize.Optimize(fdf, m, []float64{-1.2, 1},
//	    optimize.WithMaxIterations(1000),
//	)
func Optimize(fdf objective.Func, core method.Core, x0 []float64, opts ...Option) (*Result, error) {
	return optimize.Optimize(fdf, core, x0, opts...)
}

// WithGradTolerance sets the gradient-norm stopping tolerance. Zero
// disables the gradient stop.
func WithGradTolerance(gtol float64) Option { return optimize.WithGradTolerance(gtol) }

// WithConvergencePredicate replaces the gradient stop with a custom
// convergence predicate.
func WithConvergencePredicate(pred Predicate) Option {
	return optimize.WithConvergencePredicate(pred)
}

// WithMaxIterations bounds the number of outer steps.
func WithMaxIterations(n int) Option { return optimize.WithMaxIterations(n) }

// WithMaxCalls bounds the number of objective evaluations.
func WithMaxCalls(n int) Option { return optimize.WithMaxCalls(n) }

// WithStepConstraint enforces a maximum step length from each origin.
func WithStepConstraint(bound method.StepBound) Option {
	return optimize.WithStepConstraint(bound)
}

// WithReset controls whether the method's internal state is restored to
// its defaults before the run. Default true.
func WithReset(reset bool) Option { return optimize.WithReset(reset) }

// WithTracking streams one line per objective evaluation to sink. At
// verbosity ≥ 2 the line-search trace goes to the same sink.
func WithTracking(sink io.Writer, verbosity int) Option {
	return optimize.WithTracking(sink, verbosity)
}
