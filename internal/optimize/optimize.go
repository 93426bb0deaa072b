// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optimize drives a descent method to a stationary point: it
// assembles the wrapper chain from the run options, initializes it at the
// starting point, iterates until the chain's stop predicate holds, and
// reports the final statistics.
package optimize

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/descent-ml/descent/internal/method"
	"github.com/descent-ml/descent/internal/objective"
	"github.com/descent-ml/descent/internal/wrapper"
)

// DefaultGradTolerance is the gradient-norm stopping tolerance used when
// no custom convergence predicate is supplied.
const DefaultGradTolerance = 1e-6

// Result is the final report of an optimization run. Count fields are −1
// when no wrapper tracked them.
type Result struct {
	Converged  bool
	Argument   []float64
	Gradient   []float64
	Iterations int
	Calls      int
}

type options struct {
	gtol      float64
	pred      wrapper.Predicate
	maxIters  int
	maxCalls  int
	bound     method.StepBound
	reset     bool
	sink      io.Writer
	verbosity int
}

// Option configures a single wrapper layer of an optimization run. An
// option left out means that layer is omitted (unlimited, untracked).
type Option func(*options)

// WithGradTolerance sets the gradient-norm stopping tolerance. Zero
// disables the gradient stop entirely.
func WithGradTolerance(gtol float64) Option {
	return func(o *options) { o.gtol = gtol }
}

// WithConvergencePredicate replaces the gradient stop and the separate
// limit wrappers with a single convergence-statistics wrapper around pred.
func WithConvergencePredicate(pred wrapper.Predicate) Option {
	return func(o *options) { o.pred = pred }
}

// WithMaxIterations bounds the number of outer steps.
func WithMaxIterations(n int) Option {
	return func(o *options) { o.maxIters = n }
}

// WithMaxCalls bounds the number of objective evaluations.
func WithMaxCalls(n int) Option {
	return func(o *options) { o.maxCalls = n }
}

// WithStepConstraint enforces a maximum step length from each origin,
// typically a domain/feasibility bound.
func WithStepConstraint(bound method.StepBound) Option {
	return func(o *options) { o.bound = bound }
}

// WithReset controls whether Init restores the method's default internal
// state (and lets quasi-Newton methods re-seed curvature). Default true.
func WithReset(reset bool) Option {
	return func(o *options) { o.reset = reset }
}

// WithTracking streams one line per objective evaluation to sink. At
// verbosity ≥ 2 the line-search bracketing/zoom trace goes to the same
// sink.
func WithTracking(sink io.Writer, verbosity int) Option {
	return func(o *options) { o.sink = sink; o.verbosity = verbosity }
}

// Optimize minimizes fdf with the given core method starting from x0.
//
// Non-convergence is a normal outcome reported through Result.Converged;
// an error means structurally invalid input such as a dimension mismatch
// or an objective that is undefined at x0.
func Optimize(fdf objective.Func, core method.Core, x0 []float64, opts ...Option) (*Result, error) {
	o := options{gtol: DefaultGradTolerance, reset: true}
	for _, opt := range opts {
		opt(&o)
	}

	if o.sink != nil && o.verbosity >= 2 {
		if tr, ok := core.(method.Traceable); ok {
			tr.SetLineSearchTrace(o.sink)
		}
	}

	// Chain composition, innermost first. Canonical order outermost to
	// innermost: stop/stats, iteration limit, call limit, step constraint,
	// tracking, core.
	chain := wrapper.Wrap(core)
	if o.sink != nil {
		chain = wrapper.NewTracker(chain, o.sink, o.verbosity)
	}
	if o.bound != nil {
		chain = wrapper.NewConstrainStep(chain, o.bound)
	}
	if o.pred != nil {
		chain = wrapper.NewConvergenceStats(chain, o.pred, o.maxCalls, o.maxIters)
	} else {
		if o.maxCalls > 0 {
			chain = wrapper.NewLimitCalls(chain, o.maxCalls)
		}
		if o.maxIters > 0 {
			chain = wrapper.NewLimitIters(chain, o.maxIters)
		}
		if o.gtol > 0 {
			chain = wrapper.NewStopByGradient(chain, o.gtol)
		}
	}

	eval := func(x []float64, alpha float64, dir []float64) (float64, []float64, error) {
		return chain.Call(fdf, x, alpha, dir)
	}

	if err := chain.Init(eval, x0, o.reset, nil); err != nil {
		return nil, errors.Wrap(err, "optimize: init")
	}

	for !chain.Stop() {
		if _, err := chain.Step(eval, nil); err != nil {
			return nil, errors.Wrap(err, "optimize: step")
		}
	}

	res := &Result{
		Converged:  chain.Converged(),
		Argument:   append([]float64(nil), chain.Argument()...),
		Gradient:   append([]float64(nil), chain.Gradient()...),
		Iterations: chain.Iterations(),
		Calls:      chain.Calls(),
	}
	logrus.WithFields(logrus.Fields{
		"converged":  res.Converged,
		"iterations": res.Iterations,
		"calls":      res.Calls,
	}).Debug("optimize: run finished")
	return res, nil
}
