// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package wrapper layers stopping criteria, resource limits, step
// constraints, statistics and tracking onto a core method without the
// method knowing about them.
//
// Each wrapper holds exactly one inner Method and forwards every protocol
// operation it does not override, forming a singly-linked decoration chain
// ending in a core method. Wrappers never touch the wrapped method's
// buffers; they only intercept calls. Composition order matters only for
// counting semantics.
package wrapper

import (
	"github.com/descent-ml/descent/internal/method"
	"github.com/descent-ml/descent/internal/objective"
)

// Method extends the core protocol with the chain-level queries the driver
// needs: the stop predicate, the success flag, and evaluation/iteration
// counts (−1 when no wrapper in the chain tracks them).
type Method interface {
	method.Core

	// Stop reports whether the chain wants the outer loop to halt.
	Stop() bool
	// Converged reports whether halting counts as success rather than a
	// resource limit.
	Converged() bool
	// Calls returns the number of objective evaluations, −1 if untracked.
	Calls() int
	// Iterations returns the number of outer steps, −1 if untracked.
	Iterations() int
	// Inner returns the wrapped method, nil for a chain leaf.
	Inner() Method
}

// Wrap adapts a core method into a chain leaf that never stops and tracks
// nothing.
func Wrap(c method.Core) Method {
	return &leaf{Core: c}
}

type leaf struct {
	method.Core
}

func (l *leaf) Stop() bool      { return false }
func (l *leaf) Converged() bool { return false }
func (l *leaf) Calls() int      { return -1 }
func (l *leaf) Iterations() int { return -1 }
func (l *leaf) Inner() Method   { return nil }

// Base is the default-forwarding half of every wrapper: embed it, store the
// inner method through NewBase, and override only the operations the
// wrapper changes.
type Base struct {
	inner Method
}

// NewBase wraps an inner method.
func NewBase(inner Method) Base { return Base{inner: inner} }

func (b *Base) Argument() []float64   { return b.inner.Argument() }
func (b *Base) Gradient() []float64   { return b.inner.Gradient() }
func (b *Base) StepOrigin() []float64 { return b.inner.StepOrigin() }
func (b *Base) Value() float64        { return b.inner.Value() }
func (b *Base) OriginValue() float64  { return b.inner.OriginValue() }
func (b *Base) Inner() Method         { return b.inner }
func (b *Base) Stop() bool            { return b.inner.Stop() }
func (b *Base) Converged() bool       { return b.inner.Converged() }
func (b *Base) Calls() int            { return b.inner.Calls() }
func (b *Base) Iterations() int       { return b.inner.Iterations() }

func (b *Base) Call(fdf objective.Func, x []float64, alpha float64, dir []float64) (float64, []float64, error) {
	return b.inner.Call(fdf, x, alpha, dir)
}

func (b *Base) Init(eval method.EvalFunc, x0 []float64, reset bool, bound method.StepBound) error {
	return b.inner.Init(eval, x0, reset, bound)
}

func (b *Base) Step(eval method.EvalFunc, bound method.StepBound) (float64, error) {
	return b.inner.Step(eval, bound)
}

func (b *Base) Reset(x0 []float64) error { return b.inner.Reset(x0) }

var (
	_ Method = (*leaf)(nil)
	_ Method = (*StopByGradient)(nil)
	_ Method = (*LimitCalls)(nil)
	_ Method = (*LimitIters)(nil)
	_ Method = (*ConstrainStep)(nil)
	_ Method = (*ConvergenceStats)(nil)
	_ Method = (*Tracker)(nil)
)
