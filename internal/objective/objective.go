// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package objective defines the evaluation contract between a caller's
// objective function and the descent methods, plus the standard benchmark
// functions used by tests and the CLI.
package objective

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrUndefined signals that the objective is not defined at the requested
// trial point (outside its domain, or numerically unrepresentable). The line
// search treats it as "step too large" and recovers by bisection; it is
// never propagated to the user.
var ErrUndefined = errors.New("objective: undefined at trial point")

// Func evaluates the objective and its gradient at x + α·dir.
//
// The returned gradient slice may be a buffer owned by the objective and
// reused across calls; callers that need to retain it must copy. A Func must
// be pure with respect to optimizer state: same inputs, same outputs, no
// reads of method internals. Returning ErrUndefined (or a non-finite value)
// marks the trial point as outside the domain.
type Func func(x []float64, alpha float64, dir []float64) (float64, []float64, error)

// Rosenbrock returns the n-dimensional Rosenbrock function
//
//	f(x) = Σ 100·(x_{i+1} − x_i²)² + (1 − x_i)²
//
// with minimum 0 at (1, ..., 1). The classic ill-conditioned valley used to
// exercise every descent method.
func Rosenbrock(n int) Func {
	pt := make([]float64, n)
	grad := make([]float64, n)
	return func(x []float64, alpha float64, dir []float64) (float64, []float64, error) {
		at(pt, x, alpha, dir)
		f := 0.0
		for i := range grad {
			grad[i] = 0
		}
		for i := 0; i < n-1; i++ {
			t := pt[i+1] - pt[i]*pt[i]
			u := 1 - pt[i]
			f += 100*t*t + u*u
			grad[i] += -400*pt[i]*t - 2*u
			grad[i+1] += 200 * t
		}
		return f, grad, nil
	}
}

// Quadratic returns the convex quadratic f(x) = ½·xᵀQx − bᵀx with gradient
// Qx − b. Q must be positive definite for the minimizer Q⁻¹b to exist.
func Quadratic(q mat.Symmetric, b []float64) Func {
	n := q.SymmetricDim()
	pt := make([]float64, n)
	grad := make([]float64, n)
	qx := mat.NewVecDense(n, nil)
	return func(x []float64, alpha float64, dir []float64) (float64, []float64, error) {
		at(pt, x, alpha, dir)
		v := mat.NewVecDense(n, pt)
		qx.MulVec(q, v)
		f := 0.0
		for i := 0; i < n; i++ {
			f += 0.5*pt[i]*qx.AtVec(i) - b[i]*pt[i]
			grad[i] = qx.AtVec(i) - b[i]
		}
		return f, grad, nil
	}
}

// Sphere returns f(x) = ½·‖x‖², the simplest strongly convex objective.
func Sphere(n int) Func {
	pt := make([]float64, n)
	grad := make([]float64, n)
	return func(x []float64, alpha float64, dir []float64) (float64, []float64, error) {
		at(pt, x, alpha, dir)
		f := 0.0
		for i := range pt {
			f += 0.5 * pt[i] * pt[i]
			grad[i] = pt[i]
		}
		return f, grad, nil
	}
}

// at writes x + α·dir into dst. A nil dir means evaluation at x itself.
func at(dst, x []float64, alpha float64, dir []float64) {
	if dir == nil || alpha == 0 {
		copy(dst, x)
		return
	}
	for i := range dst {
		dst[i] = x[i] + alpha*dir[i]
	}
}
