// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package objective defines the objective-function contract and a few
// standard test problems.
package objective

import (
	"gonum.org/v1/gonum/mat"

	"github.com/descent-ml/descent/internal/objective"
)

// Func evaluates an objective at x + α·dir and returns the value and the
// gradient there. Returning ErrUndefined marks a point outside the
// objective's domain; the line search retreats from it.
type Func = objective.Func

// ErrUndefined reports an objective evaluated outside its domain.
var ErrUndefined = objective.ErrUndefined

// Rosenbrock returns the n-dimensional Rosenbrock function, minimized at
// the all-ones point.
func Rosenbrock(n int) Func { return objective.Rosenbrock(n) }

// Quadratic returns ½·xᵀQx − bᵀx for a symmetric positive definite Q.
func Quadratic(q mat.Symmetric, b []float64) Func { return objective.Quadratic(q, b) }

// Sphere returns the n-dimensional sum of squares, minimized at the
// origin.
func Sphere(n int) Func { return objective.Sphere(n) }
