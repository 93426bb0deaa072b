// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optimize_test

import (
	"bytes"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/descent-ml/descent/internal/method"
	"github.com/descent-ml/descent/internal/objective"
	"github.com/descent-ml/descent/internal/optimize"
)

func TestMain(m *testing.M) {
	logrus.SetLevel(logrus.ErrorLevel)
	os.Exit(m.Run())
}

// Every core variant gets the same treatment: 1000 iterations on the
// Rosenbrock valley from (-1,-1) must land within 5% of the minimizer at
// (1,1). The line-search methods with a gradient stopping criterion must
// additionally flag convergence.
func TestOptimize_Rosenbrock(t *testing.T) {
	cases := []struct {
		name      string
		core      method.Core
		converged bool
	}{
		{"steepest", method.NewSteepestDescent(2, method.SteepestConfig{}), false},
		{"conjgrad", method.NewConjugateGradient(2, method.ConjugateGradientConfig{}), true},
		{"bfgs", method.NewBFGS(2, method.BFGSConfig{}), true},
		{"cholbfgs", method.NewCholBFGS(2, method.CholBFGSConfig{}), true},
		{"momentum", method.NewMomentum(2, method.MomentumConfig{}), false},
		{"hypergradient", method.NewHyperGradient(2, method.HyperGradientConfig{}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := optimize.Optimize(objective.Rosenbrock(2), tc.core, []float64{-1, -1},
				optimize.WithMaxIterations(1000))
			require.NoError(t, err)
			if tc.converged {
				assert.True(t, res.Converged, "iterations=%d gradient=%v", res.Iterations, res.Gradient)
			}
			assert.InEpsilon(t, 1, res.Argument[0], 0.05)
			assert.InEpsilon(t, 1, res.Argument[1], 0.05)
			assert.LessOrEqual(t, res.Iterations, 1000)
		})
	}
}

func TestOptimize_TrivialRulesOnSphere(t *testing.T) {
	cases := []struct {
		name string
		core method.Core
	}{
		{"fixedrate", method.NewFixedRate(3, method.FixedRateConfig{LR: 0.25})},
		{"momentum", method.NewMomentum(3, method.MomentumConfig{LR: 0.1, Ratio: 0.5})},
		{"hypergradient", method.NewHyperGradient(3, method.HyperGradientConfig{LR: 0.1, HyperLR: 0.01})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := optimize.Optimize(objective.Sphere(3), tc.core, []float64{1, -0.5, 2},
				optimize.WithMaxIterations(2000))
			require.NoError(t, err)
			assert.True(t, res.Converged, "iterations=%d gradient=%v", res.Iterations, res.Gradient)
			for _, xi := range res.Argument {
				assert.Less(t, math.Abs(xi), 1e-5)
			}
		})
	}
}

// Without limit or tracking wrappers the counts come back as the -1
// "untracked" sentinel.
func TestOptimize_UntrackedCountsAreSentinel(t *testing.T) {
	res, err := optimize.Optimize(objective.Sphere(2), method.NewBFGS(2, method.BFGSConfig{}), []float64{3, -4})
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, -1, res.Iterations)
	assert.Equal(t, -1, res.Calls)
}

func TestOptimize_CallAccounting(t *testing.T) {
	var counted int
	fdf := objective.Rosenbrock(2)
	counting := func(x []float64, alpha float64, dir []float64) (float64, []float64, error) {
		counted++
		return fdf(x, alpha, dir)
	}
	res, err := optimize.Optimize(counting, method.NewBFGS(2, method.BFGSConfig{}), []float64{-1.2, 1},
		optimize.WithMaxIterations(1000), optimize.WithMaxCalls(10000))
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, counted, res.Calls)
	assert.Greater(t, res.Iterations, 0)
}

func TestOptimize_ConvergencePredicate(t *testing.T) {
	pred := func(x, xpre []float64, y, ypre float64, g []float64) bool {
		return math.Abs(y-ypre) < 1e-12
	}
	res, err := optimize.Optimize(objective.Rosenbrock(2), method.NewBFGS(2, method.BFGSConfig{}), []float64{-1.2, 1},
		optimize.WithConvergencePredicate(pred), optimize.WithMaxIterations(1000))
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Greater(t, res.Calls, 0)

	// An unsatisfiable predicate must exhaust the budget and report the
	// run as limited, not converged.
	never := func(x, xpre []float64, y, ypre float64, g []float64) bool { return false }
	res, err = optimize.Optimize(objective.Rosenbrock(2), method.NewBFGS(2, method.BFGSConfig{}), []float64{-1.2, 1},
		optimize.WithConvergencePredicate(never), optimize.WithMaxIterations(5))
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 5, res.Iterations)
}

func TestOptimize_StepConstraint(t *testing.T) {
	const maxStep = 0.05
	bound := func(origin, dir []float64) float64 {
		return maxStep / floats.Norm(dir, 2)
	}
	var overshoot bool
	watch := func(x, xpre []float64, y, ypre float64, g []float64) bool {
		d := make([]float64, len(x))
		floats.SubTo(d, x, xpre)
		if floats.Norm(d, 2) > maxStep*(1+1e-9) {
			overshoot = true
		}
		return false
	}
	_, err := optimize.Optimize(objective.Rosenbrock(2), method.NewBFGS(2, method.BFGSConfig{}), []float64{-1.2, 1},
		optimize.WithStepConstraint(bound), optimize.WithConvergencePredicate(watch), optimize.WithMaxIterations(50))
	require.NoError(t, err)
	assert.False(t, overshoot, "a step exceeded the constraint")
}

func TestOptimize_TrackingStreamsEvaluations(t *testing.T) {
	var buf bytes.Buffer
	_, err := optimize.Optimize(objective.Rosenbrock(2), method.NewBFGS(2, method.BFGSConfig{}), []float64{-1.2, 1},
		optimize.WithGradTolerance(0), optimize.WithMaxIterations(3), optimize.WithTracking(&buf, 1))
	require.NoError(t, err)
	require.NotZero(t, buf.Len())
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		if line == "" {
			continue // step separator
		}
		assert.Equal(t, 2, strings.Count(line, "\t"), "line %q", line)
	}
}

func TestOptimize_LineSearchTraceSharesSink(t *testing.T) {
	var buf bytes.Buffer
	_, err := optimize.Optimize(objective.Rosenbrock(2), method.NewBFGS(2, method.BFGSConfig{}), []float64{-1.2, 1},
		optimize.WithGradTolerance(0), optimize.WithMaxIterations(3), optimize.WithTracking(&buf, 2))
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
}

func TestOptimize_DimensionMismatch(t *testing.T) {
	_, err := optimize.Optimize(objective.Sphere(3), method.NewBFGS(3, method.BFGSConfig{}), []float64{1, 2})
	require.Error(t, err)
}
