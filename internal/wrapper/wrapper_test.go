// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package wrapper_test

import (
	"bytes"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/descent-ml/descent/internal/method"
	"github.com/descent-ml/descent/internal/objective"
	"github.com/descent-ml/descent/internal/wrapper"
)

// chainEval builds the driver's evaluation closure: every objective call
// enters at the top of the chain.
func chainEval(m wrapper.Method, fdf objective.Func) method.EvalFunc {
	return func(x []float64, alpha float64, dir []float64) (float64, []float64, error) {
		return m.Call(fdf, x, alpha, dir)
	}
}

func run(t *testing.T, m wrapper.Method, fdf objective.Func, x0 []float64, maxSteps int) {
	t.Helper()
	eval := chainEval(m, fdf)
	require.NoError(t, m.Init(eval, x0, true, nil))
	for i := 0; i < maxSteps && !m.Stop(); i++ {
		_, err := m.Step(eval, nil)
		require.NoError(t, err)
	}
}

// TestWrapperTransparency checks that each wrapper with neutral settings
// reproduces the unwrapped method's trajectory exactly.
func TestWrapperTransparency(t *testing.T) {
	fdf := objective.Rosenbrock(2)
	x0 := []float64{-1, -1}
	const steps = 5

	final := func(m wrapper.Method) ([]float64, []float64) {
		eval := chainEval(m, fdf)
		require.NoError(t, m.Init(eval, x0, true, nil))
		for i := 0; i < steps; i++ {
			_, err := m.Step(eval, nil)
			require.NoError(t, err)
		}
		return append([]float64(nil), m.Argument()...),
			append([]float64(nil), m.Gradient()...)
	}

	wantX, wantG := final(wrapper.Wrap(method.NewBFGS(2, method.BFGSConfig{})))

	unbounded := func(origin, dir []float64) float64 { return math.Inf(1) }
	cases := []struct {
		name string
		wrap func(wrapper.Method) wrapper.Method
	}{
		{"stop_by_gradient_disabled", func(m wrapper.Method) wrapper.Method {
			return wrapper.NewStopByGradient(m, 0)
		}},
		{"limit_calls_unbounded", func(m wrapper.Method) wrapper.Method {
			return wrapper.NewLimitCalls(m, math.MaxInt)
		}},
		{"limit_iters_unbounded", func(m wrapper.Method) wrapper.Method {
			return wrapper.NewLimitIters(m, math.MaxInt)
		}},
		{"constrain_identity", func(m wrapper.Method) wrapper.Method {
			return wrapper.NewConstrainStep(m, unbounded)
		}},
		{"stats_no_predicate", func(m wrapper.Method) wrapper.Method {
			return wrapper.NewConvergenceStats(m, nil, 0, 0)
		}},
		{"tracker_discard", func(m wrapper.Method) wrapper.Method {
			return wrapper.NewTracker(m, io.Discard, 1)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotX, gotG := final(tc.wrap(wrapper.Wrap(method.NewBFGS(2, method.BFGSConfig{}))))
			assert.Equal(t, wantX, gotX)
			assert.Equal(t, wantG, gotG)
		})
	}
}

func TestLimitCalls_Accounting(t *testing.T) {
	counted := 0
	base := objective.Rosenbrock(2)
	counting := func(x []float64, alpha float64, dir []float64) (float64, []float64, error) {
		counted++
		return base(x, alpha, dir)
	}

	chain := wrapper.NewLimitCalls(wrapper.Wrap(method.NewBFGS(2, method.BFGSConfig{})), 20)
	run(t, chain, counting, []float64{-1, -1}, 1000)

	assert.True(t, chain.Stop(), "chain must halt on the call budget")
	assert.Equal(t, counted, chain.Calls(), "wrapper count must match the objective's own count")
	assert.GreaterOrEqual(t, chain.Calls(), 20)
	assert.False(t, chain.Converged(), "a budget stop is not convergence")
}

func TestLimitIters_Accounting(t *testing.T) {
	chain := wrapper.NewLimitIters(wrapper.Wrap(method.NewFixedRate(2, method.FixedRateConfig{LR: 0.1})), 3)
	run(t, chain, objective.Sphere(2), []float64{1, 1}, 1000)

	assert.Equal(t, 3, chain.Iterations())
	assert.False(t, chain.Converged())
}

func TestConstrainStep_BoundsEveryStep(t *testing.T) {
	bound := func(origin, dir []float64) float64 {
		return 0.1 / floats.Norm(dir, 2)
	}
	chain := wrapper.NewConstrainStep(wrapper.Wrap(method.NewSteepestDescent(2, method.SteepestConfig{})), bound)

	fdf := objective.Sphere(2)
	eval := chainEval(chain, fdf)
	require.NoError(t, chain.Init(eval, []float64{3, 4}, true, nil))

	moved := make([]float64, 2)
	for i := 0; i < 3; i++ {
		_, err := chain.Step(eval, nil)
		require.NoError(t, err)
		floats.SubTo(moved, chain.Argument(), chain.StepOrigin())
		assert.LessOrEqual(t, floats.Norm(moved, 2), 0.1+1e-12, "step %d", i)
	}
}

func TestConvergenceStats_DistinguishesConvergedFromLimited(t *testing.T) {
	gradSmall := func(x, xpre []float64, y, ypre float64, g []float64) bool {
		return floats.Norm(g, 2) <= 1e-6
	}

	converged := wrapper.NewConvergenceStats(
		wrapper.Wrap(method.NewBFGS(2, method.BFGSConfig{})), gradSmall, 0, 0)
	run(t, converged, objective.Sphere(2), []float64{1, -1}, 1000)
	assert.True(t, converged.Converged())
	assert.Greater(t, converged.Iterations(), 0)

	limited := wrapper.NewConvergenceStats(
		wrapper.Wrap(method.NewFixedRate(2, method.FixedRateConfig{LR: 1e-4})), gradSmall, 0, 2)
	run(t, limited, objective.Sphere(2), []float64{1, -1}, 1000)
	assert.False(t, limited.Converged())
	assert.Equal(t, 2, limited.Iterations())
}

func TestTracker_EmitsEvaluationsAndSeparators(t *testing.T) {
	var buf bytes.Buffer
	chain := wrapper.NewTracker(wrapper.Wrap(method.NewFixedRate(2, method.FixedRateConfig{LR: 0.1})), &buf, 1)

	fdf := objective.Sphere(2)
	eval := chainEval(chain, fdf)
	require.NoError(t, chain.Init(eval, []float64{1, 1}, true, nil))
	for i := 0; i < 2; i++ {
		_, err := chain.Step(eval, nil)
		require.NoError(t, err)
	}

	lines := strings.Split(buf.String(), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1] // artifact of the final newline
	}
	var evalLines, separators int
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			separators++
		} else {
			evalLines++
			assert.Equal(t, 3, len(strings.Split(l, "\t")), "point, value, gradient fields")
		}
	}
	// One evaluation during Init, one per fixed-rate step.
	assert.Equal(t, 3, evalLines)
	assert.Equal(t, 2, separators)
}
