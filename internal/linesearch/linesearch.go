// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package linesearch implements a strong-Wolfe line search with
// cubic-interpolation bracketing and zoom.
//
// The search degrades gracefully on numerical trouble: objective domain
// failures are recovered by bisection, bracket underflow returns the
// midpoint, and iteration caps return the last trial. Every exit path yields
// a finite α ≥ 0; the only error is the precondition violation of a
// non-descent entry direction.
package linesearch

import (
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrNotDescent reports a search direction with non-negative directional
// derivative at the origin. This is caller misuse, not numerical trouble,
// and is the only hard failure the search can produce.
var ErrNotDescent = errors.New("linesearch: direction is not a descent direction")

const (
	defaultSuffDecrease = 1e-4
	defaultCurvature    = 0.5

	maxBracketIters = 200
	maxZoomIters    = 200
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)

// Probe evaluates the objective along the search ray: given a step α it
// returns φ(α) = f(x0 + α·d) and the slope φ'(α) = d·∇f(x0 + α·d).
// A non-nil error or non-finite value marks α as outside the domain.
type Probe func(alpha float64) (y, slope float64, err error)

// Config holds the line-search parameters. The zero value selects the
// defaults: β = 1e-4, σ = 0.5, α_init = 1, unbounded step.
type Config struct {
	SuffDecrease float64 // Armijo coefficient β
	Curvature    float64 // strong-curvature coefficient σ
	AlphaInit    float64 // first trial step
	AlphaMax     float64 // upper bound on the step, 0 means unbounded

	Trace  io.Writer          // optional bracketing/zoom trace sink
	Logger logrus.FieldLogger // advisory diagnostics, defaults to the standard logger
}

func (c Config) withDefaults() Config {
	if c.SuffDecrease == 0 {
		c.SuffDecrease = defaultSuffDecrease
	}
	if c.Curvature == 0 {
		c.Curvature = defaultCurvature
	}
	if c.AlphaInit <= 0 {
		c.AlphaInit = 1
	}
	if c.AlphaMax <= 0 {
		c.AlphaMax = math.Inf(1)
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	return c
}

// trial caches one evaluated point on the ray.
type trial struct {
	a     float64
	y     float64
	slope float64
}

// search carries the per-call state. Lifetime is one Search invocation.
type search struct {
	probe  Probe
	cfg    Config
	y0     float64
	slope0 float64
	last   trial // most recently evaluated valid trial
}

// Search finds a step α satisfying the strong Wolfe conditions along a
// descent ray, given the value y0 and slope slope0 at the origin
// (slope0 = d·∇f(x0), must be negative).
//
// Phase ordering in the bracketing loop, applied to each new trial: Armijo
// violation or value increase brackets; then strong-curvature satisfaction
// returns immediately; then non-negative slope brackets; otherwise the step
// is grown by cubic extrapolation (doubling fallback, capped at AlphaMax).
//
// On return the probe has last been invoked exactly at the returned α, so a
// caller keeping state in its probe holds the accepted point.
func Search(probe Probe, y0, slope0 float64, cfg Config) (float64, error) {
	if slope0 >= 0 {
		return 0, errors.Wrapf(ErrNotDescent, "slope %g at origin", slope0)
	}
	s := &search{
		probe:  probe,
		cfg:    cfg.withDefaults(),
		y0:     y0,
		slope0: slope0,
		last:   trial{0, y0, slope0},
	}
	return s.bracket()
}

// armijoOK applies the sufficient-decrease test. Near the optimum the direct
// difference y − y0 is dominated by cancellation noise; below the noise
// floor √ε·max(|y0|, |α·slope0|) a parabolic estimate from the two endpoint
// slopes replaces it.
func (s *search) armijoOK(t trial) bool {
	dy := t.y - s.y0
	floor := sqrtEps * math.Max(math.Abs(s.y0), math.Abs(t.a*s.slope0))
	if math.Abs(dy) < floor {
		dy = 0.5 * t.a * (s.slope0 + t.slope)
	}
	return dy <= s.cfg.SuffDecrease*t.a*s.slope0
}

// curvatureOK applies the strong-curvature test |φ'(α)| ≤ σ·|φ'(0)|.
func (s *search) curvatureOK(t trial) bool {
	return math.Abs(t.slope) <= -s.cfg.Curvature*s.slope0
}

// eval probes α, recording it as the last valid trial on success.
func (s *search) eval(alpha float64) (trial, bool) {
	y, slope, err := s.probe(alpha)
	ok := err == nil && !math.IsNaN(y) && !math.IsInf(y, 0)
	s.tracef("trial α=%.6g y=%.6g slope=%.6g valid=%v", alpha, y, slope, ok)
	if ok {
		s.last = trial{alpha, y, slope}
		return s.last, true
	}
	return trial{a: alpha}, false
}

// settle re-evaluates the last valid trial so the caller's state lands on a
// well-defined point, and returns its step.
func (s *search) settle() float64 {
	if _, ok := s.eval(s.last.a); !ok {
		// The last trial was valid when first evaluated; a deterministic
		// objective cannot fail here.
		s.cfg.Logger.WithField("alpha", s.last.a).
			Warn("line search: objective became undefined at a previously valid trial")
	}
	return s.last.a
}

func (s *search) bracket() (float64, error) {
	cfg := s.cfg
	prev := trial{0, s.y0, s.slope0}
	alpha := math.Min(cfg.AlphaInit, cfg.AlphaMax)

	for i := 0; i < maxBracketIters; i++ {
		cur, ok := s.eval(alpha)
		if !ok {
			// Domain failure: the step overshot; bisect toward the last
			// valid trial. A stalled bisection aborts the search.
			mid := 0.5 * (prev.a + alpha)
			if mid == alpha || mid == prev.a {
				cfg.Logger.WithField("alpha", prev.a).
					Warn("line search: bisection stalled on undefined objective, returning last valid step")
				return s.settle(), nil
			}
			alpha = mid
			continue
		}

		if !s.armijoOK(cur) || (prev.a > 0 && cur.y >= prev.y) {
			return s.zoom(prev, cur)
		}
		if s.curvatureOK(cur) {
			return cur.a, nil
		}
		if cur.slope >= 0 {
			return s.zoom(cur, prev)
		}

		if cur.a >= cfg.AlphaMax {
			cfg.Logger.WithField("alpha", cur.a).
				Warn("line search: curvature condition unmet at maximum step")
			return cur.a, nil
		}
		next := cubicMin(prev, cur)
		if math.IsNaN(next) || next <= cur.a {
			next = 2 * cur.a
		}
		prev = cur
		alpha = math.Min(next, cfg.AlphaMax)
	}

	s.cfg.Logger.WithField("alpha", s.last.a).
		Warn("line search: bracketing iteration limit reached")
	return s.settle(), nil
}

// zoom narrows a bracket (lo, hi) where lo satisfies the Armijo condition
// with the lowest value seen and the minimizer lies between the endpoints.
func (s *search) zoom(lo, hi trial) (float64, error) {
	cfg := s.cfg

	for i := 0; i < maxZoomIters; i++ {
		width := math.Abs(hi.a - lo.a)
		if width < 32*ulp(math.Max(math.Abs(lo.a), math.Abs(hi.a))) {
			mid := 0.5 * (lo.a + hi.a)
			cfg.Logger.WithField("alpha", mid).
				Warn("line search: bracket width underflow, returning midpoint")
			if _, ok := s.eval(mid); ok {
				return mid, nil
			}
			return s.settle(), nil
		}

		alpha := cubicMin(lo, hi)
		// Reject interpolants crowding the endpoints; fall back to bisection.
		guard := 0.1 * width
		low, high := math.Min(lo.a, hi.a), math.Max(lo.a, hi.a)
		if math.IsNaN(alpha) || alpha < low+guard || alpha > high-guard {
			alpha = 0.5 * (lo.a + hi.a)
		}

		cur, ok := s.eval(alpha)
		for !ok {
			// Undefined inside the bracket: shrink toward lo.
			next := 0.5 * (lo.a + alpha)
			if next == alpha || next == lo.a {
				cfg.Logger.WithField("alpha", lo.a).
					Warn("line search: zoom bisection stalled on undefined objective")
				return s.settle(), nil
			}
			alpha = next
			cur, ok = s.eval(alpha)
		}

		if !s.armijoOK(cur) || cur.y >= lo.y {
			hi = cur
			continue
		}
		if s.curvatureOK(cur) {
			return cur.a, nil
		}
		if cur.slope*(hi.a-lo.a) >= 0 {
			hi = lo
		}
		lo = cur
	}

	cfg.Logger.WithField("alpha", s.last.a).
		Warn("line search: zoom iteration limit reached")
	return s.last.a, nil
}

func (s *search) tracef(format string, args ...any) {
	if s.cfg.Trace != nil {
		fmt.Fprintf(s.cfg.Trace, format+"\n", args...)
	}
}

// cubicMin returns the minimizer of the cubic Hermite interpolant through
// two trials, or NaN when the interpolant has no interior minimum.
func cubicMin(t1, t2 trial) float64 {
	if t1.a == t2.a {
		return math.NaN()
	}
	d1 := t1.slope + t2.slope - 3*(t1.y-t2.y)/(t1.a-t2.a)
	d2sq := d1*d1 - t1.slope*t2.slope
	if d2sq < 0 {
		return math.NaN()
	}
	d2 := math.Copysign(math.Sqrt(d2sq), t2.a-t1.a)
	denom := t2.slope - t1.slope + 2*d2
	if denom == 0 {
		return math.NaN()
	}
	return t2.a - (t2.a-t1.a)*(t2.slope+d2-d1)/denom
}

// ulp returns the spacing of floating-point numbers at x.
func ulp(x float64) float64 {
	if x == 0 {
		return math.SmallestNonzeroFloat64
	}
	return math.Nextafter(x, math.Inf(1)) - x
}
