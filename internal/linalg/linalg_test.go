// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package linalg_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/descent-ml/descent/internal/linalg"
)

// randomSPD builds a well-conditioned random SPD matrix MᵀM + I.
func randomSPD(rng *rand.Rand, n int) *mat.SymDense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, rng.NormFloat64())
		}
	}
	var p mat.Dense
	p.Mul(m.T(), m)
	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := p.At(i, j)
			if i == j {
				v += 1
			}
			a.SetSym(i, j, v)
		}
	}
	return a
}

func TestModifiedCholesky_SPDRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		n := 2 + rng.Intn(7)
		a := randomSPD(rng, n)

		u := linalg.ModifiedCholesky(a)
		h := u.Sym()

		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				want := a.At(i, j)
				tol := 1e-4 * math.Max(1, math.Abs(want))
				assert.InDelta(t, want, h.At(i, j), tol,
					"trial %d entry (%d,%d)", trial, i, j)
			}
		}
	}
}

func TestModifiedCholesky_IndefinitePreservesOffDiagonals(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for trial := 0; trial < 20; trial++ {
		n := 2 + rng.Intn(7)
		a := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			// Negative diagonal guarantees indefiniteness.
			a.SetSym(i, i, -1-rng.Float64())
			for j := i + 1; j < n; j++ {
				a.SetSym(i, j, rng.NormFloat64())
			}
		}

		u := linalg.ModifiedCholesky(a)
		h := u.Sym()

		for i := 0; i < n; i++ {
			// Only the diagonal may be perturbed, and only upward.
			assert.GreaterOrEqual(t, h.At(i, i), a.At(i, i)-1e-10)
			for j := i + 1; j < n; j++ {
				tol := 1e-8 * math.Max(1, math.Abs(a.At(i, j)))
				assert.InDelta(t, a.At(i, j), h.At(i, j), tol,
					"trial %d off-diagonal (%d,%d)", trial, i, j)
			}
		}
	}
}

func TestUpperTriangular_SolveAndMulAreInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 6
	u := linalg.ModifiedCholesky(randomSPD(rng, n))

	x := make([]float64, n)
	for i := range x {
		x[i] = rng.NormFloat64()
	}

	hx := make([]float64, n)
	require.NoError(t, u.MulHVec(hx, x))

	back := make([]float64, n)
	require.NoError(t, u.SolveVec(back, hx))

	for i := range x {
		assert.InDelta(t, x[i], back[i], 1e-9)
	}
}

func TestUpperTriangular_UpdateDowndateRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	n := 5
	a := randomSPD(rng, n)
	u := linalg.ModifiedCholesky(a)

	v := make([]float64, n)
	for i := range v {
		v[i] = rng.NormFloat64()
	}

	require.NoError(t, u.RankOneUpdate(v))
	require.NoError(t, u.RankOneDowndate(v))

	h := u.Sym()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			tol := 1e-8 * math.Max(1, math.Abs(a.At(i, j)))
			assert.InDelta(t, a.At(i, j), h.At(i, j), tol)
		}
	}
}

func TestUpperTriangular_DowndateIndefinite(t *testing.T) {
	u := linalg.NewUpperTriangular(3)
	// Removing a rank-one term of norm > 1 from the identity is indefinite.
	err := u.RankOneDowndate([]float64{2, 0, 0})
	require.ErrorIs(t, err, linalg.ErrIndefinite)
}

func TestUpperTriangular_ScaledIdentity(t *testing.T) {
	u := linalg.NewUpperTriangular(4)
	u.ScaledIdentity(2.5)
	h := u.Sym()
	for i := 0; i < 4; i++ {
		for j := i; j < 4; j++ {
			want := 0.0
			if i == j {
				want = 2.5
			}
			assert.InDelta(t, want, h.At(i, j), 1e-12)
		}
	}
}

func TestUpperTriangular_DimensionChecks(t *testing.T) {
	u := linalg.NewUpperTriangular(3)
	assert.ErrorIs(t, u.RankOneUpdate(make([]float64, 2)), linalg.ErrDimension)
	assert.ErrorIs(t, u.SolveVec(make([]float64, 3), make([]float64, 4)), linalg.ErrDimension)
}
