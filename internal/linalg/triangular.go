// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package linalg

import (
	"math"
)

// UpperTriangular is the upper-triangular factor U of a symmetric
// positive-definite matrix H = UᵀU. Storage is a flat row-major n×n slice;
// entries below the diagonal are never read or written, so the triangular
// invariant holds by construction rather than by convention.
//
// All mutating operations keep U a valid Cholesky factor: updates cannot
// fail, downdates report ErrIndefinite instead of leaving a broken factor.
type UpperTriangular struct {
	n    int
	data []float64
	work []float64 // scratch for update/downdate, len n
}

// NewUpperTriangular allocates an n×n factor initialized to the identity,
// so the represented matrix H = UᵀU starts as the identity.
func NewUpperTriangular(n int) *UpperTriangular {
	u := &UpperTriangular{
		n:    n,
		data: make([]float64, n*n),
		work: make([]float64, n),
	}
	u.ScaledIdentity(1)
	return u
}

// Dim returns the order of the factored matrix.
func (u *UpperTriangular) Dim() int { return u.n }

// CopyFrom overwrites the factor with src. The dimensions must match.
func (u *UpperTriangular) CopyFrom(src *UpperTriangular) error {
	if u.n != src.n {
		return ErrDimension
	}
	copy(u.data, src.data)
	return nil
}

// At returns U[i,j]. Entries below the diagonal are zero.
func (u *UpperTriangular) At(i, j int) float64 {
	if j < i {
		return 0
	}
	return u.data[i*u.n+j]
}

// ScaledIdentity resets the factor so that UᵀU = scale·I.
// The scale must be positive.
func (u *UpperTriangular) ScaledIdentity(scale float64) {
	s := math.Sqrt(scale)
	for i := range u.data {
		u.data[i] = 0
	}
	for i := 0; i < u.n; i++ {
		u.data[i*u.n+i] = s
	}
}

// SolveVec solves (UᵀU)·x = b by a forward solve with Uᵀ followed by a
// backward solve with U, writing x into dst. dst and b may alias.
func (u *UpperTriangular) SolveVec(dst, b []float64) error {
	n := u.n
	if len(dst) != n || len(b) != n {
		return ErrDimension
	}
	// Forward: Uᵀy = b, Uᵀ is lower triangular with (Uᵀ)[i,k] = U[k,i].
	for i := 0; i < n; i++ {
		s := b[i]
		for k := 0; k < i; k++ {
			s -= u.data[k*n+i] * dst[k]
		}
		dst[i] = s / u.data[i*n+i]
	}
	// Backward: Ux = y.
	for i := n - 1; i >= 0; i-- {
		s := dst[i]
		for j := i + 1; j < n; j++ {
			s -= u.data[i*n+j] * dst[j]
		}
		dst[i] = s / u.data[i*n+i]
	}
	return nil
}

// MulHVec computes dst = (UᵀU)·x without forming the product matrix.
// dst and x must not alias.
func (u *UpperTriangular) MulHVec(dst, x []float64) error {
	n := u.n
	if len(dst) != n || len(x) != n {
		return ErrDimension
	}
	t := u.work
	for i := 0; i < n; i++ {
		s := 0.0
		for j := i; j < n; j++ {
			s += u.data[i*n+j] * x[j]
		}
		t[i] = s
	}
	for i := 0; i < n; i++ {
		s := 0.0
		for k := 0; k <= i; k++ {
			s += u.data[k*n+i] * t[k]
		}
		dst[i] = s
	}
	return nil
}

// RankOneUpdate replaces the factored matrix with UᵀU + v·vᵀ, applying a
// sequence of Givens rotations directly to the factor. v is not modified.
func (u *UpperTriangular) RankOneUpdate(v []float64) error {
	n := u.n
	if len(v) != n {
		return ErrDimension
	}
	w := u.work
	copy(w, v)
	for k := 0; k < n; k++ {
		ukk := u.data[k*n+k]
		r := math.Hypot(ukk, w[k])
		c := r / ukk
		s := w[k] / ukk
		u.data[k*n+k] = r
		for j := k + 1; j < n; j++ {
			u.data[k*n+j] = (u.data[k*n+j] + s*w[j]) / c
			w[j] = c*w[j] - s*u.data[k*n+j]
		}
	}
	return nil
}

// RankOneDowndate replaces the factored matrix with UᵀU − v·vᵀ using
// hyperbolic rotations. If the result would not be positive definite the
// factor is left unspecified and ErrIndefinite is returned; callers are
// expected to rebuild via ModifiedCholesky in that case. v is not modified.
func (u *UpperTriangular) RankOneDowndate(v []float64) error {
	n := u.n
	if len(v) != n {
		return ErrDimension
	}
	w := u.work
	copy(w, v)
	for k := 0; k < n; k++ {
		ukk := u.data[k*n+k]
		r2 := ukk*ukk - w[k]*w[k]
		if r2 <= 0 {
			return ErrIndefinite
		}
		r := math.Sqrt(r2)
		c := r / ukk
		s := w[k] / ukk
		u.data[k*n+k] = r
		for j := k + 1; j < n; j++ {
			u.data[k*n+j] = (u.data[k*n+j] - s*w[j]) / c
			w[j] = c*w[j] - s*u.data[k*n+j]
		}
	}
	return nil
}
