// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package linalg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const deltaFloor = 1e-8

// ModifiedCholesky factors a symmetric matrix A into UᵀU = A + E using the
// Gill-Murray-Wright modified factorization. E is diagonal and non-negative:
// zero when A is safely positive definite, otherwise the smallest diagonal
// perturbation that keeps every pivot real and bounded. Off-diagonal entries
// of UᵀU always reproduce A exactly.
//
// Internally the factorization is computed in LDLᵀ form with pivots floored
// at max(|c_jj|, (θ_j/β)², δ), where θ_j is the largest subdiagonal element
// of the working column and β² a scaling bound derived from the extreme
// diagonal/off-diagonal magnitudes of A.
func ModifiedCholesky(a mat.Symmetric) *UpperTriangular {
	n := a.SymmetricDim()
	u := NewUpperTriangular(n)
	FactorInto(u, a)
	return u
}

// FactorInto runs the modified Cholesky factorization of a into an existing
// factor of matching dimension. Used to repair a factor in place after a
// failed downdate without reallocating.
func FactorInto(u *UpperTriangular, a mat.Symmetric) error {
	n := a.SymmetricDim()
	if u.n != n {
		return ErrDimension
	}

	// Scaling bound β² from the extreme magnitudes of A.
	var gamma, xi float64
	for i := 0; i < n; i++ {
		gamma = math.Max(gamma, math.Abs(a.At(i, i)))
		for j := i + 1; j < n; j++ {
			xi = math.Max(xi, math.Abs(a.At(i, j)))
		}
	}
	nu := math.Max(1, math.Sqrt(float64(n*n-1)))
	beta2 := math.Max(gamma, math.Max(xi/nu, machEps))
	delta := deltaFloor * math.Max(gamma+xi, 1)

	// Column-by-column LDLᵀ with pivot flooring. l is unit lower triangular,
	// d the pivot vector; c holds the working column products.
	l := make([]float64, n*n)
	d := make([]float64, n)
	c := make([]float64, n*n)

	for j := 0; j < n; j++ {
		cjj := a.At(j, j)
		for s := 0; s < j; s++ {
			cjj -= d[s] * l[j*n+s] * l[j*n+s]
		}
		c[j*n+j] = cjj

		theta := 0.0
		for i := j + 1; i < n; i++ {
			cij := a.At(i, j)
			for s := 0; s < j; s++ {
				cij -= d[s] * l[i*n+s] * l[j*n+s]
			}
			c[i*n+j] = cij
			theta = math.Max(theta, math.Abs(cij))
		}

		d[j] = math.Max(math.Abs(cjj), math.Max(theta*theta/beta2, delta))
		l[j*n+j] = 1
		for i := j + 1; i < n; i++ {
			l[i*n+j] = c[i*n+j] / d[j]
		}
	}

	// U = sqrt(D)·Lᵀ.
	for i := range u.data {
		u.data[i] = 0
	}
	for j := 0; j < n; j++ {
		sd := math.Sqrt(d[j])
		for i := j; i < n; i++ {
			u.data[j*n+i] = sd * l[i*n+j]
		}
	}
	return nil
}

// Sym materializes the factored matrix H = UᵀU as a dense symmetric matrix.
func (u *UpperTriangular) Sym() *mat.SymDense {
	n := u.n
	h := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s := 0.0
			for k := 0; k <= i; k++ {
				s += u.data[k*n+i] * u.data[k*n+j]
			}
			h.SetSym(i, j, s)
		}
	}
	return h
}

var machEps = math.Nextafter(1, 2) - 1
