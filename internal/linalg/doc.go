// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package linalg provides the small set of dense linear-algebra primitives
// the quasi-Newton methods need beyond gonum: an upper-triangular Cholesky
// factor type with in-place rank-one update/downdate, and a modified
// (Gill-Murray-Wright) Cholesky factorization that produces a valid factor
// for possibly-indefinite symmetric input.
package linalg
