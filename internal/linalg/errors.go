// Copyright 2025 Descent ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package linalg

import "errors"

// ErrIndefinite is returned when a rank-one downdate would destroy the
// positive-definiteness of the factored matrix.
var ErrIndefinite = errors.New("linalg: downdate leaves matrix indefinite")

// ErrDimension indicates a vector or matrix argument whose size does not
// match the factor it is applied to.
var ErrDimension = errors.New("linalg: dimension mismatch")
