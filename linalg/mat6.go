// elLabel: unsupervised genotype clustering for SNP arrays.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/ellabel/blob/master/LICENSE.txt>.

package linalg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Vec6 is a vector of six values. In the two-dimensional posterior it
// holds (x, y) pairs for AA, AB and BB, in that order.
type Vec6 [6]float64

// Mat6 is a 6x6 matrix in row-major order.
type Mat6 [36]float64

// At returns the entry at row i, column j.
func (m *Mat6) At(i, j int) float64 {
	return m[i*6+j]
}

// Set sets the entry at row i, column j.
func (m *Mat6) Set(i, j int, v float64) {
	m[i*6+j] = v
}

// SetSym sets the entries (i, j) and (j, i).
func (m *Mat6) SetSym(i, j int, v float64) {
	m[i*6+j] = v
	m[j*6+i] = v
}

// Add returns m+n.
func (m *Mat6) Add(n *Mat6) (z Mat6) {
	for i := range z {
		z[i] = m[i] + n[i]
	}
	return z
}

// MulVec returns the product m*v.
func (m *Mat6) MulVec(v Vec6) (z Vec6) {
	for i := 0; i < 6; i++ {
		var sum float64
		for j := 0; j < 6; j++ {
			sum += m[i*6+j] * v[j]
		}
		z[i] = sum
	}
	return z
}

// Solve returns x such that m*x = b. A badly conditioned but non-singular
// system still yields a solution; only a singular system is an error.
func (m *Mat6) Solve(b Vec6) (x Vec6, err error) {
	data := make([]float64, len(m))
	copy(data, m[:])
	a := mat.NewDense(6, 6, data)
	var sol mat.VecDense
	if err = sol.SolveVec(a, mat.NewVecDense(6, append([]float64(nil), b[:]...))); err != nil {
		if c, ok := err.(mat.Condition); !ok || math.IsInf(float64(c), 1) {
			return x, err
		}
	}
	for i := range x {
		x[i] = sol.AtVec(i)
	}
	return x, nil
}
