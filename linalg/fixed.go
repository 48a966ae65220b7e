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

// Vec3 is a vector of three values, ordered AA, AB, BB wherever it holds
// per-genotype quantities.
type Vec3 [3]float64

// Mat3 is a 3x3 matrix in row-major order.
type Mat3 [9]float64

// Diag3 returns the diagonal matrix with the given diagonal entries.
func Diag3(a, b, c float64) (m Mat3) {
	m[0], m[4], m[8] = a, b, c
	return m
}

// Sym3 returns the symmetric matrix with the given diagonal entries and
// off-diagonal entries ab (row 0, column 1), ac (row 0, column 2) and bc
// (row 1, column 2).
func Sym3(a, b, c, ab, ac, bc float64) Mat3 {
	return Mat3{
		a, ab, ac,
		ab, b, bc,
		ac, bc, c,
	}
}

// At returns the entry at row i, column j.
func (m *Mat3) At(i, j int) float64 {
	return m[i*3+j]
}

// Add returns m+n.
func (m *Mat3) Add(n *Mat3) (z Mat3) {
	for i := range z {
		z[i] = m[i] + n[i]
	}
	return z
}

// Mul returns the matrix product m*n.
func (m *Mat3) Mul(n *Mat3) Mat3 {
	return Mat3{
		m[0]*n[0] + m[1]*n[3] + m[2]*n[6],
		m[0]*n[1] + m[1]*n[4] + m[2]*n[7],
		m[0]*n[2] + m[1]*n[5] + m[2]*n[8],
		m[3]*n[0] + m[4]*n[3] + m[5]*n[6],
		m[3]*n[1] + m[4]*n[4] + m[5]*n[7],
		m[3]*n[2] + m[4]*n[5] + m[5]*n[8],
		m[6]*n[0] + m[7]*n[3] + m[8]*n[6],
		m[6]*n[1] + m[7]*n[4] + m[8]*n[7],
		m[6]*n[2] + m[7]*n[5] + m[8]*n[8],
	}
}

// MulVec returns the product m*v.
func (m *Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Det returns the determinant of m.
func (m *Mat3) Det() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) +
		m[3]*(m[2]*m[7]-m[1]*m[8]) +
		m[6]*(m[1]*m[5]-m[2]*m[4])
}

// Inverse returns the inverse of m, computed from the adjugate. The
// result contains infinities or NaNs when m is singular; callers keep
// their systems regular through prior pseudo-observations.
func (m *Mat3) Inverse() (w Mat3) {
	w[0] = m[4]*m[8] - m[5]*m[7]
	w[1] = m[2]*m[7] - m[1]*m[8]
	w[2] = m[1]*m[5] - m[2]*m[4]
	w[3] = m[5]*m[6] - m[3]*m[8]
	w[4] = m[0]*m[8] - m[2]*m[6]
	w[5] = m[2]*m[3] - m[0]*m[5]
	w[6] = m[3]*m[7] - m[4]*m[6]
	w[7] = m[1]*m[6] - m[0]*m[7]
	w[8] = m[0]*m[4] - m[1]*m[3]
	det := m[0]*w[0] + m[3]*w[1] + m[6]*w[2]
	for i := range w {
		w[i] /= det
	}
	return w
}

// Add returns v+w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Sum returns the sum of the entries of v.
func (v Vec3) Sum() float64 {
	return v[0] + v[1] + v[2]
}
