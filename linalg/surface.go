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

import "gonum.org/v1/gonum/floats"

// Surface is a square matrix indexed by a pair of partition boundaries
// (i, j). Only the upper triangle i <= j describes a valid partition.
type Surface struct {
	n    int
	data []float64
}

// NewSurface returns an n x n surface filled with zeros.
func NewSurface(n int) *Surface {
	return &Surface{n: n, data: make([]float64, n*n)}
}

// Len returns the length of one side of the surface.
func (s *Surface) Len() int {
	return s.n
}

// At returns the value for boundaries (i, j).
func (s *Surface) At(i, j int) float64 {
	return s.data[i*s.n+j]
}

// Set stores the value for boundaries (i, j).
func (s *Surface) Set(i, j int, v float64) {
	s.data[i*s.n+j] = v
}

// Add adds v to the value for boundaries (i, j).
func (s *Surface) Add(i, j int, v float64) {
	s.data[i*s.n+j] += v
}

// Row returns row i. The result shares memory with the surface.
func (s *Surface) Row(i int) []float64 {
	return s.data[i*s.n : (i+1)*s.n]
}

// RowSums returns, for every i, the sum over j of (i, j).
func (s *Surface) RowSums() []float64 {
	sums := make([]float64, s.n)
	for i := range sums {
		sums[i] = floats.Sum(s.Row(i))
	}
	return sums
}

// ColSums returns, for every j, the sum over i of (i, j).
func (s *Surface) ColSums() []float64 {
	sums := make([]float64, s.n)
	for i := 0; i < s.n; i++ {
		floats.Add(sums, s.Row(i))
	}
	return sums
}

// Sum returns the sum of all values.
func (s *Surface) Sum() float64 {
	return floats.Sum(s.data)
}

// MinUpper returns the smallest value in the upper triangle i <= j.
func (s *Surface) MinUpper() float64 {
	min := s.data[0]
	for i := 0; i < s.n; i++ {
		for _, v := range s.Row(i)[i:] {
			if v < min {
				min = v
			}
		}
	}
	return min
}
