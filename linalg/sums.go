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
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CumSum returns the running sums of src. dst is reused when it has
// enough capacity.
func CumSum(dst, src []float64) []float64 {
	if cap(dst) < len(src) {
		dst = make([]float64, len(src))
	}
	dst = dst[:len(src)]
	if len(src) == 0 {
		return dst
	}
	return floats.CumSum(dst, src)
}

// ReverseCumSum turns the running sums cum into running sums from the
// other end: dst[i] is the sum of all entries after i.
func ReverseCumSum(dst, cum []float64) []float64 {
	if cap(dst) < len(cum) {
		dst = make([]float64, len(cum))
	}
	dst = dst[:len(cum)]
	if len(cum) == 0 {
		return dst
	}
	total := cum[len(cum)-1]
	for i, c := range cum {
		dst[i] = total - c
	}
	return dst
}

// Order returns the permutation that sorts x in ascending order. Equal
// values keep their original relative order.
func Order(x []float64) []int {
	index := make([]int, len(x))
	for i := range index {
		index[i] = i
	}
	sort.SliceStable(index, func(i, j int) bool {
		return x[index[i]] < x[index[j]]
	})
	return index
}

// Median returns the median of the non-NaN values of x, or NaN if there
// are none.
func Median(x []float64) float64 {
	values := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return math.NaN()
	}
	sort.Float64s(values)
	return stat.Quantile(0.5, stat.Empirical, values, nil)
}
