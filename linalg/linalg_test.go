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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestMat3Inverse(t *testing.T) {
	m := Sym3(4, 3, 2, 1, 0.5, 0.25)
	inv := m.Inverse()
	id := m.Mul(&inv)
	if diff := cmp.Diff(Diag3(1, 1, 1), id, approx); diff != "" {
		t.Errorf("m * m^-1 is not the identity (-want +got):\n%s", diff)
	}
	if det := m.Det(); math.Abs(det-(4*3*2+2*1*0.5*0.25-4*0.25*0.25-3*0.5*0.5-2*1*1)) > 1e-12 {
		t.Errorf("unexpected determinant %v", det)
	}
}

func TestMat3MulVec(t *testing.T) {
	m := Mat3{1, 2, 3, 4, 5, 6, 7, 8, 9}
	if got, want := m.MulVec(Vec3{1, 0, -1}), (Vec3{-2, -2, -2}); got != want {
		t.Errorf("MulVec = %v, want %v", got, want)
	}
	d := Diag3(2, 3, 4)
	if got, want := d.MulVec(Vec3{1, 1, 1}).Sum(), 9.0; got != want {
		t.Errorf("Sum = %v, want %v", got, want)
	}
	sum := m.Add(&d)
	if sum.At(1, 1) != 8 || sum.At(0, 1) != 2 {
		t.Errorf("Add failed: %v", sum)
	}
}

func TestMat6Solve(t *testing.T) {
	var m Mat6
	for i := 0; i < 6; i++ {
		m.Set(i, i, float64(i+2))
	}
	m.SetSym(0, 2, 0.5)
	m.SetSym(1, 5, -0.25)
	want := Vec6{1, -2, 3, -4, 5, -6}
	b := m.MulVec(want)
	got, err := m.Solve(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Solve mismatch (-want +got):\n%s", diff)
	}
	if m.At(2, 0) != 0.5 {
		t.Error("SetSym did not set the transposed entry")
	}
}

func TestMat6SolveSingular(t *testing.T) {
	var m Mat6
	if _, err := m.Solve(Vec6{1}); err == nil {
		t.Error("expected an error for a singular system")
	}
}

func TestCumSums(t *testing.T) {
	cum := CumSum(nil, []float64{0, 1, 2, 3})
	if diff := cmp.Diff([]float64{0, 1, 3, 6}, cum); diff != "" {
		t.Errorf("CumSum mismatch (-want +got):\n%s", diff)
	}
	rev := ReverseCumSum(nil, cum)
	if diff := cmp.Diff([]float64{6, 5, 3, 0}, rev); diff != "" {
		t.Errorf("ReverseCumSum mismatch (-want +got):\n%s", diff)
	}
	if len(CumSum(nil, nil)) != 0 || len(ReverseCumSum(nil, nil)) != 0 {
		t.Error("empty sums failed")
	}
}

func TestOrder(t *testing.T) {
	x := []float64{0.3, -1, 0.3, 2, -5}
	if diff := cmp.Diff([]int{4, 1, 0, 2, 3}, Order(x)); diff != "" {
		t.Errorf("Order mismatch (-want +got):\n%s", diff)
	}
}

func TestMedian(t *testing.T) {
	if m := Median([]float64{3, math.NaN(), 1, 2}); m != 2 {
		t.Errorf("Median = %v, want 2", m)
	}
	if m := Median([]float64{math.NaN()}); !math.IsNaN(m) {
		t.Errorf("Median of NaNs = %v, want NaN", m)
	}
}

func TestSurface(t *testing.T) {
	s := NewSurface(3)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			s.Set(i, j, float64(i+j))
		}
	}
	s.Add(0, 0, 10)
	if s.At(0, 0) != 10 || s.At(1, 2) != 3 || s.At(2, 1) != 0 {
		t.Error("Set/Add/At failed")
	}
	if diff := cmp.Diff([]float64{13, 5, 4}, s.RowSums()); diff != "" {
		t.Errorf("RowSums mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{10, 3, 9}, s.ColSums()); diff != "" {
		t.Errorf("ColSums mismatch (-want +got):\n%s", diff)
	}
	if s.Sum() != 22 {
		t.Errorf("Sum = %v, want 22", s.Sum())
	}
	if s.MinUpper() != 1 {
		t.Errorf("MinUpper = %v, want 1", s.MinUpper())
	}
	if s.Len() != 3 {
		t.Error("Len failed")
	}
}
