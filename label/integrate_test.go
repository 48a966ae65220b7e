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

package label

import (
	"math"
	"testing"

	"github.com/exascience/ellabel/linalg"
	"github.com/google/go-cmp/cmp"
)

func TestRelativeProbabilities(t *testing.T) {
	q := linalg.NewSurface(2)
	q.Set(0, 0, 1)
	q.Set(0, 1, 2)
	q.Set(1, 0, 5)
	q.Set(1, 1, 1)
	relativeProbabilities(q)
	want := []float64{1, math.Exp(-1), 0, 1}
	got := []float64{q.At(0, 0), q.At(0, 1), q.At(1, 0), q.At(1, 1)}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("surface mismatch (-want +got):\n%s", diff)
	}

	m := surfaceMemberships(q)
	total := 2 + math.Exp(-1)
	if diff := cmp.Diff(&Memberships{
		AA: []float64{1 / total},
		AB: []float64{math.Exp(-1) / total},
		BB: []float64{1 / total},
	}, m, approx); diff != "" {
		t.Errorf("memberships mismatch (-want +got):\n%s", diff)
	}
}

func threeClusters() Input {
	contrast := make([]float64, 0, 20)
	for i := 0; i < 7; i++ {
		contrast = append(contrast, 0.66)
	}
	for i := 0; i < 6; i++ {
		contrast = append(contrast, 0)
	}
	for i := 0; i < 7; i++ {
		contrast = append(contrast, -0.66)
	}
	return Input{Contrast: contrast}
}

func TestIntegrate(t *testing.T) {
	cfg := DefaultConfig()
	in := threeClusters()
	b := NewBins(&in, &cfg)
	q := integrate(b, &cfg, &cfg.Prior)
	m := surfaceMemberships(q)
	if q.Len() != b.Len() {
		t.Errorf("surface of size %v for %v bins", q.Len(), b.Len())
	}
	if len(m.AA) != b.Len()-1 {
		t.Fatalf("%v memberships for %v bins", len(m.AA), b.Len()-1)
	}
	for l := range m.AA {
		if sum := m.AA[l] + m.AB[l] + m.BB[l]; math.Abs(sum-1) > 1e-9 {
			t.Errorf("memberships of bin %v sum to %v", l+1, sum)
		}
		var want Genotype
		switch {
		case l < 7:
			want = BB
		case l < 13:
			want = AB
		default:
			want = AA
		}
		if p := m.Of(want)[l]; p < 0.99 {
			t.Errorf("bin %v: %v membership %v", l+1, want, p)
		}
	}
}

func TestIntegrateSingleCopy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CopyNumber = 1
	in := threeClusters()
	b := NewBins(&in, &cfg)
	m := surfaceMemberships(integrate(b, &cfg, &cfg.Prior))
	for l, p := range m.AB {
		if p > 1e-9 {
			t.Errorf("bin %v has AB membership %v with a single copy", l+1, p)
		}
	}
}

func TestSeparation(t *testing.T) {
	if s := separation(1, -1, 1, 1, math.Inf(1)); math.Abs(s-2) > 1e-12 {
		t.Errorf("unsaturated separation %v, want 2", s)
	}
	if s := separation(100, -100, 1, 1, 16); s >= 16 {
		t.Errorf("separation %v exceeds its saturation", s)
	}
}
