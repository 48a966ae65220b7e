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

package markers

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/exascience/ellabel/internal"
	"github.com/exascience/ellabel/label"
)

// SimulationParameters describe synthetic markers.
type SimulationParameters struct {
	Samples int
	// Missing is the probability that a sample is not observed.
	Missing float64
	// Spread is the standard deviation of the contrast within a cluster.
	Spread float64
	// Centers are the contrast centers of AA, AB and BB.
	Centers [3]float64
}

// DefaultSimulationParameters returns clusters that match the default
// prior.
func DefaultSimulationParameters() SimulationParameters {
	return SimulationParameters{
		Samples: 100,
		Spread:  0.07,
		Centers: [3]float64{0.66, 0, -0.66},
	}
}

/*
Simulate draws a marker with genotypes in Hardy-Weinberg equilibrium at a
random allele frequency. It also returns the true genotypes, so that
calls can be compared against them.
*/
func Simulate(rnd *internal.Rand, name string, params SimulationParameters) (*Marker, []label.Genotype) {
	n := params.Samples
	m := &Marker{
		Name:     name,
		Contrast: make([]float64, n),
		Strength: make([]float64, n),
		Observed: bitset.New(uint(n)),
	}
	truth := make([]label.Genotype, n)
	p := 0.05 + 0.9*rnd.Float64()
	for i := 0; i < n; i++ {
		g := label.BB
		if rnd.Float64() < p {
			g--
		}
		if rnd.Float64() < p {
			g--
		}
		truth[i] = g
		if rnd.Float64() < params.Missing {
			m.Contrast[i], m.Strength[i] = math.NaN(), math.NaN()
			continue
		}
		m.Observed.Set(uint(i))
		m.Contrast[i] = params.Centers[g] + params.Spread*rnd.NormFloat64()
		m.Strength[i] = 9 + 0.2*rnd.NormFloat64() - 0.3*math.Abs(m.Contrast[i])
	}
	return m, truth
}

// SimulatedName returns the name of the i-th simulated marker.
func SimulatedName(i int) string {
	return fmt.Sprintf("sim%06d", i)
}
