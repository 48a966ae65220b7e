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

	"github.com/exascience/ellabel/linalg"
)

// A Bin accumulates the samples of a contiguous contrast range. The
// NotAA, NotAB and NotBB fields hold the penalty-weighted number of hints
// in the bin that contradict the respective genotype.
type Bin struct {
	N, Sum, SumSq       float64
	YSum, YSumSq, XYSum float64
	NotAA, NotAB, NotBB float64
}

// Bins holds the binned, contrast-sorted samples of one marker. Data[0]
// is an empty sentinel, so that Data[1:] are the real bins and prefix
// sums over Data start at zero. Order maps sorted positions to sample
// indices.
type Bins struct {
	Data  []Bin
	Order []int
}

func valueAt(values []float64, i int) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[i]
}

// NewBins sorts the samples by contrast and assigns them to bins. With
// cfg.Bins == 0, or fewer samples than bins, every sample gets its own
// bin. Otherwise a sample opens a new bin when it lies beyond the current
// bin's first value plus range/(cfg.Bins+1).
func NewBins(in *Input, cfg *Config) *Bins {
	n := len(in.Contrast)
	order := linalg.Order(in.Contrast)
	b := &Bins{
		Data:  make([]Bin, 1, n+1),
		Order: order,
	}
	if n == 0 {
		return b
	}
	first, last := in.Contrast[order[0]], in.Contrast[order[n-1]]
	delta := (last - first) / float64(cfg.Bins+1)
	boundary := first - 1
	penalty := cfg.ContradictionPenalty
	var bin *Bin
	for _, s := range order {
		x := in.Contrast[s]
		if x > boundary || cfg.Bins == 0 || n < cfg.Bins {
			b.Data = append(b.Data, Bin{})
			bin = &b.Data[len(b.Data)-1]
			boundary = x + delta
		}
		y := valueAt(in.Strength, s)
		bin.N++
		bin.Sum += x
		bin.SumSq += x * x
		bin.YSum += y
		bin.YSumSq += y * y
		bin.XYSum += x * y
		hint := NoCall
		if len(in.Hints) > 0 {
			hint = in.Hints[s]
		}
		switch hint {
		case AA:
			if !cfg.HintsFlippable {
				bin.NotBB += penalty
			}
			bin.NotAB += penalty
		case AB:
			bin.NotBB += penalty
			bin.NotAA += penalty
		case BB:
			bin.NotAB += penalty
			if !cfg.HintsFlippable {
				bin.NotAA += penalty
			}
		}
		bin.NotAB += valueAt(in.HetWeight, s)
	}
	return b
}

// Len returns the number of bins including the sentinel.
func (b *Bins) Len() int {
	return len(b.Data)
}

// Samples returns the number of binned samples.
func (b *Bins) Samples() int {
	return len(b.Order)
}

func (b *Bins) column(field func(*Bin) float64) []float64 {
	col := make([]float64, len(b.Data))
	for i := range b.Data {
		col[i] = field(&b.Data[i])
	}
	return col
}

// Expand turns one value per real bin into one value per sorted sample.
func (b *Bins) Expand(perBin []float64) []float64 {
	result := make([]float64, 0, b.Samples())
	for i, v := range perBin {
		count := int(math.Floor(b.Data[i+1].N + 0.0001))
		for c := 0; c < count; c++ {
			result = append(result, v)
		}
	}
	return result
}

// WithinVariance returns the contrast variance within every bin,
// including the sentinel. Empty bins yield NaN.
func (b *Bins) WithinVariance() []float64 {
	result := make([]float64, len(b.Data))
	for i := range b.Data {
		bin := &b.Data[i]
		if bin.N == 0 {
			result[i] = math.NaN()
			continue
		}
		mean := bin.Sum / bin.N
		result[i] = math.Max(bin.SumSq/bin.N-mean*mean, 0)
	}
	return result
}

// MedianWithinVariance returns the median of the within-bin variances,
// ignoring empty bins.
func (b *Bins) MedianWithinVariance() float64 {
	return linalg.Median(b.WithinVariance())
}
