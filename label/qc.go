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

import "math"

// qcDensity is the unnormalized strength density used by the QC blends.
func qcDensity(residual, variance float64) float64 {
	return math.Exp(-residual*residual/(2*variance)) / 2.51
}

// blendError raises a confidence towards 1 by the odds of an error
// relative to the density of the strength under its cluster.
func blendError(conf, perr, density float64) float64 {
	var w float64
	if density > 0 {
		w = perr / density
	} else {
		w = perr / 0.000001
	}
	return clamp01((conf + w) / (1 + w))
}

// empiricalQC compares every strength against the mean strength of its
// call, with one residual variance shared by all calls.
func empiricalQC(r *Result, strength []float64, perr float64) {
	var sum, num [3]float64
	for g := range num {
		num[g] = 0.00001
	}
	for s, call := range r.Calls {
		if call.Called() {
			sum[call] += strength[s]
			num[call]++
		}
	}
	residual := make([]float64, len(r.Calls))
	var ss float64
	for s, call := range r.Calls {
		if call.Called() {
			residual[s] = strength[s] - sum[call]/num[call]
		}
		ss += residual[s] * residual[s]
	}
	ss = ss/float64(len(residual)) + 0.001
	for s := range r.Confidences {
		r.Confidences[s] = blendError(r.Confidences[s], perr, qcDensity(residual[s], ss))
	}
}

// copyPosterior re-estimates the strength centers of the posterior from
// the calls, shrunk slightly towards the grand mean so that empty clusters
// get a center, together with one common strength variance.
func copyPosterior(r *Result, strength []float64, post *Distribution) {
	const (
		shrinkage  = 0.00001
		vShrinkage = 0.1
		minVar     = 0.1
	)
	var sum, num [3]float64
	for s, call := range r.Calls {
		if call.Called() {
			sum[call] += strength[s]
			num[call]++
		}
	}
	grand := (sum[AA] + sum[AB] + sum[BB]) / (num[AA] + num[AB] + num[BB])
	var mean [3]float64
	for g := range mean {
		mean[g] = (grand*shrinkage + sum[g]) / (num[g] + shrinkage)
	}
	var ss float64
	for s, call := range r.Calls {
		if call.Called() {
			d := strength[s] - mean[call]
			ss += d * d
		}
	}
	ss = (ss + minVar*vShrinkage) / (float64(len(r.Calls)) + vShrinkage)
	for g := AA; g <= BB; g++ {
		c := post.Cluster(g)
		c.YMean = mean[g]
		c.YVar = ss
	}
}

// posteriorQC compares every strength against the posterior strength
// distribution of its call. A strength with a vanishing density gets
// confidence 1.
func posteriorQC(r *Result, strength []float64, perr float64, post *Distribution) {
	for s, call := range r.Calls {
		c := post.Cluster(call)
		if c == nil {
			continue
		}
		density := qcDensity(strength[s]-c.YMean, c.YVar)
		if density > 0 {
			r.Confidences[s] = blendError(r.Confidences[s], perr, density)
		} else {
			r.Confidences[s] = 1
		}
	}
}
