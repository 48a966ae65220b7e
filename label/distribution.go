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

// A Cluster describes the distribution of one genotype. Mean and Var
// describe the contrast dimension, YMean, YVar and XYCov the strength
// dimension and its covariance with contrast. K and V are the weights of
// the center and of the variances, expressed in pseudo-observations.
type Cluster struct {
	Mean, Var          float64
	K, V               float64
	YMean, YVar, XYCov float64
}

// A Distribution holds the three genotype clusters and the
// cross-cluster couplings of their centers, in pseudo-observations: XAH,
// XAB and XHB couple the contrast centers of AA-AB, AA-BB and AB-BB, and
// YAH, YAB and YHB do the same for the strength centers.
type Distribution struct {
	AA, AB, BB    Cluster
	XAH, XAB, XHB float64
	YAH, YAB, YHB float64
}

// DefaultDistribution returns the generic prior: homozygous clusters at
// +-0.66 with a tight center, and a weakly anchored heterozygous cluster
// at 0.
func DefaultDistribution() Distribution {
	return Distribution{
		AA: Cluster{Mean: 0.66, Var: 0.005, K: 4, V: 10, YMean: 9, YVar: 0.1},
		AB: Cluster{Mean: 0, Var: 0.01, K: 0.2, V: 10, YMean: 9, YVar: 0.1},
		BB: Cluster{Mean: -0.66, Var: 0.005, K: 4, V: 10, YMean: 9, YVar: 0.1},
	}
}

// Cluster returns the cluster for a called genotype, or nil.
func (d *Distribution) Cluster(g Genotype) *Cluster {
	switch g {
	case AA:
		return &d.AA
	case AB:
		return &d.AB
	case BB:
		return &d.BB
	default:
		return nil
	}
}

// wobbled caps the center weights at 1/wobble, so that the clusters of a
// new experiment can move away from a prior that was estimated from much
// data.
func (d Distribution) wobbled(wobble float64) Distribution {
	limit := 1 / wobble
	d.AA.K = math.Min(d.AA.K, limit)
	d.AB.K = math.Min(d.AB.K, limit)
	d.BB.K = math.Min(d.BB.K, limit)
	return d
}
