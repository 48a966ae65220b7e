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

// A conjugateSystem holds the parts of the correlated conjugate update
// of the three contrast centers that only depend on the prior. All
// vectors are ordered AA, AB, BB.
type conjugateSystem struct {
	m    linalg.Vec3
	minv linalg.Mat3
	sinv linalg.Mat3
}

func newConjugateSystem(prior *Distribution) *conjugateSystem {
	aa, ab, bb := &prior.AA, &prior.AB, &prior.BB
	return &conjugateSystem{
		m: linalg.Vec3{aa.Mean, ab.Mean, bb.Mean},
		minv: linalg.Sym3(
			aa.K/aa.Var, ab.K/ab.Var, bb.K/bb.Var,
			prior.XAH/math.Sqrt(aa.Var*ab.Var),
			prior.XAB/math.Sqrt(aa.Var*bb.Var),
			prior.XHB/math.Sqrt(ab.Var*bb.Var),
		),
		sinv: linalg.Diag3(1/aa.Var, 1/ab.Var, 1/bb.Var),
	}
}

// means returns (Minv + N*Sinv)^-1 (Sinv*sums + Minv*m) for the given
// counts and sums.
func (s *conjugateSystem) means(counts, sums linalg.Vec3) linalg.Vec3 {
	n := linalg.Diag3(counts[0], counts[1], counts[2])
	ns := n.Mul(&s.sinv)
	lhs := s.minv.Add(&ns)
	inv := lhs.Inverse()
	rhs := s.sinv.MulVec(sums).Add(s.minv.MulVec(s.m))
	return inv.MulVec(rhs)
}

// meanVariance returns 1/Minv for the center of cluster g.
func (s *conjugateSystem) meanVariance(g Genotype) float64 {
	return 1 / s.minv.At(int(g), int(g))
}

// posteriorVariance combines the prior variance, the residual sum of
// squares and the shift of the center away from the prior center.
func posteriorVariance(c *Cluster, sumSq, sum, n, mean float64) float64 {
	v := c.V * c.Var
	v += sumSq - sum*sum/(n+0.0001)
	v += (c.K / (c.K + n)) * n * (mean - c.Mean) * (mean - c.Mean)
	return v / (c.V + n)
}

// commonVariance blends the variances of the three clusters, weighted by
// their effective numbers of observations. A cluster weighs 3-2*lambda
// for itself and lambda for each of the others.
func commonVariance(vars, weights linalg.Vec3, lambda float64) (result linalg.Vec3) {
	var scaled linalg.Vec3
	for g := range vars {
		scaled[g] = vars[g] * weights[g]
	}
	own, other := 3-2*lambda, lambda
	for g := range result {
		var num, den float64
		for _, h := range [...]int{int(BB), int(AA), int(AB)} {
			w := other
			if h == g {
				w = own
			}
			num += w * scaled[h]
			den += w * weights[h]
		}
		result[g] = num / den
	}
	return result
}

// forceIsotonic moves the centers so that bb+delta <= ab and
// ab+delta <= aa, pooling adjacent violators with the given weights. The
// weighted average of the centers is preserved.
func forceIsotonic(bb, ab, aa, wb, wh, wa, delta float64) (float64, float64, float64) {
	gamma := delta * (wb - wa) / (wb + wh + wa)
	bb += delta - gamma
	ab -= gamma
	aa += -delta - gamma
	if bb > ab {
		pooled := (wb*bb + wh*ab) / (wb + wh)
		bb, ab = pooled, pooled
	}
	if ab > aa {
		pooled := (wh*ab + wa*aa) / (wh + wa)
		ab, aa = pooled, pooled
		if bb > ab {
			pooled = (wb*bb + wh*ab + wa*aa) / (wb + wh + wa)
			bb, ab, aa = pooled, pooled, pooled
		}
	}
	bb -= delta - gamma
	ab += gamma
	aa -= -delta - gamma
	return bb, ab, aa
}

// isotonicMeans applies forceIsotonic to the means of a partition with
// n samples per genotype. Each cluster is weighted by its own sample count
// plus its prior center weight.
func isotonicMeans(means, n linalg.Vec3, prior *Distribution, delta float64) linalg.Vec3 {
	var w linalg.Vec3
	for g := AA; g <= BB; g++ {
		w[g] = n[g] + prior.Cluster(g).K
	}
	bb, ab, aa := forceIsotonic(means[BB], means[AB], means[AA], w[BB], w[AB], w[AA], delta)
	return linalg.Vec3{AA: aa, AB: ab, BB: bb}
}

// logPosterior is twice the negative Gaussian log-likelihood of n
// observations with the given sum and sum of squares, up to a constant.
func logPosterior(sumSq, mean, sum, n, variance float64) float64 {
	return (sumSq-2*mean*sum+mean*mean*n)/variance + n*math.Log(variance)
}

func logNormal(m, x, variance float64) float64 {
	return (m-x)*(m-x)/variance + math.Log(variance)
}

func logInverseGamma(priorVar, variance, v float64) float64 {
	return priorVar/variance + (v+1)*math.Log(variance)
}

func logTwoNormal(x, y float64, c *Cluster, inflate float64) float64 {
	up := 1 + inflate/c.K
	dx, dy := x-c.Mean, y-c.YMean
	cs := math.Sqrt(c.Var * c.YVar)
	r := c.XYCov / cs
	z := dx*dx/(up*c.Var) - 2*r*dx*dy/(up*cs) + dy*dy/(up*c.YVar)
	z /= 2 * (1 - r*r)
	return z + math.Log(2*math.Pi*up*cs*math.Sqrt(1-r*r))
}

const shellPenalty = 100

// pairShell penalizes centers whose squared distance is below shell, or
// below 6*shell for the two homs.
func pairShell(bb, aa, ab, shell float64) float64 {
	if (bb-ab)*(bb-ab) < shell || (ab-aa)*(ab-aa) < shell || (bb-aa)*(bb-aa) < 6*shell {
		return shellPenalty
	}
	return 0
}

// homShell penalizes homozygous centers within sqrt(shell) of the
// midline.
func homShell(aa, bb, shell float64) float64 {
	limit := math.Sqrt(shell)
	if aa < limit || bb > -limit {
		return shellPenalty
	}
	return 0
}

// mixturePenalty is the negative log-likelihood of observed cluster sizes
// under the frequencies a, b and c, smoothed with a pseudo-count.
func mixturePenalty(a, b, c, oa, ob, oc, pseudo float64) float64 {
	total := a + b + c + 3*pseudo
	return -(oa*math.Log((a+pseudo)/total) + ob*math.Log((b+pseudo)/total) + oc*math.Log((c+pseudo)/total))
}

// hardyWeinbergPenalty is the negative log-likelihood of hom counts a and
// b and het count c under Hardy-Weinberg equilibrium at the estimated
// allele frequency.
func hardyWeinbergPenalty(a, b, c, pseudo float64) float64 {
	total := 2*a + 2*b + 2*c + 2*pseudo
	p := (2*a + c + pseudo) / total
	q := 1 - p
	return -((2*a+c)*math.Log(p) + (2*b+c)*math.Log(q) + c*math.Ln2)
}
