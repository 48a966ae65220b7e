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

// clusterSums are membership-weighted sums over the bins.
type clusterSums struct {
	n, sum, sumSq       float64
	ySum, ySumSq, xySum float64
}

func weightedSums(b *Bins, weights []float64) (s clusterSums) {
	for i, w := range weights {
		bin := &b.Data[i+1]
		s.n += bin.N * w
		s.sum += bin.Sum * w
		s.sumSq += bin.SumSq * w
		s.ySum += bin.YSum * w
		s.ySumSq += bin.YSumSq * w
		s.xySum += bin.XYSum * w
	}
	return s
}

// posterior1D updates the contrast parameters of the prior with the
// membership-weighted bins. Strength parameters and center couplings are
// carried over from the prior.
func posterior1D(b *Bins, m *Memberships, cfg *Config, prior *Distribution) Distribution {
	c := weightedSums(b, m.AA)
	h := weightedSums(b, m.AB)
	d := weightedSums(b, m.BB)
	aa, ab, bb := &prior.AA, &prior.AB, &prior.BB

	sys := newConjugateSystem(prior)
	n := linalg.Vec3{c.n, h.n, d.n}
	means := sys.means(n, linalg.Vec3{c.sum, h.sum, d.sum})
	if cfg.Shell == IsotonicShell {
		means = isotonicMeans(means, n, prior, cfg.ShellBarrier)
	}
	mc, mh, md := means[AA], means[AB], means[BB]
	vd := posteriorVariance(bb, d.sumSq, d.sum, d.n, md)
	vc := posteriorVariance(aa, c.sumSq, c.sum, c.n, mc)
	vh := posteriorVariance(ab, h.sumSq, h.sum, h.n, mh)
	if cfg.CommonVariance {
		v := commonVariance(linalg.Vec3{vc, vh, vd}, linalg.Vec3{c.n + aa.V, h.n + ab.V, d.n + bb.V}, cfg.Lambda)
		vc, vh, vd = v[AA], v[AB], v[BB]
	}

	post := *prior
	post.AA = Cluster{Mean: mc, Var: vc, K: c.n + aa.K, V: c.n + aa.V, YMean: aa.YMean, YVar: aa.YVar, XYCov: aa.XYCov}
	post.AB = Cluster{Mean: mh, Var: vh, K: h.n + ab.K, V: h.n + ab.V, YMean: ab.YMean, YVar: ab.YVar, XYCov: ab.XYCov}
	post.BB = Cluster{Mean: md, Var: vd, K: d.n + bb.K, V: d.n + bb.V, YMean: bb.YMean, YVar: bb.YVar, XYCov: bb.XYCov}
	return post
}

// posterior2D updates contrast and strength jointly. The six centers are
// the solution of (K+N) mu = K*m0 + sums, where K holds the prior center
// weights and their couplings, ordered (x, y) for AA, AB and BB.
func posterior2D(b *Bins, m *Memberships, cfg *Config, prior *Distribution) (Distribution, error) {
	sums := [3]clusterSums{
		AA: weightedSums(b, m.AA),
		AB: weightedSums(b, m.AB),
		BB: weightedSums(b, m.BB),
	}

	var k, n linalg.Mat6
	var m0, data linalg.Vec6
	for g := AA; g <= BB; g++ {
		c := prior.Cluster(g)
		x, y := 2*int(g), 2*int(g)+1
		k.Set(x, x, c.K)
		k.Set(y, y, c.K)
		n.Set(x, x, sums[g].n)
		n.Set(y, y, sums[g].n)
		m0[x], m0[y] = c.Mean, c.YMean
		data[x], data[y] = sums[g].sum, sums[g].ySum
	}
	k.SetSym(0, 2, prior.XAH)
	k.SetSym(2, 4, prior.XHB)
	k.SetSym(0, 4, prior.XAB)
	k.SetSym(1, 3, prior.YAH)
	k.SetSym(3, 5, prior.YHB)
	k.SetSym(1, 5, prior.YAB)

	lhs := k.Add(&n)
	km := k.MulVec(m0)
	var rhs linalg.Vec6
	for i := range rhs {
		rhs[i] = km[i] + data[i]
	}
	mu, err := lhs.Solve(rhs)
	if err != nil {
		return Distribution{}, err
	}

	post := *prior
	for g := AA; g <= BB; g++ {
		c := post.Cluster(g)
		c.Mean, c.YMean = mu[2*int(g)], mu[2*int(g)+1]
		c.K = sums[g].n + prior.Cluster(g).K
	}
	if cfg.Shell == IsotonicShell {
		post.BB.Mean, post.AB.Mean, post.AA.Mean = forceIsotonic(
			post.BB.Mean, post.AB.Mean, post.AA.Mean,
			post.BB.K, post.AB.K, post.AA.K, cfg.ShellBarrier)
	}
	if cfg.IsoHetY > 0 {
		forceIsoHetY(&post, cfg.IsoHetY)
	}
	for g := AA; g <= BB; g++ {
		twoVariance(post.Cluster(g), &sums[g], prior.Cluster(g))
	}
	if cfg.CommonVariance {
		shrinkVariances(&post, cfg.Lambda)
	}
	return post, nil
}

// forceIsoHetY lifts the het strength center to at least the value
// interpolated from the hom centers at the het contrast center. The hom
// centers move down to compensate; weight is the relative weight of the
// het in this trade.
func forceIsoHetY(post *Distribution, weight float64) {
	aa, ab, bb := &post.AA, &post.AB, &post.BB
	dxhb := ab.Mean - bb.Mean
	dxah := aa.Mean - ab.Mean
	dxab := aa.Mean - bb.Mean
	if dxab == 0 {
		return
	}
	interpolated := (dxhb*aa.YMean + dxah*bb.YMean) / dxab
	if interpolated <= ab.YMean {
		return
	}
	wh, wa, wb := ab.K*weight, aa.K, bb.K
	whom := wa + wb
	target := (interpolated*whom + ab.YMean*wh) / (whom + wh)
	ab.YMean = target
	delta := target - interpolated
	spread := wb*dxhb + wa*dxah
	bb.YMean += delta / (spread / (wa * dxab))
	aa.YMean += delta / (spread / (wb * dxab))
}

// twoVariance computes the 2x2 covariance of one cluster from the prior,
// the weighted residuals, and the shift of the centers.
func twoVariance(post *Cluster, s *clusterSums, prior *Cluster) {
	post.V = prior.V + s.n
	shift := (prior.K * s.n) / (prior.K + s.n)
	dx, dy := post.Mean-prior.Mean, post.YMean-prior.YMean

	post.Var = (prior.V*prior.Var + s.sumSq - s.sum*s.sum/(s.n+0.001) + shift*dx*dx) / post.V
	post.YVar = (prior.V*prior.YVar + s.ySumSq - s.ySum*s.ySum/(s.n+0.001) + shift*dy*dy) / post.V
	post.XYCov = (prior.V*prior.XYCov + s.xySum - s.sum*s.ySum/(s.n+0.001) + shift*dy*dx) / post.V
}

func shrinkCluster(a, b, c *Cluster, lambda float64) Cluster {
	own, other := 3-2*lambda, lambda
	den := own*a.V + other*b.V + other*c.V
	out := *a
	out.Var = (own*a.Var*a.V + other*b.Var*b.V + other*c.Var*c.V) / den
	out.YVar = (own*a.YVar*a.V + other*b.YVar*b.V + other*c.YVar*c.V) / den
	out.XYCov = math.Sqrt(out.Var*out.YVar) * a.XYCov / math.Sqrt(a.Var*a.YVar)
	return out
}

// shrinkVariances moves the cluster variances towards each other while
// keeping the correlation of every cluster.
func shrinkVariances(post *Distribution, lambda float64) {
	aa := shrinkCluster(&post.AA, &post.AB, &post.BB, lambda)
	ab := shrinkCluster(&post.AB, &post.BB, &post.AA, lambda)
	bb := shrinkCluster(&post.BB, &post.AA, &post.AB, lambda)
	post.AA, post.AB, post.BB = aa, ab, bb
}
