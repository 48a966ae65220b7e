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

// Memberships holds, for every real bin in contrast order, the
// probability that its samples belong to each genotype.
type Memberships struct {
	AA, AB, BB []float64
}

// Of returns the membership probabilities of genotype g.
func (m *Memberships) Of(g Genotype) []float64 {
	switch g {
	case AA:
		return m.AA
	case AB:
		return m.AB
	case BB:
		return m.BB
	default:
		return nil
	}
}

type prefixSums struct {
	// forward sums over bins 0..i, used for the BB segment
	nd, dd, ddx []float64
	// backward sums over bins after j, used for the AA segment
	nc, cc, ccx []float64
	// hint contradictions
	notBB, notAB, notAA []float64
}

func newPrefixSums(b *Bins) *prefixSums {
	p := &prefixSums{}
	p.nd = linalg.CumSum(nil, b.column(func(bin *Bin) float64 { return bin.N }))
	p.nc = linalg.ReverseCumSum(nil, p.nd)
	p.dd = linalg.CumSum(nil, b.column(func(bin *Bin) float64 { return bin.Sum }))
	p.cc = linalg.ReverseCumSum(nil, p.dd)
	p.ddx = linalg.CumSum(nil, b.column(func(bin *Bin) float64 { return bin.SumSq }))
	p.ccx = linalg.ReverseCumSum(nil, p.ddx)
	p.notBB = linalg.CumSum(nil, b.column(func(bin *Bin) float64 { return bin.NotBB }))
	p.notAB = linalg.CumSum(nil, b.column(func(bin *Bin) float64 { return bin.NotAB }))
	p.notAA = linalg.ReverseCumSum(nil, linalg.CumSum(nil, b.column(func(bin *Bin) float64 { return bin.NotAA })))
	return p
}

// addPartitionPenalties adds the terms that only depend on the segment
// sizes and hints of a partition.
func addPartitionPenalties(q *linalg.Surface, p *prefixSums, cfg *Config, prior *Distribution, ns int) {
	zs := q.Len()
	if cfg.CopyNumber < 2 {
		for i := 0; i < zs; i++ {
			for j := i + 1; j < zs; j++ {
				q.Add(i, j, float64(ns)*1000)
			}
		}
	}
	if cfg.Hints {
		for i := 0; i < zs; i++ {
			for j := i; j < zs; j++ {
				q.Add(i, j, p.notBB[i]+p.notAA[j]+(p.notAB[j]-p.notAB[i]))
			}
		}
	}
	if cfg.Mix != NoMix {
		for i := 0; i < zs; i++ {
			for j := i; j < zs; j++ {
				aa, bb, ab := p.nc[j], p.nd[i], p.nd[j]-p.nd[i]
				switch cfg.Mix {
				case ObservedMix:
					q.Add(i, j, mixturePenalty(aa, bb, ab, aa, bb, ab, cfg.SafetyFrequency))
				case PriorMix:
					q.Add(i, j, mixturePenalty(aa+prior.AA.K, bb+prior.BB.K, ab+prior.AB.K, aa, bb, ab, cfg.SafetyFrequency))
				case HardyWeinberg:
					q.Add(i, j, hardyWeinbergPenalty(aa, bb, ab, 0.5*cfg.SafetyFrequency))
				}
			}
		}
	}
	if cfg.BIC > 0 {
		// Partitions with empty segments occur more than once, so they
		// get the complexity penalty subtracted once or twice.
		bic := cfg.BIC * math.Log(float64(ns))
		for i := 0; i < zs; i++ {
			q.Add(i, i, -bic)
			q.Add(0, i, -bic)
			q.Add(i, zs-1, -bic)
			for j := i; j < zs; j++ {
				q.Add(i, j, 3*bic)
			}
		}
	}
}

func separation(m1, m2, v1, v2, threshold float64) float64 {
	fld := (m1 - m2) * (m1 - m2) / (v1 + v2)
	return fld / (1 + fld/threshold)
}

// integrate evaluates every partition (i, j) of the bins into BB (bins
// 1..i), AB (bins i+1..j) and AA (bins after j), and returns the surface
// of relative partition probabilities.
func integrate(b *Bins, cfg *Config, prior *Distribution) *linalg.Surface {
	zs := b.Len()
	p := newPrefixSums(b)
	ns := int(math.Floor(p.nd[zs-1] + 0.00001))
	q := linalg.NewSurface(zs)
	addPartitionPenalties(q, p, cfg, prior, ns)

	sys := newConjugateSystem(prior)
	aa, ab, bb := &prior.AA, &prior.AB, &prior.BB
	for i := 0; i < zs; i++ {
		for j := i; j < zs; j++ {
			nc, sc, ssc := p.nc[j], p.cc[j], p.ccx[j]
			nd, sd, ssd := p.nd[i], p.dd[i], p.ddx[i]
			nh, sh, ssh := p.nd[j]-p.nd[i], p.dd[j]-p.dd[i], p.ddx[j]-p.ddx[i]

			n := linalg.Vec3{nc, nh, nd}
			m := sys.means(n, linalg.Vec3{sc, sh, sd})
			if cfg.Shell == IsotonicShell {
				m = isotonicMeans(m, n, prior, cfg.ShellBarrier)
			}
			mc, mh, md := m[AA], m[AB], m[BB]
			vc := posteriorVariance(aa, ssc, sc, nc, mc)
			vd := posteriorVariance(bb, ssd, sd, nd, md)
			vh := posteriorVariance(ab, ssh, sh, nh, mh)
			if cfg.CommonVariance {
				v := commonVariance(linalg.Vec3{vc, vh, vd}, linalg.Vec3{nc + aa.V, nh + ab.V, nd + bb.V}, cfg.Lambda)
				vc, vh, vd = v[AA], v[AB], v[BB]
			}

			l := q.At(i, j)
			l += logPosterior(ssd, md, sd, nd, vd)
			l += logPosterior(ssh, mh, sh, nh, vh)
			l += logPosterior(ssc, mc, sc, nc, vc)
			l += logNormal(bb.Mean, md, sys.meanVariance(BB))
			l += logNormal(ab.Mean, mh, sys.meanVariance(AB))
			l += logNormal(aa.Mean, mc, sys.meanVariance(AA))
			l += logInverseGamma(bb.Var, vd, bb.V)
			l += logInverseGamma(ab.Var, vh, ab.V)
			l += logInverseGamma(aa.Var, vc, aa.V)
			l /= 2

			switch cfg.Shell {
			case PairShell:
				l += float64(ns) * pairShell(md, mc, mh, cfg.ShellBarrier)
			case HomShell:
				l += float64(ns) * homShell(mc, md, cfg.ShellBarrier)
			}
			if cfg.CSepPen > 0 {
				dh := separation(md, mh, vd, vh, cfg.CSepThr) * (nd + nh)
				hc := separation(mh, mc, vh, vc, cfg.CSepThr) * (nh + nc)
				dc := separation(md, mc, vd, vc, 2*cfg.CSepThr) * (nd + nc)
				l -= cfg.CSepPen * (dh + hc + dc)
			}
			q.Set(i, j, l)
		}
	}
	relativeProbabilities(q)
	return q
}

// relativeProbabilities turns the log-likelihood surface into relative
// probabilities with a maximum of 1. Cells with i > j become 0.
func relativeProbabilities(q *linalg.Surface) {
	zs := q.Len()
	qmin := q.MinUpper()
	for i := 0; i < zs; i++ {
		row := q.Row(i)
		for j := range row {
			if j < i {
				row[j] = 0
			} else {
				row[j] = math.Exp(qmin - row[j])
			}
		}
	}
}

// surfaceMemberships marginalizes the partition probabilities: a sample
// in real bin l+1 is AA in every partition with j <= l, and BB in every
// partition with i > l.
func surfaceMemberships(q *linalg.Surface) *Memberships {
	zs := q.Len()
	total := q.Sum()
	aa := linalg.CumSum(nil, q.ColSums())
	notBB := linalg.CumSum(nil, q.RowSums())
	m := &Memberships{
		AA: make([]float64, zs-1),
		AB: make([]float64, zs-1),
		BB: make([]float64, zs-1),
	}
	for l := 0; l < zs-1; l++ {
		bb := total - notBB[l]
		ab := total - bb - aa[l]
		m.AA[l] = aa[l] / total
		m.AB[l] = ab / total
		m.BB[l] = bb / total
	}
	return m
}
