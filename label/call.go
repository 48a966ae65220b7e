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

// callFrom picks the genotype with the highest probability. Ties go to BB,
// then to AB. The confidence is 1 minus the winning probability.
func callFrom(p [3]float64) (Genotype, float64) {
	call, best := BB, p[BB]
	if p[AB] > best {
		call, best = AB, p[AB]
	}
	if p[AA] > best {
		call, best = AA, p[AA]
	}
	return call, clamp01(1 - best)
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

func normalize(p [3]float64) [3]float64 {
	sum := p[AA] + p[AB] + p[BB]
	p[AA] /= sum
	p[AB] /= sum
	p[BB] /= sum
	return p
}

// fromLosses turns per-genotype losses into relative probabilities, using
// the best loss as reference. AB is excluded when hets are impossible. The
// best loss is returned as well.
func fromLosses(loss [3]float64, hets bool) (p [3]float64, best float64) {
	best = loss[AA]
	if hets && loss[AB] < best {
		best = loss[AB]
	}
	if loss[BB] < best {
		best = loss[BB]
	}
	for g := range loss {
		p[g] = math.Exp(-(loss[g] - best))
	}
	if !hets {
		p[AB] = 0
	}
	return p, best
}

func (r *Result) set(s int, p [3]float64) {
	r.Probabilities[s] = p
	r.Calls[s], r.Confidences[s] = callFrom(p)
}

// labelCalls calls every sample from the memberships of its bin.
func labelCalls(r *Result, b *Bins, m *Memberships, cfg *Config) {
	var perSample [3][]float64
	for g := AA; g <= BB; g++ {
		perSample[g] = b.Expand(m.Of(g))
	}
	for pos, s := range b.Order {
		p := [3]float64{AA: perSample[AA][pos], AB: perSample[AB][pos], BB: perSample[BB][pos]}
		if cfg.CopyNumber < 2 {
			p[AB] = 0
			p = normalize(p)
		}
		r.set(s, p)
	}
}

// posteriorCalls1D calls every sample from the contrast Gaussians of the
// posterior. With a mixture penalty, rare clusters are penalized by
// their center weight.
func posteriorCalls1D(r *Result, in *Input, cfg *Config, post *Distribution) {
	var lfreq [3]float64
	if cfg.Mix != NoMix {
		for g := AA; g <= BB; g++ {
			lfreq[g] = -math.Log(post.Cluster(g).K)
		}
	}
	hets := cfg.CopyNumber > 1
	for s, x := range in.Contrast {
		var loss [3]float64
		for g := AA; g <= BB; g++ {
			c := post.Cluster(g)
			loss[g] = logNormal(x, c.Mean, c.Var)/2 + lfreq[g]
		}
		p, _ := fromLosses(loss, hets)
		r.set(s, normalize(p))
	}
}

// posteriorCalls2D calls every sample from the bivariate Gaussians of the
// posterior. A positive ocean adds a uniform outlier class that lowers
// the confidence of samples far away from every cluster; the reported
// probabilities exclude that class.
func posteriorCalls2D(r *Result, in *Input, cfg *Config, post *Distribution) {
	var lfreq [3]float64
	if cfg.Mix != NoMix {
		total := math.Log(post.AA.K + post.BB.K + post.AB.K)
		for g := AA; g <= BB; g++ {
			lfreq[g] = -math.Log(post.Cluster(g).K) + total
		}
	}
	hets := cfg.CopyNumber > 1
	for s, x := range in.Contrast {
		y := valueAt(in.Strength, s)
		var loss [3]float64
		for g := AA; g <= BB; g++ {
			loss[g] = logTwoNormal(x, y, post.Cluster(g), cfg.InflatePRA) + lfreq[g]
		}
		p, best := fromLosses(loss, hets)
		ocean := cfg.Ocean * math.Exp(best)
		sum := p[AA] + p[AB] + p[BB] + ocean
		withOcean := [3]float64{p[AA] / sum, p[AB] / sum, p[BB] / sum}
		r.Probabilities[s] = normalize(p)
		r.Calls[s], r.Confidences[s] = callFrom(withOcean)
	}
}
