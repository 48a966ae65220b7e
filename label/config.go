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
	"fmt"
	"math"
)

// CallMethod selects how the final calls are made.
type CallMethod int

// The call methods.
const (
	// LabelCalls calls from the partition memberships of the samples.
	LabelCalls CallMethod = iota
	// PosteriorCalls calls from the posterior cluster Gaussians.
	PosteriorCalls
	// PriorCalls skips clustering and calls from the prior, for example
	// for a single sample.
	PriorCalls
)

// ShellMode selects the hard constraint on the cluster centers of a
// partition.
type ShellMode int

// The shell modes.
const (
	NoShell ShellMode = iota
	// HomShell keeps the homozygous centers away from the midline.
	HomShell
	// PairShell enforces a minimum squared distance between centers.
	PairShell
	// IsotonicShell projects the centers onto the order BB < AB < AA,
	// separated by the shell barrier.
	IsotonicShell
)

// MixMode selects the penalty on the genotype frequencies of a partition.
type MixMode int

// The mixture modes.
const (
	NoMix MixMode = iota
	// ObservedMix penalizes the entropy of the observed frequencies.
	ObservedMix
	// PriorMix penalizes the entropy of the frequencies augmented with
	// the prior center weights.
	PriorMix
	// HardyWeinberg penalizes deviations from Hardy-Weinberg equilibrium.
	HardyWeinberg
)

// CopyQCMode selects the strength-based confidence adjustment.
type CopyQCMode int

// The copy QC modes.
const (
	// EmpiricalQC compares strengths against the per-call means.
	EmpiricalQC CopyQCMode = iota
	// PosteriorQC compares strengths against the posterior strength
	// distribution of each cluster.
	PosteriorQC
)

// Config holds the prior and every knob of the labeling algorithm.
type Config struct {
	Prior Distribution

	// CommonVariance blends the cluster variances, with Lambda 0 keeping
	// them independent and 1 sharing them equally.
	CommonVariance bool
	Lambda         float64

	CallMethod   CallMethod
	Shell        ShellMode
	ShellBarrier float64

	// Bins is the number of contrast bins, 0 meaning one sample per bin.
	Bins int

	// CopyNumber 1 disables the heterozygous genotype.
	CopyNumber int

	Hints                bool
	ContradictionPenalty float64
	HintsFlippable       bool

	Mix             MixMode
	SafetyFrequency float64
	BIC             float64

	CSepPen, CSepThr float64

	Wobble float64

	CopyQC     float64
	CopyQCMode CopyQCMode

	// Dimensions is 1 for contrast-only clustering, 2 to also cluster on
	// strength.
	Dimensions int
	Ocean      float64
	InflatePRA float64
	IsoHetY    float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Prior:           DefaultDistribution(),
		CommonVariance:  true,
		Lambda:          1,
		CallMethod:      LabelCalls,
		Shell:           PairShell,
		ShellBarrier:    0.05,
		CopyNumber:      2,
		CSepThr:         16,
		Wobble:          1e-5,
		Dimensions:      1,
		SafetyFrequency: 1,
	}
}

func checkCluster(name string, c *Cluster, dimensions int) error {
	switch {
	case !(c.Var > 0):
		return fmt.Errorf("%v cluster: variance must be positive, got %v", name, c.Var)
	case !(c.K > 0):
		return fmt.Errorf("%v cluster: center weight must be positive, got %v", name, c.K)
	case !(c.V > 0):
		return fmt.Errorf("%v cluster: variance weight must be positive, got %v", name, c.V)
	case math.IsNaN(c.Mean) || math.IsInf(c.Mean, 0):
		return fmt.Errorf("%v cluster: invalid mean %v", name, c.Mean)
	}
	if dimensions == 2 {
		if !(c.YVar > 0) {
			return fmt.Errorf("%v cluster: strength variance must be positive, got %v", name, c.YVar)
		}
		if c.XYCov*c.XYCov >= c.Var*c.YVar {
			return fmt.Errorf("%v cluster: covariance %v exceeds the variances", name, c.XYCov)
		}
	}
	return nil
}

// Validate checks every option against its bounds, and the prior for
// positive variances and center weights.
func (cfg *Config) Validate() error {
	for i := range Options {
		opt := &Options[i]
		if err := opt.check(opt.get(cfg)); err != nil {
			return err
		}
	}
	for _, g := range [...]Genotype{AA, AB, BB} {
		if err := checkCluster(g.String(), cfg.Prior.Cluster(g), cfg.Dimensions); err != nil {
			return err
		}
	}
	return nil
}
