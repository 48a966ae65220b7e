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

// Input holds the measurements of one marker, indexed by sample.
// Strength is needed for two-dimensional clustering and for the QC pass;
// Hints and HetWeight may be empty.
type Input struct {
	Contrast  []float64
	Strength  []float64
	Hints     []Genotype
	HetWeight []float64
}

// Result holds the calls of one marker, indexed by sample, together with
// the per-sample genotype probabilities and the posterior distribution.
type Result struct {
	Calls         []Genotype
	Confidences   []float64
	Probabilities [][3]float64
	Posterior     Distribution
	// BinVariance is the median contrast variance within the non-empty
	// bins, or NaN when the samples were not binned.
	BinVariance float64
}

func newResult(n int) *Result {
	return &Result{
		Calls:         make([]Genotype, n),
		Confidences:   make([]float64, n),
		Probabilities: make([][3]float64, n),
		BinVariance:   math.NaN(),
	}
}

// A Labeler labels markers with a fixed configuration. It is safe for
// concurrent use.
type Labeler struct {
	cfg   Config
	prior Distribution
}

// NewLabeler validates cfg and returns a Labeler that uses a copy of it.
func NewLabeler(cfg Config) (*Labeler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Labeler{cfg: cfg, prior: cfg.Prior.wobbled(cfg.Wobble)}, nil
}

// Config returns the configuration of l.
func (l *Labeler) Config() Config {
	return l.cfg
}

func checkFinite(name string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%v of sample %v is not a finite number: %v", name, i, v)
		}
	}
	return nil
}

func (l *Labeler) checkInput(in *Input) error {
	n := len(in.Contrast)
	if err := checkFinite("contrast", in.Contrast); err != nil {
		return err
	}
	needStrength := l.cfg.Dimensions == 2 || l.cfg.CopyQC > 0
	switch {
	case len(in.Strength) == 0 && needStrength && n > 0:
		return fmt.Errorf("strength values required for %v samples", n)
	case len(in.Strength) != 0 && len(in.Strength) != n:
		return fmt.Errorf("%v strength values for %v samples", len(in.Strength), n)
	case len(in.Hints) != 0 && len(in.Hints) != n:
		return fmt.Errorf("%v hints for %v samples", len(in.Hints), n)
	case len(in.HetWeight) != 0 && len(in.HetWeight) != n:
		return fmt.Errorf("%v het weights for %v samples", len(in.HetWeight), n)
	}
	if err := checkFinite("strength", in.Strength); err != nil {
		return err
	}
	for i, h := range in.Hints {
		if h != NoCall && !h.Called() {
			return fmt.Errorf("invalid hint %v for sample %v", int(h), i)
		}
	}
	for i, w := range in.HetWeight {
		if !(w >= 0) || math.IsInf(w, 0) {
			return fmt.Errorf("het weight of sample %v must be a non-negative number: %v", i, w)
		}
	}
	return nil
}

// Label calls the samples of one marker.
//
// Unless the call method is PriorCalls, the samples are binned by
// contrast, all partitions of the bins into BB, AB and AA are weighed by
// their posterior likelihood, and the resulting memberships update the
// prior. The calls then come from either the memberships or the posterior
// clusters. PriorCalls calls directly from the prior.
func (l *Labeler) Label(in Input) (*Result, error) {
	if err := l.checkInput(&in); err != nil {
		return nil, err
	}
	cfg := &l.cfg
	n := len(in.Contrast)
	result := newResult(n)
	result.Posterior = cfg.Prior
	if n == 0 {
		return result, nil
	}

	var (
		bins        *Bins
		memberships *Memberships
	)
	if cfg.CallMethod != PriorCalls {
		bins = NewBins(&in, cfg)
		result.BinVariance = bins.MedianWithinVariance()
		memberships = surfaceMemberships(integrate(bins, cfg, &l.prior))
		if cfg.Dimensions == 2 {
			post, err := posterior2D(bins, memberships, cfg, &l.prior)
			if err != nil {
				return nil, fmt.Errorf("two-dimensional posterior: %w", err)
			}
			result.Posterior = post
		} else {
			result.Posterior = posterior1D(bins, memberships, cfg, &l.prior)
		}
	}

	switch {
	case cfg.CallMethod == LabelCalls:
		labelCalls(result, bins, memberships, cfg)
	case cfg.Dimensions == 2:
		posteriorCalls2D(result, &in, cfg, &result.Posterior)
	default:
		posteriorCalls1D(result, &in, cfg, &result.Posterior)
	}

	if cfg.CopyQC > 0 {
		switch cfg.CopyQCMode {
		case EmpiricalQC:
			if cfg.CallMethod != PriorCalls {
				empiricalQC(result, in.Strength, cfg.CopyQC)
			}
		case PosteriorQC:
			if cfg.CallMethod != PriorCalls {
				copyPosterior(result, in.Strength, &result.Posterior)
			}
			posteriorQC(result, in.Strength, cfg.CopyQC, &result.Posterior)
		}
	}
	return result, nil
}
