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

/*
Package label implements unsupervised genotype calling for one SNP marker
at a time.

Samples are sorted by contrast and binned. Every split of the bins into
three contiguous segments (BB, AB and AA, from low to high contrast) is
scored by the likelihood of a conjugate Bayesian model with correlated
cluster centers, optionally with penalties for contradicted hints,
implausible genotype frequencies, model complexity and clusters that
are too close together. The relative likelihoods of the splits give every
sample a probability for each genotype, which in turn update the prior
cluster parameters to a posterior.

Calls come either from the split probabilities directly, or from the
posterior clusters, in contrast space only or jointly with strength. An
optional QC pass lowers the confidence of calls whose strength is an
outlier for their cluster.

A minimal use:

	labeler, err := label.NewLabeler(label.DefaultConfig())
	if err != nil {
		return err
	}
	result, err := labeler.Label(label.Input{Contrast: contrast})
*/
package label
