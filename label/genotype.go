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
	"strings"
)

// Genotype is a diploid genotype call. It doubles as the type of reference
// hints, where NoCall means that no hint is available.
type Genotype int8

// The genotypes, in the order used by all per-genotype arrays.
const (
	NoCall Genotype = -1
	AA     Genotype = 0
	AB     Genotype = 1
	BB     Genotype = 2
)

var genotypeNames = [...]string{"AA", "AB", "BB"}

// Called reports whether g is one of AA, AB or BB.
func (g Genotype) Called() bool {
	return g >= AA && g <= BB
}

func (g Genotype) String() string {
	if g.Called() {
		return genotypeNames[g]
	}
	return "NN"
}

// ParseGenotype parses the string forms produced by String as well as the
// numeric codes 0, 1, 2 and -1.
func ParseGenotype(s string) (Genotype, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AA", "0":
		return AA, nil
	case "AB", "1":
		return AB, nil
	case "BB", "2":
		return BB, nil
	case "NN", "-1", "":
		return NoCall, nil
	default:
		return NoCall, fmt.Errorf("invalid genotype %q", s)
	}
}
