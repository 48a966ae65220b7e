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

package internal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseOptionalFloat parses a measurement that may be missing. Empty
// fields, NA and nan are missing, in which case ok is false.
func ParseOptionalFloat(s string) (value float64, ok bool, err error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan":
		return math.NaN(), false, nil
	}
	value, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), false, err
	}
	if math.IsNaN(value) {
		return value, false, nil
	}
	return value, true, nil
}

// FormatFloat appends the shortest representation of v that parses back
// to the same value.
func FormatFloat(buf []byte, v float64) []byte {
	if math.IsNaN(v) {
		return append(buf, "NA"...)
	}
	return strconv.AppendFloat(buf, v, 'g', -1, 64)
}

// ParseKeyValue splits NAME=VALUE.
func ParseKeyValue(s string) (key, value string, err error) {
	i := strings.IndexByte(s, '=')
	if i <= 0 {
		return "", "", fmt.Errorf("expected NAME=VALUE, got %q", s)
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), nil
}
