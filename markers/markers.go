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

// Package markers reads marker tables, writes call tables, and labels
// the markers of a table in parallel.
package markers

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/exascience/ellabel/internal"
	"github.com/exascience/ellabel/label"
)

const (
	// MarkersHeader is the first line of a marker table.
	MarkersHeader = "# ellabel markers version 1.0"

	// CallsHeader is the first line of a call table.
	CallsHeader = "# ellabel calls version 1.0"
)

/*
A Marker is one line of a marker table: the name of the marker, followed
by tab-separated columns of comma-separated per-sample values. Contrast
is required; strength, hints and het weights are optional, but a column
that is present has a value for every sample.

Observed marks the samples that can be clustered. A sample is missing
when its contrast is missing, or when its strength is missing in a table
that has strengths.
*/
type Marker struct {
	Name      string
	Contrast  []float64
	Strength  []float64
	Hints     []label.Genotype
	HetWeight []float64
	Observed  *bitset.BitSet
}

// Samples returns the number of samples of the marker, observed or not.
func (m *Marker) Samples() int {
	return len(m.Contrast)
}

// Missing returns the number of samples that are not observed.
func (m *Marker) Missing() int {
	return m.Samples() - int(m.Observed.Count())
}

func parseValues(field string, values []float64, observed *bitset.BitSet) ([]float64, error) {
	for i, s := range strings.Split(field, ",") {
		v, ok, err := internal.ParseOptionalFloat(s)
		if err != nil {
			return nil, fmt.Errorf("value %v: %w", i+1, err)
		}
		values = append(values, v)
		if !ok && observed != nil {
			observed.Clear(uint(i))
		}
	}
	return values, nil
}

// ParseMarker parses one line of a marker table.
func ParseMarker(line string) (*Marker, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < 2 || len(fields) > 5 {
		return nil, fmt.Errorf("expected 2 to 5 tab-separated fields, got %v", len(fields))
	}
	m := &Marker{Name: fields[0]}
	if m.Name == "" {
		return nil, errors.New("missing marker name")
	}
	n := strings.Count(fields[1], ",") + 1
	m.Observed = bitset.New(uint(n)).Complement()
	var err error
	if m.Contrast, err = parseValues(fields[1], make([]float64, 0, n), m.Observed); err != nil {
		return nil, fmt.Errorf("contrast of %v: %w", m.Name, err)
	}
	if len(fields) > 2 && fields[2] != "" {
		if m.Strength, err = parseValues(fields[2], make([]float64, 0, n), m.Observed); err != nil {
			return nil, fmt.Errorf("strength of %v: %w", m.Name, err)
		}
		if len(m.Strength) != n {
			return nil, fmt.Errorf("%v: %v strength values for %v samples", m.Name, len(m.Strength), n)
		}
	}
	if len(fields) > 3 && fields[3] != "" {
		hints := strings.Split(fields[3], ",")
		if len(hints) != n {
			return nil, fmt.Errorf("%v: %v hints for %v samples", m.Name, len(hints), n)
		}
		m.Hints = make([]label.Genotype, n)
		for i, s := range hints {
			if m.Hints[i], err = label.ParseGenotype(s); err != nil {
				return nil, fmt.Errorf("hint %v of %v: %w", i+1, m.Name, err)
			}
		}
	}
	if len(fields) > 4 && fields[4] != "" {
		if m.HetWeight, err = parseValues(fields[4], make([]float64, 0, n), nil); err != nil {
			return nil, fmt.Errorf("het weights of %v: %w", m.Name, err)
		}
		if len(m.HetWeight) != n {
			return nil, fmt.Errorf("%v: %v het weights for %v samples", m.Name, len(m.HetWeight), n)
		}
		for i, w := range m.HetWeight {
			if math.IsNaN(w) {
				m.HetWeight[i] = 0
			}
		}
	}
	return m, nil
}

func compress(values []float64, observed *bitset.BitSet, reserve func(int) []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	result := reserve(int(observed.Count()))[:0]
	for i, ok := observed.NextSet(0); ok; i, ok = observed.NextSet(i + 1) {
		result = append(result, values[i])
	}
	return result
}

func makeFloats(n int) []float64 {
	return make([]float64, n)
}

// Input returns the labeling input of the observed samples.
func (m *Marker) Input() label.Input {
	return m.input(makeFloats)
}

func (m *Marker) input(reserve func(int) []float64) label.Input {
	in := label.Input{
		Contrast:  compress(m.Contrast, m.Observed, reserve),
		Strength:  compress(m.Strength, m.Observed, reserve),
		HetWeight: compress(m.HetWeight, m.Observed, reserve),
	}
	if len(m.Hints) > 0 {
		in.Hints = make([]label.Genotype, 0, m.Observed.Count())
		for i, ok := m.Observed.NextSet(0); ok; i, ok = m.Observed.NextSet(i + 1) {
			in.Hints = append(in.Hints, m.Hints[i])
		}
	}
	return in
}

// Expand maps the result of labeling the observed samples back to all
// samples. Missing samples are not called and get confidence 1.
func (m *Marker) Expand(result *label.Result) (calls []label.Genotype, confidences []float64) {
	n := m.Samples()
	calls = make([]label.Genotype, n)
	confidences = make([]float64, n)
	next := 0
	for i := 0; i < n; i++ {
		if m.Observed.Test(uint(i)) {
			calls[i] = result.Calls[next]
			confidences[i] = result.Confidences[next]
			next++
		} else {
			calls[i] = label.NoCall
			confidences[i] = 1
		}
	}
	return calls, confidences
}

func appendValues(buf []byte, values []float64) []byte {
	for i, v := range values {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = internal.FormatFloat(buf, v)
	}
	return buf
}

// AppendMarker appends m as a line of a marker table to buf.
func AppendMarker(buf []byte, m *Marker) []byte {
	buf = append(buf, m.Name...)
	buf = append(buf, '\t')
	buf = appendValues(buf, m.Contrast)
	columns := 1
	switch {
	case len(m.HetWeight) > 0:
		columns = 4
	case len(m.Hints) > 0:
		columns = 3
	case len(m.Strength) > 0:
		columns = 2
	}
	if columns >= 2 {
		buf = append(buf, '\t')
		buf = appendValues(buf, m.Strength)
	}
	if columns >= 3 {
		buf = append(buf, '\t')
		for i, h := range m.Hints {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, h.String()...)
		}
	}
	if columns >= 4 {
		buf = append(buf, '\t')
		buf = appendValues(buf, m.HetWeight)
	}
	return append(buf, '\n')
}

// AppendCalls appends a line of a call table to buf.
func AppendCalls(buf []byte, name string, calls []label.Genotype, confidences []float64) []byte {
	buf = append(buf, name...)
	buf = append(buf, '\t')
	for i, c := range calls {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c.String()...)
	}
	buf = append(buf, '\t')
	buf = appendValues(buf, confidences)
	return append(buf, '\n')
}

// ParseCalls parses one line of a call table.
func ParseCalls(line string) (name string, calls []label.Genotype, confidences []float64, err error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) != 3 {
		return "", nil, nil, fmt.Errorf("expected 3 tab-separated fields, got %v", len(fields))
	}
	name = fields[0]
	for _, s := range strings.Split(fields[1], ",") {
		g, err := label.ParseGenotype(s)
		if err != nil {
			return "", nil, nil, fmt.Errorf("calls of %v: %w", name, err)
		}
		calls = append(calls, g)
	}
	if confidences, err = parseValues(fields[2], make([]float64, 0, len(calls)), nil); err != nil {
		return "", nil, nil, fmt.Errorf("confidences of %v: %w", name, err)
	}
	if len(confidences) != len(calls) {
		return "", nil, nil, fmt.Errorf("%v: %v confidences for %v calls", name, len(confidences), len(calls))
	}
	return name, calls, confidences, nil
}
