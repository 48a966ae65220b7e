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

package markers

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/exascience/ellabel/internal"
	"github.com/exascience/ellabel/label"
	"github.com/exascience/ellabel/logger"
	"github.com/exascience/pargo/pipeline"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minBatchSize = 16
	maxBatchSize = 256
)

// Stats summarizes a run of Process.
type Stats struct {
	Markers int
	Samples int
	Missing int
	NoCalls int
}

func (s *Stats) add(t Stats) {
	s.Markers += t.Markers
	s.Samples += t.Samples
	s.Missing += t.Missing
	s.NoCalls += t.NoCalls
}

type batch struct {
	out   []byte
	stats Stats
}

// ReadHeader consumes the header line of a marker table.
func ReadHeader(input *bufio.Reader) error {
	header, err := input.ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	if strings.TrimRight(header, "\r\n") != MarkersHeader {
		return fmt.Errorf("not an ellabel marker table - invalid header %q", header)
	}
	return nil
}

// WriteHeader writes the header of a call table, including the run id.
func WriteHeader(w io.Writer, runID uuid.UUID) error {
	_, err := fmt.Fprintf(w, "%v\n# run %v\n", CallsHeader, runID)
	return err
}

func labelLine(labeler *label.Labeler, line string, buf []byte) ([]byte, Stats, error) {
	m, err := ParseMarker(line)
	if err != nil {
		return buf, Stats{}, err
	}
	in := m.input(internal.ReserveFloats)
	result, err := labeler.Label(in)
	releaseInput(&in)
	if err != nil {
		return buf, Stats{}, fmt.Errorf("marker %v: %w", m.Name, err)
	}
	calls, confidences := m.Expand(result)
	stats := Stats{Markers: 1, Samples: m.Samples(), Missing: m.Missing()}
	for _, c := range calls {
		if !c.Called() {
			stats.NoCalls++
		}
	}
	if stats.Missing == stats.Samples {
		logger.Debug("marker without observed samples", zap.String("marker", m.Name))
	} else {
		logger.Debug("labeled marker",
			zap.String("marker", m.Name),
			zap.Int("no-calls", stats.NoCalls),
			zap.Float64("median-bin-variance", result.BinVariance),
		)
	}
	return AppendCalls(buf, m.Name, calls, confidences), stats, nil
}

func releaseInput(in *label.Input) {
	for _, values := range [...][]float64{in.Contrast, in.Strength, in.HetWeight} {
		if values != nil {
			internal.ReleaseFloats(values)
		}
	}
}

/*
Process labels every marker of the marker table read from r and writes
the call table to w, in input order. Markers are labeled in parallel;
the labeler must be safe for concurrent use. Empty lines and lines
starting with # after the header are skipped.
*/
func Process(labeler *label.Labeler, r io.Reader, w io.Writer, runID uuid.UUID) (stats Stats, err error) {
	input := bufio.NewReader(r)
	if err = ReadHeader(input); err != nil {
		return stats, err
	}
	if err = WriteHeader(w, runID); err != nil {
		return stats, err
	}
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input))
	p.SetVariableBatchSize(minBatchSize, maxBatchSize)
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			b := &batch{out: internal.ReserveByteBuffer()}
			for _, line := range data.([]string) {
				if line == "" || line[0] == '#' {
					continue
				}
				out, s, err := labelLine(labeler, line, b.out)
				if err != nil {
					p.SetErr(fmt.Errorf("%v, while labeling marker line %v", err, abbreviate(line)))
					return b
				}
				b.out = out
				b.stats.add(s)
			}
			return b
		})),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			b := data.(*batch)
			if _, err := w.Write(b.out); err != nil {
				p.SetErr(fmt.Errorf("%v, while writing calls", err))
			}
			internal.ReleaseByteBuffer(b.out)
			stats.add(b.stats)
			return nil
		})),
	)
	p.Run()
	return stats, p.Err()
}

func abbreviate(line string) string {
	const max = 40
	if len(line) <= max {
		return line
	}
	return line[:max] + "..."
}
