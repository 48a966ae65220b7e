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

package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/exascience/ellabel/internal"
	"github.com/exascience/ellabel/logger"
	"github.com/exascience/ellabel/markers"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SimulateHelp is the help string for this command.
const SimulateHelp = "\nsimulate parameters:\n" +
	"ellabel simulate markers-file\n" +
	"[--markers nr]\n" +
	"[--samples nr]\n" +
	"[--missing fraction]\n" +
	"[--spread sd]\n" +
	"[--seed nr]\n" +
	"[--truth calls-file]\n" +
	"[--compression-level nr]\n" +
	"[--log-path path]\n" +
	"[--log-level level]\n"

func simulate(w, truth io.Writer, nrOfMarkers int, seed int64, params markers.SimulationParameters) error {
	if _, err := fmt.Fprintln(w, markers.MarkersHeader); err != nil {
		return err
	}
	if truth != nil {
		if err := markers.WriteHeader(truth, uuid.New()); err != nil {
			return err
		}
	}
	rnd := internal.NewRand(seed)
	certain := make([]float64, params.Samples)
	buf := internal.ReserveByteBuffer()
	defer func() {
		internal.ReleaseByteBuffer(buf)
	}()
	for i := 0; i < nrOfMarkers; i++ {
		m, genotypes := markers.Simulate(rnd, markers.SimulatedName(i), params)
		buf = markers.AppendMarker(buf[:0], m)
		if _, err := w.Write(buf); err != nil {
			return err
		}
		if truth != nil {
			buf = markers.AppendCalls(buf[:0], m.Name, genotypes, certain)
			if _, err := truth.Write(buf); err != nil {
				return err
			}
		}
	}
	return nil
}

// Simulate implements the ellabel simulate command.
func Simulate() (err error) {
	var (
		nrOfMarkers, level int
		seed               int64
		truthFile          string
		logPath, logLevel  string
	)
	params := markers.DefaultSimulationParameters()

	var flags flag.FlagSet

	flags.IntVar(&nrOfMarkers, "markers", 1000, "number of markers")
	flags.IntVar(&params.Samples, "samples", params.Samples, "number of samples per marker")
	flags.Float64Var(&params.Missing, "missing", params.Missing, "probability that a sample is not observed")
	flags.Float64Var(&params.Spread, "spread", params.Spread, "standard deviation of the contrast within a cluster")
	flags.Int64Var(&seed, "seed", time.Now().UnixNano(), "seed of the random number generator")
	flags.StringVar(&truthFile, "truth", "", "write the true genotypes to the specified call table")
	flags.IntVar(&level, "compression-level", 5, "compression level for .gz and .bgz output")
	flags.StringVar(&logPath, "log-path", os.Getenv(envLogPath), "write log files to the specified directory")
	flags.StringVar(&logLevel, "log-level", "info", "minimum level of log messages")

	parseFlags(&flags, 3, SimulateHelp)

	output := getFilename(os.Args[2], SimulateHelp)

	if err := setLogOutput(logPath, logLevel); err != nil {
		return err
	}

	sanityChecksFailed := false

	if !checkCreate("", output) {
		sanityChecksFailed = true
	}
	if truthFile != "" && !checkCreate("--truth", truthFile) {
		sanityChecksFailed = true
	}
	if nrOfMarkers < 0 || params.Samples < 0 {
		logger.Error("negative number of markers or samples", zap.Int("markers", nrOfMarkers), zap.Int("samples", params.Samples))
		sanityChecksFailed = true
	}
	if params.Missing < 0 || params.Missing > 1 {
		logger.Error("missing fraction out of range", zap.String("parameter", "--missing"), zap.Float64("value", params.Missing))
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, SimulateHelp)
		os.Exit(1)
	}

	logger.Info("simulating markers",
		zap.String("file", output),
		zap.Int("markers", nrOfMarkers),
		zap.Int("samples", params.Samples),
		zap.Int64("seed", seed),
	)

	w, closeOutput, err := createOutput(output, level)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := closeOutput(); err == nil {
			err = nerr
		}
	}()
	var truth io.Writer
	if truthFile != "" {
		var closeTruth func() error
		if truth, closeTruth, err = createOutput(truthFile, level); err != nil {
			return err
		}
		defer func() {
			if nerr := closeTruth(); err == nil {
				err = nerr
			}
		}()
	}
	return simulate(w, truth, nrOfMarkers, seed, params)
}
