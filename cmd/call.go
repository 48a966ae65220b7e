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
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/exascience/ellabel/internal"
	"github.com/exascience/ellabel/label"
	"github.com/exascience/ellabel/logger"
	"github.com/exascience/ellabel/markers"
	"github.com/exascience/ellabel/utils/bgzf"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CallHelp is the help string for this command.
const CallHelp = "\ncall parameters:\n" +
	"ellabel call markers-file calls-file\n" +
	"[--params yaml-file]\n" +
	"[--set name=value[,name=value]...]\n" +
	"[--nr-of-threads nr]\n" +
	"[--compression-level nr]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n" +
	"[--log-level level]\n"

func openInput(filename string) (io.Reader, func() error, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	r, closeReader, err := bgzf.Open(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return r, func() error {
		err := closeReader()
		if nerr := f.Close(); err == nil {
			err = nerr
		}
		return err
	}, nil
}

func createOutput(filename string, level int) (io.Writer, func() error, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, nil, err
	}
	if !bgzf.IsCompressedName(filename) {
		return f, f.Close, nil
	}
	w, err := bgzf.NewWriter(f, level)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return w, func() error {
		err := w.Close()
		if nerr := f.Close(); err == nil {
			err = nerr
		}
		return err
	}, nil
}

func runCall(labeler *label.Labeler, input, output string, level int, runID uuid.UUID) (err error) {
	r, closeInput, err := openInput(input)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := closeInput(); err == nil {
			err = nerr
		}
	}()
	w, closeOutput, err := createOutput(output, level)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := closeOutput(); err == nil {
			err = nerr
		}
	}()
	stats, err := markers.Process(labeler, r, w, runID)
	if err != nil {
		return err
	}
	logger.Info("labeled markers",
		zap.Int("markers", stats.Markers),
		zap.Int("samples", stats.Samples),
		zap.Int("missing", stats.Missing),
		zap.Int("no-calls", stats.NoCalls),
	)
	return nil
}

// Call implements the ellabel call command.
func Call() error {
	var (
		params, settings   string
		nrOfThreads, level int
		timed              bool
		profile            string
		logPath, logLevel  string
	)

	var flags flag.FlagSet

	flags.StringVar(&params, "params", os.Getenv(envParams), "YAML file with parameter values")
	flags.StringVar(&settings, "set", "", "comma-separated name=value pairs")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.IntVar(&level, "compression-level", 5, "compression level for .gz and .bgz output")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file")
	flags.StringVar(&logPath, "log-path", os.Getenv(envLogPath), "write log files to the specified directory")
	flags.StringVar(&logLevel, "log-level", "info", "minimum level of log messages")

	parseFlags(&flags, 4, CallHelp)

	input := getFilename(os.Args[2], CallHelp)
	output := getFilename(os.Args[3], CallHelp)

	if err := setLogOutput(logPath, logLevel); err != nil {
		return err
	}

	sanityChecksFailed := false

	if !checkExist("", input) {
		sanityChecksFailed = true
	}
	if !checkCreate("", output) {
		sanityChecksFailed = true
	}
	if params != "" && !checkExist("--params", params) {
		sanityChecksFailed = true
	}
	if profile != "" && !checkCreate("--profile", profile) {
		sanityChecksFailed = true
	}
	if nrOfThreads < 0 {
		logger.Error("invalid number of threads", zap.String("parameter", "--nr-of-threads"), zap.Int("value", nrOfThreads))
		sanityChecksFailed = true
	}

	cfg, err := configure(params, settings)
	if err != nil {
		logger.Error("invalid parameters", zap.Error(err))
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, CallHelp)
		os.Exit(1)
	}

	labeler, err := label.NewLabeler(cfg)
	if err != nil {
		return err
	}
	logger.Info("labeling parameters", parameterFields(labeler)...)

	runID := uuid.New()

	// executing command

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " call ", input, " ", output)
	if params != "" {
		fullPath, err := internal.FullPathname(params)
		if err != nil {
			logger.Warn("cannot resolve parameter file", zap.String("file", params), zap.Error(err))
			fullPath = params
		}
		fmt.Fprint(&command, " --params ", fullPath)
	}
	if settings != "" {
		fmt.Fprint(&command, " --set ", settings)
	}
	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
		fmt.Fprint(&command, " --nr-of-threads ", nrOfThreads)
	}
	if bgzf.IsCompressedName(output) {
		fmt.Fprint(&command, " --compression-level ", level)
	}
	if timed {
		fmt.Fprint(&command, " --timed")
	}
	if profile != "" {
		fmt.Fprint(&command, " --profile ", profile)
	}
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}
	fmt.Fprint(&command, " --log-level ", logLevel)
	logger.Info("executing command", zap.String("command", command.String()), zap.Stringer("run", runID))

	return timedRun(timed, profile, "labeling markers", func() error {
		return runCall(labeler, input, output, level, runID)
	})
}
