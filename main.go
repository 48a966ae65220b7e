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

// elLabel assigns genotype calls to the samples of SNP array markers by
// Bayesian clustering of allele contrast and signal strength.
//
// Please see https://github.com/exascience/ellabel for a documentation
// of the tool, and below (and/or
// https://godoc.org/github.com/ExaScience/ellabel) for the API
// documentation.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/exascience/ellabel/cmd"
	"github.com/exascience/ellabel/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: call, params, simulate")
	fmt.Fprint(os.Stderr, "\n", cmd.CallHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.ParamsHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.SimulateHelp)
}

func run(command string) error {
	switch command {
	case "call":
		return cmd.Call()
	case "params":
		return cmd.Params()
	case "simulate":
		return cmd.Simulate()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
		return nil
	default:
		printHelp()
		return fmt.Errorf("unknown command %v", command)
	}
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	logger.InitLoggerTo(zap.InfoLevel, os.Stderr)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Fatal("cannot load .env", zap.Error(err))
	}
	if len(os.Args) < 2 {
		logger.Error("incorrect number of parameters")
		fmt.Fprint(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}
	if err := run(os.Args[1]); err != nil {
		logger.Fatal("command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}
