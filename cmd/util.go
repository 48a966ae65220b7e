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
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/exascience/ellabel/internal"
	"github.com/exascience/ellabel/logger"
	"github.com/exascience/ellabel/utils"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// ProgramMessage is the first line printed when the ellabel binary is
// called.
var ProgramMessage string

func init() {
	ProgramMessage = fmt.Sprint(
		"\n", utils.ProgramName, " version ", utils.ProgramVersion,
		" compiled with ", runtime.Version(),
		" - see ", utils.ProgramURL, " for more information.\n",
	)
}

// HelpMessage is printed to show the --help flag
const HelpMessage = "Print command details:\n" +
	"[--help]\n"

const (
	envLogPath = "ELLABEL_LOG_PATH"
	envParams  = "ELLABEL_PARAMS"
)

func getFilename(s, help string) string {
	switch s {
	case "-h", "--h", "-help", "--help":
		fmt.Fprint(os.Stderr, help)
		os.Exit(0)
	default:
		if strings.HasPrefix(s, "-") {
			fmt.Fprintln(os.Stderr, "Filename(s) in command line missing.")
			fmt.Fprint(os.Stderr, help)
			os.Exit(1)
		}
	}
	return s
}

func parseFlags(flags *flag.FlagSet, requiredArgs int, help string) {
	if len(os.Args) < requiredArgs {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
	flags.SetOutput(io.Discard)
	if err := flags.Parse(os.Args[requiredArgs:]); err != nil {
		x := 0
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			x = 1
		}
		fmt.Fprint(os.Stderr, help)
		os.Exit(x)
	}
	if flags.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Cannot parse remaining parameters:", flags.Args())
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
}

func logCheckFile(parameter, message string, fields ...zap.Field) {
	if parameter != "" {
		fields = append(fields, zap.String("parameter", parameter))
	}
	logger.Error(message, fields...)
}

func checkExist(parameter, filename string) bool {
	if len(filename) == 0 {
		logCheckFile(parameter, "missing filename")
		return false
	}
	if filename[0] == '-' {
		logCheckFile(parameter, "missing filename", zap.String("before", filename))
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		return true
	} else if os.IsNotExist(err) {
		logCheckFile(parameter, "file does not exist", zap.String("file", filename))
		return false
	} else if os.IsPermission(err) {
		logCheckFile(parameter, "no permission to read file", zap.String("file", filename))
		return false
	} else {
		logCheckFile(parameter, "cannot access file", zap.String("file", filename), zap.Error(err))
		return false
	}
}

func checkCreate(parameter, filename string) bool {
	if len(filename) == 0 {
		logCheckFile(parameter, "missing filename")
		return false
	}
	if filename[0] == '-' {
		logCheckFile(parameter, "missing filename", zap.String("before", filename))
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		// Assume that the file has been written by previous ellabel runs, and can be overwritten.
		return true
	}
	err := os.MkdirAll(filepath.Dir(filename), 0700)
	if err == nil {
		err = os.WriteFile(filename, nil, 0666)
	}
	if err != nil {
		if os.IsPermission(err) {
			logCheckFile(parameter, "no permission to create file", zap.String("file", filename))
		} else {
			logCheckFile(parameter, "cannot create file", zap.String("file", filename), zap.Error(err))
		}
		return false
	}
	_ = os.Remove(filename)
	return true
}

func createLogFilename() string {
	t := time.Now()
	zone, _ := t.Zone()
	return fmt.Sprintf("logs/ellabel/ellabel-%d-%02d-%02d-%02d-%02d-%02d-%09d-%v.log", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), zone)
}

// setLogOutput creates a log file under path, redirects stderr into it
// so that panics end up in the log, and logs to both the log file and
// the original stderr.
func setLogOutput(path, level string) error {
	zapLevel, err := logger.ParseLevel(level)
	if err != nil {
		return err
	}
	dir, err := internal.LogDirectory(path)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(dir, createLogFilename())
	if err := os.MkdirAll(filepath.Dir(fullPath), 0700); err != nil {
		return err
	}
	f, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	fmt.Fprintln(f, ProgramMessage)

	orgStderr, err := unix.Dup(2)
	if err != nil {
		return err
	}
	ferr := os.NewFile(uintptr(orgStderr), "/dev/stderr")
	if err := unix.Dup2(int(f.Fd()), 2); err != nil {
		return err
	}

	logger.InitLoggerTo(zapLevel, io.MultiWriter(f, ferr))
	logger.Info("created log file", zap.String("path", fullPath))
	logger.Info("command line", zap.Strings("args", os.Args))
	return nil
}

func timedRun(timed bool, profile, msg string, f func() error) error {
	if profile != "" {
		file, err := os.Create(profile)
		if err != nil {
			return err
		}
		defer file.Close()
		if err := pprof.StartCPUProfile(file); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}
	if timed {
		logger.Info(msg)
		start := time.Now()
		defer func() {
			logger.Info("elapsed time", zap.Duration("elapsed", time.Since(start)))
		}()
	}
	return f()
}
