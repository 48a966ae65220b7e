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

// Package logger is the structured log of the ellabel commands.
package logger

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var zapLog = zap.NewNop()

func encoderConfig() zapcore.EncoderConfig {
	config := zap.NewDevelopmentEncoderConfig()
	config.TimeKey = "time"
	config.EncodeTime = zapcore.TimeEncoderOfLayout("Jan _2 15:04:05.000000000")
	config.StacktraceKey = ""
	return config
}

// InitLogger logs at the given level to stderr and to the given files.
// Before InitLogger is called, log entries are discarded.
func InitLogger(level zapcore.Level, files ...string) error {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = append([]string{"stderr"}, files...)
	config.EncoderConfig = encoderConfig()

	log, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	zapLog = log
	return nil
}

// InitLoggerTo logs at the given level to w.
func InitLoggerTo(level zapcore.Level, w io.Writer) {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(w), level)
	zapLog = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// ParseLevel parses a level name such as debug, info or warn.
func ParseLevel(name string) (zapcore.Level, error) {
	return zapcore.ParseLevel(name)
}

func Info(message string, fields ...zap.Field) {
	zapLog.Info(message, fields...)
}

func Warn(message string, fields ...zap.Field) {
	zapLog.Warn(message, fields...)
}

func Debug(message string, fields ...zap.Field) {
	zapLog.Debug(message, fields...)
}

func Error(message string, fields ...zap.Field) {
	zapLog.Error(message, fields...)
}

func Fatal(message string, fields ...zap.Field) {
	zapLog.Fatal(message, fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	return zapLog.Sync()
}
