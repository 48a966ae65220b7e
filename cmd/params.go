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
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/exascience/ellabel/internal"
	"github.com/exascience/ellabel/label"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ParamsHelp is the help string for this command.
const ParamsHelp = "\nparams parameters:\n" +
	"ellabel params\n" +
	"[--yaml]\n" +
	"[--params yaml-file]\n" +
	"[--set name=value[,name=value]...]\n"

// loadParams applies a YAML mapping of option names to values.
func loadParams(r io.Reader, cfg *label.Config) error {
	var values map[string]interface{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var err error
		switch v := values[name].(type) {
		case int:
			err = cfg.SetValue(name, float64(v))
		case float64:
			err = cfg.SetValue(name, v)
		case bool:
			err = cfg.Set(name, fmt.Sprint(v))
		case string:
			err = cfg.Set(name, v)
		default:
			err = fmt.Errorf("option %v: unsupported value %v", name, v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func loadParamsFile(filename string, cfg *label.Config) (err error) {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := f.Close(); err == nil {
			err = nerr
		}
	}()
	if err := loadParams(f, cfg); err != nil {
		return fmt.Errorf("%v, while reading parameters from %v", err, filename)
	}
	return nil
}

// applySettings applies comma-separated name=value pairs.
func applySettings(settings string, cfg *label.Config) error {
	if settings == "" {
		return nil
	}
	for _, setting := range strings.Split(settings, ",") {
		name, value, err := internal.ParseKeyValue(setting)
		if err != nil {
			return err
		}
		if err := cfg.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// configure builds the labeling configuration from the defaults, a
// parameter file, and explicit settings, in that order.
func configure(params, settings string) (label.Config, error) {
	cfg := label.DefaultConfig()
	if params != "" {
		if err := loadParamsFile(params, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := applySettings(settings, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func optionValue(opt *label.Option, value float64) interface{} {
	switch opt.Kind {
	case label.Flag:
		return value != 0
	case label.Integer:
		return int(value)
	default:
		return value
	}
}

// marshalParams renders the values of all options as YAML, in schema
// order.
func marshalParams(cfg *label.Config) ([]byte, error) {
	var mapping yaml.Node
	mapping.Kind = yaml.MappingNode
	for i := range label.Options {
		opt := &label.Options[i]
		var key, value yaml.Node
		key.SetString(opt.Name)
		if err := value.Encode(optionValue(opt, opt.Get(cfg))); err != nil {
			return nil, err
		}
		mapping.Content = append(mapping.Content, &key, &value)
	}
	return yaml.Marshal(&mapping)
}

// parameterFields lists the option values of the labeler in schema order.
func parameterFields(labeler *label.Labeler) []zap.Field {
	cfg := labeler.Config()
	values := cfg.Values()
	fields := make([]zap.Field, 0, len(label.Options))
	for i := range label.Options {
		opt := &label.Options[i]
		fields = append(fields, zap.Any(opt.Name, optionValue(opt, values[opt.Name])))
	}
	return fields
}

func formatBound(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return fmt.Sprint(v)
	}
}

func writeSchema(w io.Writer, cfg *label.Config) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tVALUE\tRANGE\tDESCRIPTION")
	for i := range label.Options {
		opt := &label.Options[i]
		fmt.Fprintf(tw, "%v\t%v\t%v\t[%v, %v]\t%v\n",
			opt.Name, opt.Kind, optionValue(opt, opt.Get(cfg)),
			formatBound(opt.Min), formatBound(opt.Max), opt.Description)
	}
	return tw.Flush()
}

// Params implements the ellabel params command.
func Params() error {
	var (
		asYAML           bool
		params, settings string
	)

	var flags flag.FlagSet

	flags.BoolVar(&asYAML, "yaml", false, "print the parameters as a YAML parameter file")
	flags.StringVar(&params, "params", os.Getenv(envParams), "YAML file with parameter values")
	flags.StringVar(&settings, "set", "", "comma-separated name=value pairs")

	parseFlags(&flags, 2, ParamsHelp)

	cfg, err := configure(params, settings)
	if err != nil {
		return err
	}
	if asYAML {
		out, err := marshalParams(&cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}
	var buf bytes.Buffer
	if err := writeSchema(&buf, &cfg); err != nil {
		return err
	}
	_, err = buf.WriteTo(os.Stdout)
	return err
}
