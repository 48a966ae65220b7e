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
	"math"
	"sort"
	"strconv"
	"strings"
)

// OptionKind describes the values an option accepts.
type OptionKind int

// The option kinds.
const (
	Real OptionKind = iota
	Integer
	Flag
)

func (k OptionKind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Flag:
		return "flag"
	default:
		return "real"
	}
}

// An Option is one named entry of the configuration schema.
type Option struct {
	Name        string
	Kind        OptionKind
	Default     float64
	Min, Max    float64
	Description string
	get         func(*Config) float64
	set         func(*Config, float64)
}

// Get returns the current value of the option in cfg.
func (opt *Option) Get(cfg *Config) float64 {
	return opt.get(cfg)
}

func (opt *Option) check(value float64) error {
	if math.IsNaN(value) || value < opt.Min || value > opt.Max {
		return fmt.Errorf("option %v: value %v out of range [%v, %v]", opt.Name, value, opt.Min, opt.Max)
	}
	if opt.Kind != Real && value != math.Trunc(value) {
		return fmt.Errorf("option %v: %v value expected, got %v", opt.Name, opt.Kind, value)
	}
	return nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var inf = math.Inf(1)

func meanOption(name string, g Genotype, def float64) Option {
	return Option{
		Name: name, Kind: Real, Default: def, Min: -inf, Max: inf,
		Description: g.String() + " contrast center",
		get:         func(cfg *Config) float64 { return cfg.Prior.Cluster(g).Mean },
		set:         func(cfg *Config, v float64) { cfg.Prior.Cluster(g).Mean = v },
	}
}

func varOption(name string, g Genotype, def float64) Option {
	return Option{
		Name: name, Kind: Real, Default: def, Min: 0, Max: inf,
		Description: g.String() + " contrast variance",
		get:         func(cfg *Config) float64 { return cfg.Prior.Cluster(g).Var },
		set:         func(cfg *Config, v float64) { cfg.Prior.Cluster(g).Var = v },
	}
}

func yMeanOption(name string, g Genotype) Option {
	return Option{
		Name: name, Kind: Real, Default: 9, Min: -inf, Max: inf,
		Description: g.String() + " strength center",
		get:         func(cfg *Config) float64 { return cfg.Prior.Cluster(g).YMean },
		set:         func(cfg *Config, v float64) { cfg.Prior.Cluster(g).YMean = v },
	}
}

func yVarOption(name string, g Genotype) Option {
	return Option{
		Name: name, Kind: Real, Default: 0.1, Min: 0, Max: inf,
		Description: g.String() + " strength variance",
		get:         func(cfg *Config) float64 { return cfg.Prior.Cluster(g).YVar },
		set:         func(cfg *Config, v float64) { cfg.Prior.Cluster(g).YVar = v },
	}
}

func xyCovOption(name string, g Genotype) Option {
	return Option{
		Name: name, Kind: Real, Default: 0, Min: -inf, Max: inf,
		Description: g.String() + " contrast/strength covariance",
		get:         func(cfg *Config) float64 { return cfg.Prior.Cluster(g).XYCov },
		set:         func(cfg *Config, v float64) { cfg.Prior.Cluster(g).XYCov = v },
	}
}

func crossOption(name, description string, field func(*Distribution) *float64) Option {
	return Option{
		Name: name, Kind: Real, Default: 0, Min: -inf, Max: inf,
		Description: description,
		get:         func(cfg *Config) float64 { return *field(&cfg.Prior) },
		set:         func(cfg *Config, v float64) { *field(&cfg.Prior) = v },
	}
}

func realOption(name, description string, def, min, max float64, field func(*Config) *float64) Option {
	return Option{
		Name: name, Kind: Real, Default: def, Min: min, Max: max,
		Description: description,
		get:         func(cfg *Config) float64 { return *field(cfg) },
		set:         func(cfg *Config, v float64) { *field(cfg) = v },
	}
}

func flagOption(name, description string, def bool, field func(*Config) *bool) Option {
	return Option{
		Name: name, Kind: Flag, Default: boolValue(def), Min: 0, Max: 1,
		Description: description,
		get:         func(cfg *Config) float64 { return boolValue(*field(cfg)) },
		set:         func(cfg *Config, v float64) { *field(cfg) = v != 0 },
	}
}

// Options is the configuration schema, using the established option
// names of the labeling algorithm.
var Options = []Option{
	meanOption("AAM", AA, 0.66),
	meanOption("ABM", AB, 0),
	meanOption("BBM", BB, -0.66),
	varOption("AAV", AA, 0.005),
	varOption("ABV", AB, 0.01),
	varOption("BBV", BB, 0.005),
	yMeanOption("AAY", AA),
	yMeanOption("ABY", AB),
	yMeanOption("BBY", BB),
	yVarOption("AAYV", AA),
	yVarOption("ABYV", AB),
	yVarOption("BBYV", BB),
	xyCovOption("AAXY", AA),
	xyCovOption("ABXY", AB),
	xyCovOption("BBXY", BB),
	{
		Name: "KX", Kind: Real, Default: 4, Min: 0, Max: inf,
		Description: "homozygous center weight",
		get:         func(cfg *Config) float64 { return cfg.Prior.AA.K },
		set:         func(cfg *Config, v float64) { cfg.Prior.AA.K, cfg.Prior.BB.K = v, v },
	},
	{
		Name: "KH", Kind: Real, Default: 0.2, Min: 0, Max: inf,
		Description: "heterozygous center weight",
		get:         func(cfg *Config) float64 { return cfg.Prior.AB.K },
		set:         func(cfg *Config, v float64) { cfg.Prior.AB.K = v },
	},
	{
		Name: "V", Kind: Real, Default: 10, Min: math.SmallestNonzeroFloat64, Max: inf,
		Description: "variance weight of all clusters",
		get:         func(cfg *Config) float64 { return cfg.Prior.AA.V },
		set:         func(cfg *Config, v float64) { cfg.Prior.AA.V, cfg.Prior.AB.V, cfg.Prior.BB.V = v, v, v },
	},
	crossOption("KAH", "AA-AB contrast center coupling", func(d *Distribution) *float64 { return &d.XAH }),
	crossOption("KXX", "AA-BB contrast center coupling", func(d *Distribution) *float64 { return &d.XAB }),
	crossOption("KHB", "AB-BB contrast center coupling", func(d *Distribution) *float64 { return &d.XHB }),
	crossOption("KYAH", "AA-AB strength center coupling", func(d *Distribution) *float64 { return &d.YAH }),
	crossOption("KYAB", "AA-BB strength center coupling", func(d *Distribution) *float64 { return &d.YAB }),
	crossOption("KYHB", "AB-BB strength center coupling", func(d *Distribution) *float64 { return &d.YHB }),
	flagOption("COMVAR", "blend the cluster variances", true, func(cfg *Config) *bool { return &cfg.CommonVariance }),
	realOption("lambda", "variance sharing, 0 independent, 1 common", 1, 0, 1.5, func(cfg *Config) *float64 { return &cfg.Lambda }),
	{
		Name: "CM", Kind: Integer, Default: 0, Min: 0, Max: 2,
		Description: "call method: 0 partition labels, 1 posterior, 2 prior only",
		get:         func(cfg *Config) float64 { return float64(cfg.CallMethod) },
		set:         func(cfg *Config, v float64) { cfg.CallMethod = CallMethod(v) },
	},
	{
		Name: "HARD", Kind: Integer, Default: 2, Min: 0, Max: 3,
		Description: "center constraint: 0 none, 1 homs off the midline, 2 pairwise separation, 3 isotonic",
		get:         func(cfg *Config) float64 { return float64(cfg.Shell) },
		set:         func(cfg *Config, v float64) { cfg.Shell = ShellMode(v) },
	},
	realOption("SB", "squared separation of the centers", 0.05, 0, inf, func(cfg *Config) *float64 { return &cfg.ShellBarrier }),
	{
		Name: "bins", Kind: Integer, Default: 0, Min: 0, Max: inf,
		Description: "number of contrast bins, 0 for one sample per bin",
		get:         func(cfg *Config) float64 { return float64(cfg.Bins) },
		set:         func(cfg *Config, v float64) { cfg.Bins = int(v) },
	},
	{
		Name: "copynumber", Kind: Integer, Default: 2, Min: 1, Max: 2,
		Description: "copy number, 1 disables heterozygous calls",
		get:         func(cfg *Config) float64 { return float64(cfg.CopyNumber) },
		set:         func(cfg *Config, v float64) { cfg.CopyNumber = int(v) },
	},
	flagOption("hints", "penalize contradictions of the reference hints", false, func(cfg *Config) *bool { return &cfg.Hints }),
	realOption("CP", "penalty per contradicted hint", 0, 0, inf, func(cfg *Config) *float64 { return &cfg.ContradictionPenalty }),
	flagOption("Hok", "homozygous hints may be flipped", false, func(cfg *Config) *bool { return &cfg.HintsFlippable }),
	{
		Name: "mix", Kind: Integer, Default: 0, Min: 0, Max: 3,
		Description: "frequency penalty: 0 none, 1 observed, 2 prior augmented, 3 Hardy-Weinberg",
		get:         func(cfg *Config) float64 { return float64(cfg.Mix) },
		set:         func(cfg *Config, v float64) { cfg.Mix = MixMode(v) },
	},
	realOption("bic", "BIC weight", 0, 0, inf, func(cfg *Config) *float64 { return &cfg.BIC }),
	realOption("CSepPen", "cluster separation bonus", 0, 0, inf, func(cfg *Config) *float64 { return &cfg.CSepPen }),
	realOption("CSepThr", "cluster separation saturation", 16, math.SmallestNonzeroFloat64, inf, func(cfg *Config) *float64 { return &cfg.CSepThr }),
	realOption("wobble", "caps the prior center weights at 1/wobble", 1e-5, 0, inf, func(cfg *Config) *float64 { return &cfg.Wobble }),
	realOption("copyqc", "weight of the strength QC", 0, 0, inf, func(cfg *Config) *float64 { return &cfg.CopyQC }),
	{
		Name: "copytype", Kind: Integer, Default: 0, Min: 0, Max: 1,
		Description: "strength QC: 0 per-call means, 1 posterior strength distribution",
		get:         func(cfg *Config) float64 { return float64(cfg.CopyQCMode) },
		set:         func(cfg *Config, v float64) { cfg.CopyQCMode = CopyQCMode(v) },
	},
	{
		Name: "clustertype", Kind: Integer, Default: 1, Min: 1, Max: 2,
		Description: "1 contrast only, 2 contrast and strength",
		get:         func(cfg *Config) float64 { return float64(cfg.Dimensions) },
		set:         func(cfg *Config, v float64) { cfg.Dimensions = int(v) },
	},
	realOption("ocean", "uniform outlier density", 0, 0, inf, func(cfg *Config) *float64 { return &cfg.Ocean }),
	realOption("inflatePRA", "variance inflation at call time", 0, 0, inf, func(cfg *Config) *float64 { return &cfg.InflatePRA }),
	realOption("IsoHetY", "relative weight of the het when lifting its strength above the homs", 0, 0, inf, func(cfg *Config) *float64 { return &cfg.IsoHetY }),
	realOption("SafetyFrequency", "pseudo-count of the frequency penalties", 1, math.SmallestNonzeroFloat64, inf, func(cfg *Config) *float64 { return &cfg.SafetyFrequency }),
}

var optionIndex = func() map[string]int {
	index := make(map[string]int, len(Options))
	for i := range Options {
		index[strings.ToLower(Options[i].Name)] = i
	}
	return index
}()

// LookupOption finds an option by name, ignoring case.
func LookupOption(name string) (*Option, bool) {
	i, ok := optionIndex[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return &Options[i], true
}

func parseOptionValue(opt *Option, value string) (float64, error) {
	value = strings.TrimSpace(value)
	if opt.Kind == Flag {
		if b, err := strconv.ParseBool(value); err == nil {
			return boolValue(b), nil
		}
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("option %v: %w", opt.Name, err)
	}
	return v, nil
}

// SetValue sets the named option to a numeric value.
func (cfg *Config) SetValue(name string, value float64) error {
	opt, ok := LookupOption(name)
	if !ok {
		return fmt.Errorf("unknown option %v", name)
	}
	if err := opt.check(value); err != nil {
		return err
	}
	opt.set(cfg, value)
	return nil
}

// Set parses value and sets the named option.
func (cfg *Config) Set(name, value string) error {
	opt, ok := LookupOption(name)
	if !ok {
		return fmt.Errorf("unknown option %v", name)
	}
	v, err := parseOptionValue(opt, value)
	if err != nil {
		return err
	}
	return cfg.SetValue(opt.Name, v)
}

// Apply sets several options, in sorted name order.
func (cfg *Config) Apply(values map[string]float64) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := cfg.SetValue(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// Values returns the current value of every option, keyed by option name.
func (cfg *Config) Values() map[string]float64 {
	values := make(map[string]float64, len(Options))
	for i := range Options {
		values[Options[i].Name] = Options[i].get(cfg)
	}
	return values
}
