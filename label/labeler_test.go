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
	"math"
	"testing"

	"github.com/exascience/ellabel/internal"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var hardContrast = []float64{
	-0.297, -0.284, 0.7475, 0.764, 0.787, -0.409, -0.300, -0.810,
	-0.373, -0.245, -0.429, -0.780, -0.278, 0.149, -0.803, 0.770,
	-0.793, 0.752, 0.728, -0.375, 0.745, 0.199, -0.408, 0.756,
}

func genotypes(codes ...int) []Genotype {
	result := make([]Genotype, len(codes))
	for i, c := range codes {
		result[i] = Genotype(c)
	}
	return result
}

var (
	hardCalls     = genotypes(1, 1, 0, 0, 0, 1, 1, 2, 1, 1, 1, 2, 1, 1, 2, 0, 2, 0, 0, 1, 0, 1, 1, 0)
	hardHomsCalls = genotypes(2, 2, 0, 0, 0, 2, 2, 2, 2, 2, 2, 2, 2, 0, 2, 0, 2, 0, 0, 2, 0, 0, 2, 0)
)

type goldenCase struct {
	name   string
	modify func(*Config)
	hints  []Genotype
	calls  []Genotype
	confs  []float64
}

var goldenCases = []goldenCase{
	{
		name:   "default",
		modify: func(*Config) {},
		calls:  hardCalls,
		confs: []float64{8.9407e-06, 2.08616e-06, 1.19209e-07, 1.19209e-07, 1.19209e-07, 0.0542988, 7.48634e-05, 0, 0.00129962, 5.96046e-07, 0.219659, 8.78572e-05,
			1.07288e-06, 0.0223923, 0, 1.19209e-07, 4.76837e-07, 1.19209e-07, 1.19209e-07, 0.0043909, 1.19209e-07, 0.27395, 0.0184641, 1.19209e-07},
	},
	{
		name:   "independent variances",
		modify: func(cfg *Config) { cfg.CommonVariance = false },
		calls:  hardCalls,
		confs: []float64{7.15256e-07, 7.15256e-07, 0, 0, 0, 0.000139713, 1.07288e-06, 5.96046e-07, 4.41074e-06, 7.15256e-07, 0.00105572, 0.00340241,
			7.15256e-07, 0.00046581, 4.41074e-06, 0, 6.7234e-05, 0, 2.14577e-06, 1.24574e-05, 0, 0.000467122, 4.43459e-05, 0},
	},
	{
		name:   "half shared variances",
		modify: func(cfg *Config) { cfg.Lambda = 0.5 },
		calls:  hardCalls,
		confs: []float64{1.13249e-06, 5.96046e-07, 0, 0, 0, 0.00361925, 5.72205e-06, 0, 7.50422e-05, 3.57628e-07, 0.025741, 0.000107646,
			4.76837e-07, 0.0117684, 0, 0, 2.38419e-07, 0, 0, 0.000248611, 0, 0.0129521, 0.00106764, 0},
	},
	{
		name:   "posterior calls",
		modify: func(cfg *Config) { cfg.CallMethod = PosteriorCalls },
		calls:  hardCalls,
		confs: []float64{0.00215191, 0.00141519, 0, 0, 0, 0.0743099, 0.0023703, 2.96235e-05, 0.0244855, 0.000402033, 0.132802, 7.79629e-05,
			0.00116622, 0.00489968, 3.71337e-05, 0, 5.126e-05, 0, 0, 0.0260765, 0, 0.128166, 0.0721188, 0},
	},
	{
		name:   "five bins",
		modify: func(cfg *Config) { cfg.Bins = 5 },
		calls:  hardCalls,
		confs: []float64{8.34465e-07, 8.34465e-07, 0, 0, 0, 8.34465e-07, 8.34465e-07, 0, 8.34465e-07, 8.34465e-07, 8.34465e-07, 0,
			8.34465e-07, 0.0340099, 0, 0, 0, 0, 0, 8.34465e-07, 0, 0.0340099, 8.34465e-07, 0},
	},
	{
		name:   "single copy",
		modify: func(cfg *Config) { cfg.CopyNumber = 1 },
		calls:  hardHomsCalls,
		confs: []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 4.41074e-06, 0, 0,
			0, 0.000879705, 0, 0, 0, 0, 0, 0, 0, 1.19209e-07, 0, 0},
	},
	{
		name: "contradicted hints",
		modify: func(cfg *Config) {
			cfg.Hints = true
			cfg.ContradictionPenalty = 4
		},
		hints: hardHomsCalls,
		calls: genotypes(2, 2, 0, 0, 0, 2, 2, 2, 2, 2, 2, 2, 2, 1, 2, 0, 2, 0, 0, 2, 0, 1, 2, 0),
		confs: []float64{0.230311, 0.255853, 5.96046e-08, 5.96046e-08, 5.96046e-08, 0.0193979, 0.194542, 0, 0.100341, 0.36749, 0.00874978, 6.55651e-07,
			0.283264, 0.020083, 0, 5.96046e-08, 0, 5.96046e-08, 3.1352e-05, 0.0616282, 1.78814e-07, 0.0933905, 0.0327486, 5.96046e-08},
	},
	{
		name:   "observed mixture penalty",
		modify: func(cfg *Config) { cfg.Mix = ObservedMix },
		calls:  hardCalls,
		confs: []float64{9.23872e-06, 4.29153e-06, 0, 0, 0, 0.0266182, 4.40478e-05, 0, 0.000579476, 2.08616e-06, 0.143353, 0.00015825,
			3.09944e-06, 0.0201183, 1.78814e-07, 0, 1.66893e-06, 0, 0, 0.00184906, 0, 0.253318, 0.00797242, 0},
	},
	{
		name:   "strong BIC",
		modify: func(cfg *Config) { cfg.BIC = 15 },
		calls:  genotypes(1, 1, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 1, 0, 0, 1, 0, 0, 1, 0),
		confs: []float64{0.00335956, 0.00335771, 0, 0, 0, 0.0179384, 0.00337726, 0.271897, 0.0037061, 0.00335729, 0.0623444, 0.271874,
			0.00335747, 0.00937039, 0.271897, 0, 0.271897, 0, 0, 0.00453621, 0, 0.223942, 0.00831538, 0},
	},
	{
		name:   "wobble",
		modify: func(cfg *Config) { cfg.Wobble = 5 },
		calls:  hardCalls,
		confs: []float64{0.000961304, 0.000900745, 1.19209e-07, 1.19209e-07, 1.19209e-07, 0.00967038, 0.00110471, 0, 0.00187355, 0.000755131, 0.0467294, 2.39611e-05,
			0.000856459, 0.0047546, 0, 1.19209e-07, 0, 1.19209e-07, 2.98023e-07, 0.00272113, 1.19209e-07, 0.0689227, 0.00490648, 1.19209e-07},
	},
	{
		name: "coupled centers",
		modify: func(cfg *Config) {
			cfg.Prior.XAH, cfg.Prior.XHB, cfg.Prior.XAB = 0.3, 0.3, -0.3
			cfg.Prior.AA.K, cfg.Prior.AB.K, cfg.Prior.BB.K = 1, 1, 1
		},
		calls: hardCalls,
		confs: []float64{0.00184649, 0.00149536, 1.19209e-07, 1.19209e-07, 1.19209e-07, 0.0497121, 0.00280714, 0, 0.00868309, 0.000947833, 0.149507, 1.10269e-05,
			0.00128591, 0.00152892, 0, 1.19209e-07, 0, 1.19209e-07, 1.19209e-07, 0.0145928, 1.19209e-07, 0.0519889, 0.0279695, 1.19209e-07},
	},
	{
		name: "homs centered at zero",
		modify: func(cfg *Config) {
			cfg.Prior.AA.Mean, cfg.Prior.BB.Mean = 0, 0
		},
		calls: genotypes(2, 2, 1, 1, 0, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 0, 2, 1, 1, 2, 1, 2, 2, 1),
		confs: []float64{1.07288e-06, 1.07288e-06, 1.07288e-06, 1.07288e-06, 0, 1.07288e-06, 1.07288e-06, 0, 1.07288e-06, 1.07288e-06, 1.07288e-06, 1.07288e-06,
			1.07288e-06, 3.51071e-05, 1.07288e-06, 0, 1.07288e-06, 1.07288e-06, 1.07288e-06, 1.07288e-06, 1.07288e-06, 0.00857729, 1.07288e-06, 1.07288e-06},
	},
}

func mustLabel(t *testing.T, cfg Config, in Input) *Result {
	t.Helper()
	labeler, err := NewLabeler(cfg)
	if err != nil {
		t.Fatal(err)
	}
	result, err := labeler.Label(in)
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func TestLabelGolden(t *testing.T) {
	for _, tc := range goldenCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			result := mustLabel(t, cfg, Input{
				Contrast: hardContrast,
				Strength: make([]float64, len(hardContrast)),
				Hints:    tc.hints,
			})
			if diff := cmp.Diff(tc.calls, result.Calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
			for i, want := range tc.confs {
				if got := result.Confidences[i]; math.Abs(got-want) > 1e-4 {
					t.Errorf("confidence of sample %v: got %v, want %v", i, got, want)
				}
			}
		})
	}
}

func TestLabelScenarios(t *testing.T) {
	one := make([]float64, 20)
	for i := range one {
		one[i] = 0.66
	}
	two := make([]float64, 20)
	for i := 0; i < 10; i++ {
		two[i] = 0.66
	}
	three := make([]float64, 20)
	for i := range three {
		switch {
		case i < 7:
			three[i] = 0.66
		case i < 13:
			three[i] = 0
		default:
			three[i] = -0.66
		}
	}
	repeat := func(g Genotype, n int) []Genotype {
		result := make([]Genotype, n)
		for i := range result {
			result[i] = g
		}
		return result
	}
	scenarios := []struct {
		name     string
		contrast []float64
		calls    []Genotype
	}{
		{"one cluster", one, repeat(AA, 20)},
		{"two clusters", two, append(repeat(AA, 10), repeat(AB, 10)...)},
		{"three clusters", three, append(append(repeat(AA, 7), repeat(AB, 6)...), repeat(BB, 7)...)},
	}
	for _, sc := range scenarios {
		result := mustLabel(t, DefaultConfig(), Input{Contrast: sc.contrast})
		if diff := cmp.Diff(sc.calls, result.Calls); diff != "" {
			t.Errorf("%v: calls mismatch (-want +got):\n%s", sc.name, diff)
		}
		for i, c := range result.Confidences {
			if c > 1e-6 {
				t.Errorf("%v: confidence of sample %v is %v", sc.name, i, c)
			}
		}
	}
}

func syntheticMarker(seed int64, n int) Input {
	rnd := internal.NewRand(seed)
	in := Input{
		Contrast: make([]float64, n),
		Strength: make([]float64, n),
	}
	centers := [3]float64{0.6, 0, -0.6}
	for i := 0; i < n; i++ {
		g := rnd.Intn(3)
		in.Contrast[i] = centers[g] + 0.08*rnd.NormFloat64()
		in.Strength[i] = 9 + 0.3*rnd.NormFloat64()
	}
	return in
}

func TestLabelProperties(t *testing.T) {
	configs := map[string]func(*Config){
		"default":    func(*Config) {},
		"posterior":  func(cfg *Config) { cfg.CallMethod = PosteriorCalls },
		"isotonic":   func(cfg *Config) { cfg.Shell = IsotonicShell; cfg.ShellBarrier = 0.1 },
		"hom shell":  func(cfg *Config) { cfg.Shell = HomShell },
		"binned":     func(cfg *Config) { cfg.Bins = 10 },
		"hardy":      func(cfg *Config) { cfg.Mix = HardyWeinberg },
		"prior mix":  func(cfg *Config) { cfg.Mix = PriorMix },
		"separation": func(cfg *Config) { cfg.CSepPen = 1 },
		"empirical qc": func(cfg *Config) {
			cfg.CopyQC = 0.01
		},
		"two dimensions": func(cfg *Config) {
			cfg.Dimensions = 2
			cfg.CallMethod = PosteriorCalls
			cfg.Ocean = 0.001
			cfg.InflatePRA = 1
			cfg.IsoHetY = 1
		},
		"posterior qc": func(cfg *Config) {
			cfg.Dimensions = 2
			cfg.CopyQC = 0.01
			cfg.CopyQCMode = PosteriorQC
		},
	}
	for name, modify := range configs {
		for seed := int64(1); seed <= 3; seed++ {
			cfg := DefaultConfig()
			modify(&cfg)
			in := syntheticMarker(seed, 60)
			first := mustLabel(t, cfg, in)
			second := mustLabel(t, cfg, in)
			if diff := cmp.Diff(first, second, cmpopts.EquateNaNs()); diff != "" {
				t.Errorf("%v/%v: labeling is not deterministic:\n%s", name, seed, diff)
			}
			for i, p := range first.Probabilities {
				if sum := p[AA] + p[AB] + p[BB]; math.Abs(sum-1) > 1e-9 {
					t.Errorf("%v/%v: probabilities of sample %v sum to %v", name, seed, i, sum)
				}
				if c := first.Confidences[i]; c < 0 || c > 1 {
					t.Errorf("%v/%v: confidence of sample %v is %v", name, seed, i, c)
				}
				if !first.Calls[i].Called() {
					t.Errorf("%v/%v: sample %v is not called", name, seed, i)
				}
			}
			if cfg.Shell == IsotonicShell {
				post := &first.Posterior
				if post.BB.Mean > post.AB.Mean || post.AB.Mean > post.AA.Mean {
					t.Errorf("%v/%v: posterior means out of order: %v %v %v", name, seed, post.BB.Mean, post.AB.Mean, post.AA.Mean)
				}
			}
		}
	}
}

func TestLabelSingleCopyNeverCallsAB(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CopyNumber = 1
	for _, method := range []CallMethod{LabelCalls, PosteriorCalls} {
		cfg.CallMethod = method
		for seed := int64(1); seed <= 3; seed++ {
			result := mustLabel(t, cfg, syntheticMarker(seed, 40))
			for i, call := range result.Calls {
				if call == AB {
					t.Errorf("method %v, seed %v: sample %v called AB", method, seed, i)
				}
				if result.Probabilities[i][AB] != 0 {
					t.Errorf("method %v, seed %v: sample %v has AB probability %v", method, seed, i, result.Probabilities[i][AB])
				}
			}
		}
	}
}

func TestLabelPriorCalls(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CallMethod = PriorCalls
	cfg.Wobble = 1
	result := mustLabel(t, cfg, Input{Contrast: []float64{0.7}})
	if result.Calls[0] != AA {
		t.Errorf("single sample called %v, want AA", result.Calls[0])
	}
	if result.Posterior != cfg.Prior {
		t.Error("prior calls changed the posterior")
	}
}

func TestLabelEmpty(t *testing.T) {
	result := mustLabel(t, DefaultConfig(), Input{})
	if len(result.Calls) != 0 || len(result.Confidences) != 0 {
		t.Error("empty input produced calls")
	}
}

func TestLabelInvalidInput(t *testing.T) {
	labeler, err := NewLabeler(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	inputs := map[string]Input{
		"nan contrast":      {Contrast: []float64{0.1, math.NaN()}},
		"short strength":    {Contrast: []float64{0.1, 0.2}, Strength: []float64{1}},
		"short hints":       {Contrast: []float64{0.1, 0.2}, Hints: []Genotype{AA}},
		"invalid hint":      {Contrast: []float64{0.1, 0.2}, Hints: []Genotype{AA, 7}},
		"negative weight":   {Contrast: []float64{0.1, 0.2}, HetWeight: []float64{0, -1}},
		"short het weights": {Contrast: []float64{0.1, 0.2}, HetWeight: []float64{0}},
	}
	for name, in := range inputs {
		if _, err := labeler.Label(in); err == nil {
			t.Errorf("%v: expected an error", name)
		}
	}

	cfg := DefaultConfig()
	cfg.Dimensions = 2
	labeler, err = NewLabeler(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := labeler.Label(Input{Contrast: []float64{0.1}}); err == nil {
		t.Error("expected an error for missing strength values")
	}
}

func TestNewLabelerInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prior.AB.Var = 0
	if _, err := NewLabeler(cfg); err == nil {
		t.Error("expected an error for a zero prior variance")
	}
	cfg = DefaultConfig()
	cfg.CopyNumber = 3
	if _, err := NewLabeler(cfg); err == nil {
		t.Error("expected an error for copy number 3")
	}
	cfg = DefaultConfig()
	cfg.Prior.BB.V = 0
	if _, err := NewLabeler(cfg); err == nil {
		t.Error("expected an error for a zero variance weight")
	}
	cfg = DefaultConfig()
	if err := cfg.Set("V", "0"); err == nil {
		t.Error("option V accepted a zero variance weight")
	}
	if cfg.Prior.AA.V != 10 {
		t.Errorf("rejected V setting changed the variance weight to %v", cfg.Prior.AA.V)
	}
}

// A small variance weight keeps the variance of empty segments finite.
func TestLabelSmallVarianceWeight(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.SetValue("V", 0.01); err != nil {
		t.Fatal(err)
	}
	result := mustLabel(t, cfg, Input{Contrast: hardContrast})
	for s, c := range result.Confidences {
		if !(c >= 0 && c <= 1) {
			t.Errorf("sample %v: confidence %v", s, c)
		}
	}
}

func TestLabelBinVariance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bins = 2
	result := mustLabel(t, cfg, Input{Contrast: []float64{0, 0.2, 1.1, 1.5, 2.2, 2.4, 3}})
	if math.Abs(result.BinVariance-0.04) > 1e-12 {
		t.Errorf("median bin variance %v, expected 0.04", result.BinVariance)
	}
	cfg.CallMethod = PriorCalls
	result = mustLabel(t, cfg, Input{Contrast: []float64{0.5}})
	if !math.IsNaN(result.BinVariance) {
		t.Errorf("prior calls report bin variance %v", result.BinVariance)
	}
}
