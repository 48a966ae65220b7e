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
	"bufio"
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/exascience/ellabel/label"
	"github.com/exascience/ellabel/markers"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

func TestLoadParams(t *testing.T) {
	cfg := label.DefaultConfig()
	params := "lambda: 0.5\nCOMVAR: false\nbins: 5\nhints: true\nCM: 1\n"
	if err := loadParams(strings.NewReader(params), &cfg); err != nil {
		t.Fatal(err)
	}
	switch {
	case cfg.Lambda != 0.5:
		t.Errorf("lambda %v", cfg.Lambda)
	case cfg.CommonVariance:
		t.Error("COMVAR not cleared")
	case cfg.Bins != 5:
		t.Errorf("bins %v", cfg.Bins)
	case !cfg.Hints:
		t.Error("hints not set")
	case cfg.CallMethod != label.PosteriorCalls:
		t.Errorf("call method %v", cfg.CallMethod)
	}
}

func TestLoadParamsEmpty(t *testing.T) {
	cfg := label.DefaultConfig()
	if err := loadParams(strings.NewReader(""), &cfg); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(label.DefaultConfig(), cfg); diff != "" {
		t.Errorf("empty parameter file changed the config:\n%s", diff)
	}
}

func TestLoadParamsErrors(t *testing.T) {
	for _, params := range []string{
		"nonsense: 1\n",
		"lambda: 3\n",
		"bins: [1, 2]\n",
		"- lambda\n",
	} {
		cfg := label.DefaultConfig()
		if err := loadParams(strings.NewReader(params), &cfg); err == nil {
			t.Errorf("expected an error for %q", params)
		}
	}
}

func TestApplySettings(t *testing.T) {
	cfg := label.DefaultConfig()
	if err := applySettings("lambda=0.25,bins=3", &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Lambda != 0.25 || cfg.Bins != 3 {
		t.Errorf("settings not applied: lambda %v, bins %v", cfg.Lambda, cfg.Bins)
	}
	for _, settings := range []string{"lambda", "lambda=x", "unknown=1"} {
		if err := applySettings(settings, &cfg); err == nil {
			t.Errorf("expected an error for %q", settings)
		}
	}
}

func TestMarshalParams(t *testing.T) {
	cfg := label.DefaultConfig()
	if err := cfg.Set("lambda", "0.5"); err != nil {
		t.Fatal(err)
	}
	out, err := marshalParams(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(out, &doc); err != nil {
		t.Fatal(err)
	}
	mapping := doc.Content[0]
	if len(mapping.Content) != 2*len(label.Options) {
		t.Fatalf("%v entries for %v options", len(mapping.Content)/2, len(label.Options))
	}
	for i := range label.Options {
		if key := mapping.Content[2*i].Value; key != label.Options[i].Name {
			t.Errorf("entry %v is %v, expected %v", i, key, label.Options[i].Name)
		}
	}
	var values map[string]interface{}
	if err := yaml.Unmarshal(out, &values); err != nil {
		t.Fatal(err)
	}
	if values["lambda"] != 0.5 || values["COMVAR"] != true {
		t.Errorf("unexpected values lambda %v, COMVAR %v", values["lambda"], values["COMVAR"])
	}
}

func TestWriteSchema(t *testing.T) {
	cfg := label.DefaultConfig()
	var buf bytes.Buffer
	if err := writeSchema(&buf, &cfg); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(label.Options)+1 {
		t.Fatalf("%v lines for %v options", len(lines), len(label.Options))
	}
	if !strings.HasPrefix(lines[0], "NAME") {
		t.Errorf("missing table header: %v", lines[0])
	}
}

func readCalls(t *testing.T, r io.Reader) map[string][]label.Genotype {
	t.Helper()
	result := make(map[string][]label.Genotype)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		name, calls, _, err := markers.ParseCalls(line)
		if err != nil {
			t.Fatal(err)
		}
		result[name] = calls
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}
	return result
}

func TestSimulateAndCall(t *testing.T) {
	const nrOfMarkers = 20
	var table, truth bytes.Buffer
	params := markers.DefaultSimulationParameters()
	if err := simulate(&table, &truth, nrOfMarkers, 7, params); err != nil {
		t.Fatal(err)
	}
	labeler, err := label.NewLabeler(label.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	stats, err := markers.Process(labeler, &table, &out, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Markers != nrOfMarkers || stats.Samples != nrOfMarkers*params.Samples {
		t.Fatalf("unexpected stats %+v", stats)
	}
	expected := readCalls(t, &truth)
	called := readCalls(t, &out)
	if len(expected) != nrOfMarkers || len(called) != nrOfMarkers {
		t.Fatalf("%v true and %v called markers", len(expected), len(called))
	}
	agree := 0
	for name, calls := range called {
		for i, g := range calls {
			if g == expected[name][i] {
				agree++
			}
		}
	}
	if total := nrOfMarkers * params.Samples; agree < total*9/10 {
		t.Errorf("only %v of %v calls agree with the simulated genotypes", agree, total)
	}
}

func TestCompressedFiles(t *testing.T) {
	dir := t.TempDir()
	params := markers.DefaultSimulationParameters()
	var plain bytes.Buffer
	if err := simulate(&plain, nil, 50, 11, params); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"markers.tsv", "markers.tsv.gz"} {
		filename := filepath.Join(dir, name)
		w, closeOutput, err := createOutput(filename, 5)
		if err != nil {
			t.Fatal(err)
		}
		if err := simulate(w, nil, 50, 11, params); err != nil {
			t.Fatal(err)
		}
		if err := closeOutput(); err != nil {
			t.Fatal(err)
		}
		r, closeInput, err := openInput(filename)
		if err != nil {
			t.Fatal(err)
		}
		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatal(err)
		}
		if err := closeInput(); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, plain.Bytes()) {
			t.Errorf("%v: contents differ after reading back", name)
		}
	}
}

func TestParameterFields(t *testing.T) {
	cfg := label.DefaultConfig()
	if err := applySettings("bins=7,COMVAR=false", &cfg); err != nil {
		t.Fatal(err)
	}
	labeler, err := label.NewLabeler(cfg)
	if err != nil {
		t.Fatal(err)
	}
	fields := parameterFields(labeler)
	if len(fields) != len(label.Options) {
		t.Fatalf("%v fields for %v options", len(fields), len(label.Options))
	}
	for i, field := range fields {
		if field.Key != label.Options[i].Name {
			t.Errorf("field %v is %v, expected %v", i, field.Key, label.Options[i].Name)
		}
		switch field.Key {
		case "bins":
			if field.Integer != 7 {
				t.Errorf("bins logged as %v", field.Integer)
			}
		case "COMVAR":
			if field.Integer != 0 {
				t.Error("COMVAR logged as set")
			}
		}
	}
}
