// Package config carries process-wide toggles and the optional on-disk
// analysis configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Version is the current Mamba analyzer version.
var Version = "0.2.0"

const SourceFileExt = ".mamba"

// IsTestMode indicates the process is running under the test harness.
// Set once at startup; compilation runs skip non-deterministic run ids
// when it is on, so test output stays stable.
var IsTestMode = false

// AnalysisOptions is the optional `.mamba.yaml` sitting next to an entry
// file. Every field has a zero-value-safe default so a missing file, or a
// file that sets nothing, behaves exactly like DefaultAnalysisOptions.
type AnalysisOptions struct {
	// MaxDisjunctionFanOut bounds how many overload candidates a single
	// identifier's disjunction may fork into before the solver gives up on
	// that branch. Zero means unbounded.
	MaxDisjunctionFanOut int `yaml:"max_disjunction_fan_out"`

	// Color toggles ANSI colorization of CLI diagnostics when stdout is a
	// terminal. It has no effect when stdout is redirected.
	Color bool `yaml:"color"`
}

// DefaultAnalysisOptions is used when no `.mamba.yaml` is found.
func DefaultAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{MaxDisjunctionFanOut: 64, Color: true}
}

// LoadAnalysisOptions reads path (typically ".mamba.yaml" next to the entry
// file) and merges it over DefaultAnalysisOptions. A missing file is not an
// error: it simply yields the defaults.
func LoadAnalysisOptions(path string) (AnalysisOptions, error) {
	opts := DefaultAnalysisOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, err
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, err
	}
	return opts, nil
}
