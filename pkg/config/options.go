package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RunOptions describes one job run as requested on the command line.
type RunOptions struct {
	// Job is the registered name of the job to run.
	Job string `validate:"required"`

	// ValuesFile is an optional YAML file of seed values.
	ValuesFile string

	// Pairs are key=value overrides; they win over the values file.
	Pairs []string

	// Renderer selects the status renderer (console, markdown, none).
	Renderer string `validate:"oneof=console markdown none"`

	// ShowDetail includes low-importance messages in the rendered output.
	ShowDetail bool

	// HistoryPath is the run-history database path; empty disables
	// recording.
	HistoryPath string
}

// Validate checks the options.
func (o *RunOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid run options: %w", err)
	}
	return nil
}

// SeedValues loads the values file, parses the pairs, and merges them
// with the pairs winning.
func (o *RunOptions) SeedValues() (map[string]any, error) {
	values := map[string]any{}
	if o.ValuesFile != "" {
		loaded, err := LoadValuesFile(o.ValuesFile)
		if err != nil {
			return nil, err
		}
		values = loaded
	}

	overrides, err := ParsePairs(o.Pairs)
	if err != nil {
		return nil, err
	}
	return Merge(values, overrides), nil
}
