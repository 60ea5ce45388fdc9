// Package config loads experiment configurations from YAML files.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/salijona/C-AdvDGM/pkg/errors"
)

// Dataset points at the training data.
type Dataset struct {
	// Path to a CSV file with a header row.
	Path string `yaml:"path"`
	// Target names the label column.
	Target string `yaml:"target"`
	// HasHeader defaults to true.
	HasHeader *bool `yaml:"has_header,omitempty"`
}

// Columns declares how individual columns are transformed. Transformers
// wins over SDTypes for the same column.
type Columns struct {
	SDTypes      map[string]string `yaml:"sdtypes,omitempty"`
	Transformers map[string]string `yaml:"transformers,omitempty"`
}

// Model selects and configures the trained model.
type Model struct {
	Name                string         `yaml:"name"`
	Objective           string         `yaml:"objective"`
	NumClasses          int            `yaml:"num_classes,omitempty"`
	BatchSize           int            `yaml:"batch_size,omitempty"`
	Epochs              int            `yaml:"epochs,omitempty"`
	EarlyStoppingRounds int            `yaml:"early_stopping_rounds,omitempty"`
	LearningRate        float64        `yaml:"learning_rate,omitempty"`
	Scaler              string         `yaml:"scaler,omitempty"`
	Params              map[string]any `yaml:"params,omitempty"`
}

// Search configures the optional hyperparameter search.
type Search struct {
	Trials    int    `yaml:"trials,omitempty"`
	Direction string `yaml:"direction,omitempty"`
}

// Experiment is the root of an experiment YAML file.
type Experiment struct {
	Dataset Dataset `yaml:"dataset"`
	Columns Columns `yaml:"columns,omitempty"`
	Model   Model   `yaml:"model"`
	Search  Search  `yaml:"search,omitempty"`
	Seed    uint64  `yaml:"seed,omitempty"`
}

// Load reads and validates an experiment file.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates experiment YAML.
func Parse(data []byte) (*Experiment, error) {
	var exp Experiment
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return nil, errors.Wrap(err, "config: parsing yaml")
	}
	if err := exp.Validate(); err != nil {
		return nil, err
	}
	return &exp, nil
}

// Validate checks the fields no experiment can run without.
func (e *Experiment) Validate() error {
	if e.Dataset.Path == "" {
		return errors.NewValidationError("dataset.path", "must not be empty", e.Dataset.Path)
	}
	if e.Dataset.Target == "" {
		return errors.NewValidationError("dataset.target", "must not be empty", e.Dataset.Target)
	}
	if e.Model.Name == "" {
		return errors.NewValidationError("model.name", "must not be empty", e.Model.Name)
	}
	switch e.Model.Objective {
	case "classification":
		if e.Model.NumClasses < 2 {
			return errors.NewValidationError("model.num_classes",
				"classification needs at least two classes", e.Model.NumClasses)
		}
	case "regression", "":
	default:
		return errors.NewValidationError("model.objective",
			"must be 'classification' or 'regression'", e.Model.Objective)
	}
	if e.Search.Trials < 0 {
		return errors.NewValidationError("search.trials", "must not be negative", e.Search.Trials)
	}
	switch e.Search.Direction {
	case "", "minimize", "maximize":
	default:
		return errors.NewValidationError("search.direction",
			"must be 'minimize' or 'maximize'", e.Search.Direction)
	}
	return nil
}

// WithHeader reports whether the dataset CSV carries a header row.
func (d Dataset) WithHeader() bool {
	return d.HasHeader == nil || *d.HasHeader
}
