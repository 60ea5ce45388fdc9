// Package models defines the trainable model interface and the registry the
// experiment runner loads models from. Concrete models register themselves
// by name in their package init.
package models

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/salijona/C-AdvDGM/pkg/errors"
	"github.com/salijona/C-AdvDGM/search"
)

// Objective names accepted by Config.
const (
	ObjectiveClassification = "classification"
	ObjectiveRegression     = "regression"
)

// Config carries the training configuration shared by registered models.
// Params holds model-specific hyperparameters by the names the model's
// DefaultParams and DefineTrialParams use.
type Config struct {
	Objective           string
	NumClasses          int
	BatchSize           int
	Epochs              int
	EarlyStoppingRounds int
	LearningRate        float64

	// ScalerType selects the preprocessing.TabScaler method applied to the
	// inputs: "standard", "min_max", "ctgan" or "none".
	ScalerType string

	// Seed drives weight initialization, batch shuffling and the
	// validation split.
	Seed uint64

	Params map[string]any
}

// WithDefaults fills the zero-valued training fields.
func (c Config) WithDefaults() Config {
	if c.Objective == "" {
		c.Objective = ObjectiveRegression
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 128
	}
	if c.Epochs <= 0 {
		c.Epochs = 100
	}
	if c.EarlyStoppingRounds <= 0 {
		c.EarlyStoppingRounds = 20
	}
	if c.LearningRate <= 0 {
		c.LearningRate = 0.001
	}
	if c.ScalerType == "" {
		c.ScalerType = "none"
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	return c
}

// Validate rejects configurations no model can train with.
func (c Config) Validate() error {
	switch c.Objective {
	case ObjectiveClassification:
		if c.NumClasses < 2 {
			return errors.NewValidationError("num_classes", "classification needs at least two classes", c.NumClasses)
		}
	case ObjectiveRegression:
	default:
		return errors.NewValidationError("objective", "must be 'classification' or 'regression'", c.Objective)
	}
	return nil
}

// IntParam reads an integer hyperparameter, tolerating float values from
// parsed config files.
func (c Config) IntParam(name string, fallback int) int {
	switch v := c.Params[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// FloatParam reads a float hyperparameter.
func (c Config) FloatParam(name string, fallback float64) float64 {
	switch v := c.Params[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

// Model is a trainable estimator over numeric feature matrices. For
// classification, y holds class indices and Predict returns the predicted
// index per row; PredictProba returns one probability row per sample.
type Model interface {
	Name() string
	Fit(x *mat.Dense, y []float64) error
	Predict(x mat.Matrix) ([]float64, error)
	PredictProba(x mat.Matrix) ([][]float64, error)

	// DefineTrialParams draws this model's search space from a trial and
	// returns the sampled hyperparameters.
	DefineTrialParams(tr *search.Trial) map[string]any
	DefaultParams() map[string]any
}

// ValidatedFitter is implemented by models that accept an explicit
// validation set instead of splitting one off internally.
type ValidatedFitter interface {
	FitValidated(x *mat.Dense, y []float64, xVal *mat.Dense, yVal []float64) error
}

// Factory builds a model from a configuration.
type Factory func(cfg Config) (Model, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a model factory under a unique name. Duplicate names panic,
// as they indicate conflicting init registrations.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("models: duplicate registration of " + name)
	}
	registry[name] = factory
}

// Load builds the named model.
func Load(name string, cfg Config) (Model, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownModel, "models: %q", name)
	}
	return factory(cfg)
}

// LoadAll builds every named model, failing on the first unknown name.
func LoadAll(names []string, cfg Config) ([]Model, error) {
	out := make([]Model, 0, len(names))
	for _, name := range names {
		m, err := Load(name, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Names returns the registered model names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
