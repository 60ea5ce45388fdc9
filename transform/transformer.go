// Package transform implements the declarative column-transformer framework
// used to prepare tabular data for GAN-based synthetic-data generation.
//
// Transformers follow a fit / transform / reverse-transform lifecycle. Each
// instance owns one random stream pair per lifecycle phase (see core/random),
// so repeated runs on equal-seeded transformers reproduce exactly and never
// touch the process-global generators.
package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/salijona/C-AdvDGM/dataset"
	"github.com/salijona/C-AdvDGM/pkg/errors"
)

// Semantic data types accepted by transformers.
const (
	SDTypeNumerical   = "numerical"
	SDTypeCategorical = "categorical"
	SDTypeID          = "id"

	// Output sdtypes.
	SDTypeFloat = "float"
)

// OutputProperty describes one column a transformer produces. Suffix "" means
// the bare column prefix; otherwise the output is named "<prefix>.<suffix>".
type OutputProperty struct {
	Suffix          string
	SDType          string
	NextTransformer string
}

// Transformer is a single-column transformer bound to a table column by Fit.
// Transform and ReverseTransform may be called repeatedly afterwards; each
// call advances the corresponding phase stream.
type Transformer interface {
	// Name returns the registry name of the transformer.
	Name() string

	// InputSDType returns the sdtype the transformer accepts.
	InputSDType() string

	// SupportedSDTypes returns all sdtypes the transformer accepts.
	SupportedSDTypes() []string

	// IsGenerator reports whether ReverseTransform generates new data
	// instead of reconstructing transformed data.
	IsGenerator() bool

	// Fit binds the transformer to a column of the table and learns its
	// parameters, drawing only from the fit-phase streams.
	Fit(tbl *dataset.Table, column string) error

	// Transform replaces the input column with the transformer's output
	// columns, drawing only from the transform-phase streams.
	Transform(tbl *dataset.Table) (*dataset.Table, error)

	// ReverseTransform replaces the output columns with a reconstruction
	// of the input column, drawing only from the reverse-phase streams.
	ReverseTransform(tbl *dataset.Table) (*dataset.Table, error)

	// InputColumn returns the column name bound by Fit.
	InputColumn() string

	// OutputColumns returns the names of the columns created by Transform.
	OutputColumns() []string

	// OutputSDTypes maps output column names to their sdtypes.
	OutputSDTypes() map[string]string

	// NextTransformers maps output column names to suggested follow-up
	// transformer names; empty values mean none.
	NextTransformers() map[string]string

	// ResetRandomization restarts all three phase streams at their seeds.
	ResetRandomization()

	// Params returns the current hyperparameter configuration.
	Params() map[string]any
}

// FitTransform fits t to a column and immediately transforms the table.
func FitTransform(t Transformer, tbl *dataset.Table, column string) (*dataset.Table, error) {
	if err := t.Fit(tbl, column); err != nil {
		return nil, err
	}
	return t.Transform(tbl)
}

// ===========================================================================
//
//	Registry
//
// ===========================================================================

// Factory constructs a transformer with default hyperparameters.
type Factory func() Transformer

type registryEntry struct {
	factory Factory
	sdtype  string
}

var (
	registry = map[string]registryEntry{}

	// Default transformer per input sdtype, used by the HyperTransformer
	// when a column has no explicit assignment.
	sdtypeDefaults = map[string]string{
		SDTypeNumerical:   "cluster_based_normalizer",
		SDTypeCategorical: "one_hot_encoder",
		SDTypeID:          "id_generator",
	}
)

// Register adds a transformer constructor under a unique name. It is called
// from init functions; duplicate names panic at startup.
func Register(name, sdtype string, factory Factory) {
	if _, dup := registry[name]; dup {
		panic("transform: duplicate registration of " + name)
	}
	registry[name] = registryEntry{factory: factory, sdtype: sdtype}
}

// New constructs a registered transformer by name.
func New(name string) (Transformer, error) {
	entry, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownTransformer, "transform.New(%q)", name)
	}
	return entry.factory(), nil
}

// NewDefault constructs the default transformer for an input sdtype.
func NewDefault(sdtype string) (Transformer, error) {
	name, ok := sdtypeDefaults[sdtype]
	if !ok {
		return nil, errors.NewValueError("transform.NewDefault", "no default transformer for sdtype '"+sdtype+"'")
	}
	return New(name)
}

// Names returns all registered transformer names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NamesFor returns the registered transformer names accepting the sdtype.
func NamesFor(sdtype string) []string {
	var names []string
	for name, entry := range registry {
		if entry.sdtype == sdtype {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ===========================================================================
//
//	Configuration description
//
// ===========================================================================

type defaulter interface {
	DefaultParams() map[string]any
}

// Describe renders a transformer as "name(param=value, ...)", listing only
// parameters that differ from the type's defaults.
func Describe(t Transformer) string {
	params := t.Params()

	var defaults map[string]any
	if d, ok := t.(defaulter); ok {
		defaults = d.DefaultParams()
	}

	keys := make([]string, 0, len(params))
	for k, v := range params {
		if defaults != nil {
			if dv, ok := defaults[k]; ok && dv == v {
				continue
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return t.Name() + "(" + strings.Join(parts, ", ") + ")"
}
