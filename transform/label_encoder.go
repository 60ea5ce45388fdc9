package transform

import (
	"encoding/gob"
	"math"

	"github.com/salijona/C-AdvDGM/core/random"
	"github.com/salijona/C-AdvDGM/dataset"
	"github.com/salijona/C-AdvDGM/pkg/errors"
)

func init() {
	Register("label_encoder", SDTypeCategorical, func() Transformer {
		return NewLabelEncoder()
	})
	gob.Register(&LabelEncoder{})
}

// LabelEncoder maps categories to ordinal codes in first-seen order. With
// AddNoise the code is jittered uniformly within its unit interval using the
// transform-phase stream, which spreads identical categories for the
// generator while ReverseTransform still floors back to the exact code.
type LabelEncoder struct {
	Base

	AddNoise bool

	Categories []string
}

// NewLabelEncoder creates the encoder without noise.
func NewLabelEncoder() *LabelEncoder {
	t := &LabelEncoder{}
	t.Base = newBase("label_encoder", SDTypeCategorical, false, []OutputProperty{
		{Suffix: "", SDType: SDTypeFloat},
	})
	return t
}

// Params returns the current hyperparameter configuration.
func (t *LabelEncoder) Params() map[string]any {
	return map[string]any{"add_noise": t.AddNoise}
}

// DefaultParams returns the default hyperparameter configuration.
func (t *LabelEncoder) DefaultParams() map[string]any {
	return NewLabelEncoder().Params()
}

// Fit records the categories of the column.
func (t *LabelEncoder) Fit(tbl *dataset.Table, column string) error {
	return t.runFit(tbl, column, t.fit)
}

// Transform replaces categories with their (optionally jittered) codes.
func (t *LabelEncoder) Transform(tbl *dataset.Table) (*dataset.Table, error) {
	return t.runTransform(tbl, t.transform)
}

// ReverseTransform maps codes back to categories. Noisy codes live in
// [code, code+1) and are floored; plain codes are rounded to the nearest
// integer so small perturbations stay on the same category.
func (t *LabelEncoder) ReverseTransform(tbl *dataset.Table) (*dataset.Table, error) {
	return t.runReverse(tbl, t.reverse)
}

func (t *LabelEncoder) fit(col dataset.Column, _ *random.State) error {
	if col.Kind != dataset.String {
		return errors.NewValueError(t.TransformerName+".Fit", "column '"+col.Name+"' is not categorical")
	}

	seen := make(map[string]bool, 8)
	t.Categories = t.Categories[:0]
	for _, v := range col.Strings {
		if !seen[v] {
			seen[v] = true
			t.Categories = append(t.Categories, v)
		}
	}
	return nil
}

func (t *LabelEncoder) transform(col dataset.Column, st *random.State) ([]dataset.Column, error) {
	index := make(map[string]int, len(t.Categories))
	for i, c := range t.Categories {
		index[c] = i
	}

	encoded := make([]float64, col.Len())
	for i, v := range col.Strings {
		j, ok := index[v]
		if !ok {
			return nil, errors.NewUnknownCategoryError(t.TransformerName, t.InputColumn(), v)
		}
		encoded[i] = float64(j)
		if t.AddNoise {
			encoded[i] += st.General().Float64()
		}
	}
	return []dataset.Column{dataset.FloatColumn("", encoded)}, nil
}

func (t *LabelEncoder) reverse(outputs *dataset.Table, _ *random.State) (dataset.Column, error) {
	encoded, err := outputs.Column(t.outputName(""))
	if err != nil {
		return dataset.Column{}, err
	}

	last := float64(len(t.Categories) - 1)
	restored := make([]string, encoded.Len())
	for i, v := range encoded.Floats {
		code := math.Round(v)
		if t.AddNoise {
			code = math.Floor(v)
		}
		j := int(clip(code, 0, last))
		restored[i] = t.Categories[j]
	}
	return dataset.StringColumn("", restored), nil
}
