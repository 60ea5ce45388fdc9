package transform

import (
	"encoding/gob"
	"fmt"

	"github.com/salijona/C-AdvDGM/core/random"
	"github.com/salijona/C-AdvDGM/dataset"
	"github.com/salijona/C-AdvDGM/pkg/errors"
)

func init() {
	Register("one_hot_encoder", SDTypeCategorical, func() Transformer {
		return NewOneHotEncoder()
	})
	gob.Register(&OneHotEncoder{})
}

// OneHotEncoder expands a categorical column into one indicator column per
// category, in first-seen order. ReverseTransform takes the argmax, so noisy
// generator output still maps to a valid category.
type OneHotEncoder struct {
	Base

	Categories []string
}

// NewOneHotEncoder creates the encoder.
func NewOneHotEncoder() *OneHotEncoder {
	t := &OneHotEncoder{}
	t.Base = newBase("one_hot_encoder", SDTypeCategorical, false, nil)
	return t
}

// Params returns the current hyperparameter configuration.
func (t *OneHotEncoder) Params() map[string]any { return map[string]any{} }

// Fit records the categories of the column.
func (t *OneHotEncoder) Fit(tbl *dataset.Table, column string) error {
	return t.runFit(tbl, column, t.fit)
}

// Transform expands the column into indicator columns.
func (t *OneHotEncoder) Transform(tbl *dataset.Table) (*dataset.Table, error) {
	return t.runTransform(tbl, t.transform)
}

// ReverseTransform maps indicator columns back to categories via argmax.
func (t *OneHotEncoder) ReverseTransform(tbl *dataset.Table) (*dataset.Table, error) {
	return t.runReverse(tbl, t.reverse)
}

func (t *OneHotEncoder) fit(col dataset.Column, _ *random.State) error {
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

	t.Props = make([]OutputProperty, len(t.Categories))
	for i := range t.Categories {
		t.Props[i] = OutputProperty{Suffix: fmt.Sprintf("value%d", i), SDType: SDTypeFloat}
	}
	return nil
}

func (t *OneHotEncoder) transform(col dataset.Column, _ *random.State) ([]dataset.Column, error) {
	index := make(map[string]int, len(t.Categories))
	for i, c := range t.Categories {
		index[c] = i
	}

	n := col.Len()
	indicators := make([][]float64, len(t.Categories))
	for j := range indicators {
		indicators[j] = make([]float64, n)
	}
	for i, v := range col.Strings {
		j, ok := index[v]
		if !ok {
			return nil, errors.NewUnknownCategoryError(t.TransformerName, t.InputColumn(), v)
		}
		indicators[j][i] = 1
	}

	out := make([]dataset.Column, len(indicators))
	for j, vals := range indicators {
		out[j] = dataset.FloatColumn("", vals)
	}
	return out, nil
}

func (t *OneHotEncoder) reverse(outputs *dataset.Table, _ *random.State) (dataset.Column, error) {
	cols := make([]*dataset.Column, len(t.Categories))
	for j := range t.Categories {
		c, err := outputs.Column(t.Outputs[j])
		if err != nil {
			return dataset.Column{}, err
		}
		cols[j] = c
	}

	n := outputs.Len()
	restored := make([]string, n)
	for i := 0; i < n; i++ {
		best := 0
		for j := 1; j < len(cols); j++ {
			if cols[j].Floats[i] > cols[best].Floats[i] {
				best = j
			}
		}
		restored[i] = t.Categories[best]
	}
	return dataset.StringColumn("", restored), nil
}
