package transform

import (
	"encoding/gob"

	"github.com/salijona/C-AdvDGM/core/random"
	"github.com/salijona/C-AdvDGM/dataset"
	"github.com/salijona/C-AdvDGM/pkg/errors"
)

func init() {
	Register("uniform_encoder", SDTypeCategorical, func() Transformer {
		return NewUniformEncoder()
	})
	gob.Register(&UniformEncoder{})
}

// UniformEncoder maps each category onto a subinterval of [0, 1) whose width
// is the category's relative frequency, and transforms a value by sampling
// uniformly inside its category's interval with the transform-phase stream.
// ReverseTransform bins values back into exact categories, so the round trip
// is lossless while the encoded column looks continuous to the generator.
type UniformEncoder struct {
	Base

	// Categories in first-seen order; Starts[i] and Ends[i] delimit the
	// interval of Categories[i]. Ends[len-1] is 1.
	Categories []string
	Starts     []float64
	Ends       []float64
}

// NewUniformEncoder creates the encoder.
func NewUniformEncoder() *UniformEncoder {
	t := &UniformEncoder{}
	t.Base = newBase("uniform_encoder", SDTypeCategorical, false, []OutputProperty{
		{Suffix: "", SDType: SDTypeFloat},
	})
	return t
}

// Params returns the current hyperparameter configuration.
func (t *UniformEncoder) Params() map[string]any { return map[string]any{} }

// Fit learns the frequency intervals of the column's categories.
func (t *UniformEncoder) Fit(tbl *dataset.Table, column string) error {
	return t.runFit(tbl, column, t.fit)
}

// Transform replaces categories with uniform draws from their intervals.
func (t *UniformEncoder) Transform(tbl *dataset.Table) (*dataset.Table, error) {
	return t.runTransform(tbl, t.transform)
}

// ReverseTransform bins encoded values back into their categories.
func (t *UniformEncoder) ReverseTransform(tbl *dataset.Table) (*dataset.Table, error) {
	return t.runReverse(tbl, t.reverse)
}

func (t *UniformEncoder) fit(col dataset.Column, _ *random.State) error {
	if col.Kind != dataset.String {
		return errors.NewValueError(t.TransformerName+".Fit", "column '"+col.Name+"' is not categorical")
	}

	counts := make(map[string]int, 8)
	t.Categories = t.Categories[:0]
	for _, v := range col.Strings {
		if _, seen := counts[v]; !seen {
			t.Categories = append(t.Categories, v)
		}
		counts[v]++
	}

	n := float64(col.Len())
	t.Starts = make([]float64, len(t.Categories))
	t.Ends = make([]float64, len(t.Categories))
	cum := 0.0
	for i, c := range t.Categories {
		t.Starts[i] = cum
		cum += float64(counts[c]) / n
		t.Ends[i] = cum
	}
	// Absorb accumulated float error so the last interval closes at 1.
	t.Ends[len(t.Ends)-1] = 1
	return nil
}

func (t *UniformEncoder) transform(col dataset.Column, st *random.State) ([]dataset.Column, error) {
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
		a, b := t.Starts[j], t.Ends[j]
		encoded[i] = a + st.General().Float64()*(b-a)
	}
	return []dataset.Column{dataset.FloatColumn("", encoded)}, nil
}

func (t *UniformEncoder) reverse(outputs *dataset.Table, _ *random.State) (dataset.Column, error) {
	encoded, err := outputs.Column(t.outputName(""))
	if err != nil {
		return dataset.Column{}, err
	}

	restored := make([]string, encoded.Len())
	for i, v := range encoded.Floats {
		v = clip(v, 0, 1)
		j := len(t.Categories) - 1
		for idx, end := range t.Ends {
			if v < end {
				j = idx
				break
			}
		}
		restored[i] = t.Categories[j]
	}
	return dataset.StringColumn("", restored), nil
}
