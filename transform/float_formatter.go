package transform

import (
	"encoding/gob"
	"math"

	"github.com/salijona/C-AdvDGM/core/random"
	"github.com/salijona/C-AdvDGM/dataset"
	"github.com/salijona/C-AdvDGM/pkg/errors"
)

func init() {
	Register("float_formatter", SDTypeNumerical, func() Transformer {
		return NewFloatFormatter()
	})
	gob.Register(&FloatFormatter{})
}

const maxRoundingDigits = 15

// FloatFormatter is the plain continuous transformer: it imputes missing
// values, optionally learns the column's rounding precision and value range,
// and applies both on the way back. It draws no randomness.
type FloatFormatter struct {
	Base

	// MissingValueReplacement selects the imputation statistic: "mean" or
	// "mode". Empty selects "mean" with a warning.
	MissingValueReplacement string
	ModelMissingValues      bool
	LearnRoundingScheme     bool
	EnforceMinMaxValues     bool

	// Learned parameters.
	FillValue     float64
	MinValue      float64
	MaxValue      float64
	RoundDigits   int // -1 when no scheme was learned
	HasNulls      bool
}

// NewFloatFormatter creates the transformer with mean imputation and no
// rounding or clipping.
func NewFloatFormatter() *FloatFormatter {
	t := &FloatFormatter{
		MissingValueReplacement: "mean",
		ModelMissingValues:      true,
		RoundDigits:             -1,
	}
	t.Base = newBase("float_formatter", SDTypeNumerical, false, nil)
	return t
}

// Params returns the current hyperparameter configuration.
func (t *FloatFormatter) Params() map[string]any {
	return map[string]any{
		"missing_value_replacement": t.MissingValueReplacement,
		"model_missing_values":      t.ModelMissingValues,
		"learn_rounding_scheme":     t.LearnRoundingScheme,
		"enforce_min_max_values":    t.EnforceMinMaxValues,
	}
}

// DefaultParams returns the default hyperparameter configuration.
func (t *FloatFormatter) DefaultParams() map[string]any {
	return NewFloatFormatter().Params()
}

// Fit learns the imputation value and, when enabled, the rounding scheme and
// value range of the column.
func (t *FloatFormatter) Fit(tbl *dataset.Table, column string) error {
	return t.runFit(tbl, column, t.fit)
}

// Transform imputes missing values.
func (t *FloatFormatter) Transform(tbl *dataset.Table) (*dataset.Table, error) {
	return t.runTransform(tbl, t.transform)
}

// ReverseTransform restores rounding, clipping and missing values.
func (t *FloatFormatter) ReverseTransform(tbl *dataset.Table) (*dataset.Table, error) {
	return t.runReverse(tbl, t.reverse)
}

func (t *FloatFormatter) fit(col dataset.Column, _ *random.State) error {
	if col.Kind != dataset.Float {
		return errors.NewValueError(t.TransformerName+".Fit", "column '"+col.Name+"' is not numeric")
	}

	switch t.MissingValueReplacement {
	case "mean", "mode":
	case "":
		errors.Warn(errors.Newf(
			"missing_value_replacement is unset; imputing with the mean instead"))
		t.MissingValueReplacement = "mean"
	default:
		return errors.NewValidationError("missing_value_replacement",
			"must be 'mean' or 'mode'", t.MissingValueReplacement)
	}

	observed := make([]float64, 0, len(col.Floats))
	for _, v := range col.Floats {
		if math.IsNaN(v) {
			t.HasNulls = true
		} else {
			observed = append(observed, v)
		}
	}
	if len(observed) == 0 {
		return errors.NewModelError(t.TransformerName+".Fit", "column contains only missing values", errors.ErrEmptyData)
	}

	if t.MissingValueReplacement == "mode" {
		t.FillValue = mode(observed)
	} else {
		var sum float64
		for _, v := range observed {
			sum += v
		}
		t.FillValue = sum / float64(len(observed))
	}

	t.MinValue, t.MaxValue = observed[0], observed[0]
	for _, v := range observed {
		t.MinValue = math.Min(t.MinValue, v)
		t.MaxValue = math.Max(t.MaxValue, v)
	}

	t.RoundDigits = -1
	if t.LearnRoundingScheme {
		t.RoundDigits = learnRoundingDigits(observed)
	}

	t.Props = []OutputProperty{{Suffix: "", SDType: SDTypeFloat}}
	if t.ModelMissingValues && t.HasNulls {
		t.Props = append(t.Props, OutputProperty{Suffix: "is_null", SDType: SDTypeFloat})
	}
	return nil
}

func (t *FloatFormatter) transform(col dataset.Column, _ *random.State) ([]dataset.Column, error) {
	n := col.Len()
	values := make([]float64, n)
	isNull := make([]float64, n)
	for i, v := range col.Floats {
		if math.IsNaN(v) {
			values[i] = t.FillValue
			isNull[i] = 1
		} else {
			values[i] = v
		}
	}

	out := []dataset.Column{dataset.FloatColumn("", values)}
	if t.ModelMissingValues && t.HasNulls {
		out = append(out, dataset.FloatColumn("is_null", isNull))
	}
	return out, nil
}

func (t *FloatFormatter) reverse(outputs *dataset.Table, _ *random.State) (dataset.Column, error) {
	values, err := outputs.Column(t.outputName(""))
	if err != nil {
		return dataset.Column{}, err
	}

	var isNull *dataset.Column
	if t.ModelMissingValues && t.HasNulls {
		if isNull, err = outputs.Column(t.outputName("is_null")); err != nil {
			return dataset.Column{}, err
		}
	}

	restored := make([]float64, values.Len())
	for i, v := range values.Floats {
		if t.EnforceMinMaxValues {
			v = clip(v, t.MinValue, t.MaxValue)
		}
		if t.RoundDigits >= 0 {
			v = roundTo(v, t.RoundDigits)
		}
		if isNull != nil && isNull.Floats[i] > 0.5 {
			v = math.NaN()
		}
		restored[i] = v
	}
	return dataset.FloatColumn("", restored), nil
}

func mode(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	best := values[0]
	bestCount := 0
	for _, v := range values {
		counts[v]++
		if counts[v] > bestCount || (counts[v] == bestCount && v < best) {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}

func roundTo(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(v*scale) / scale
}

// learnRoundingDigits finds the smallest number of decimal digits that
// represents every observed value exactly, or -1 when none does.
func learnRoundingDigits(values []float64) int {
	for digits := 0; digits <= maxRoundingDigits; digits++ {
		ok := true
		for _, v := range values {
			if math.Abs(roundTo(v, digits)-v) > 1e-12*math.Max(1, math.Abs(v)) {
				ok = false
				break
			}
		}
		if ok {
			return digits
		}
	}
	return -1
}
