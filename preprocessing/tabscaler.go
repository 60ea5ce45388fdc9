package preprocessing

import (
	"encoding/gob"

	"gonum.org/v1/gonum/mat"

	"github.com/salijona/C-AdvDGM/core/model"
	"github.com/salijona/C-AdvDGM/dataset"
	"github.com/salijona/C-AdvDGM/pkg/errors"
	"github.com/salijona/C-AdvDGM/transform"
)

// Scaling method names accepted by NewTabScaler.
const (
	ScaleStandard = "standard"
	ScaleMinMax   = "min_max"
	ScaleCTGAN    = "ctgan"
	ScaleNone     = "none"
)

func init() {
	gob.Register(&TabScaler{})
}

// matrixScaler is the surface shared by the matrix scalers.
type matrixScaler interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}

// TabScaler adapts a table of mixed columns into the numeric matrix a model
// trains on, selecting the strategy by name: "standard" and "min_max" apply
// the matrix scalers to an all-numeric table, "ctgan" routes the table
// through a transform pipeline so categorical columns become valid model
// input, and "none" passes values through unchanged.
type TabScaler struct {
	model.StateManager

	Method string

	// Columns is the fitted table's column order, restored by
	// InverseTransform.
	Columns []string

	Scaler *StandardScaler
	MinMax *MinMaxScaler
	Hyper  *transform.HyperTransformer
}

// NewTabScaler creates a scaler for the given method. The seed only matters
// for the "ctgan" method, where it drives the pipeline's random streams.
func NewTabScaler(method string, seed uint64) (*TabScaler, error) {
	t := &TabScaler{Method: method}
	switch method {
	case ScaleStandard:
		t.Scaler = NewStandardScaler()
	case ScaleMinMax:
		t.MinMax = NewMinMaxScaler()
	case ScaleCTGAN:
		t.Hyper = transform.NewHyperTransformer(transform.WithSeed(seed))
	case ScaleNone:
	default:
		return nil, errors.NewValidationError("scaler",
			"must be 'standard', 'min_max', 'ctgan' or 'none'", method)
	}
	return t, nil
}

// Fit learns the scaling parameters from the table.
func (t *TabScaler) Fit(tbl *dataset.Table) error {
	switch t.Method {
	case ScaleCTGAN:
		if err := t.Hyper.Fit(tbl); err != nil {
			return err
		}
	case ScaleNone:
	default:
		X, err := tbl.Matrix()
		if err != nil {
			return err
		}
		if err := t.inner().Fit(X); err != nil {
			return err
		}
	}

	t.Columns = tbl.Columns()
	t.SetDimensions(tbl.NumColumns(), tbl.Len())
	t.SetFitted()
	return nil
}

// Transform converts the table into the model's input matrix.
func (t *TabScaler) Transform(tbl *dataset.Table) (mat.Matrix, error) {
	if err := t.RequireFitted("TabScaler", "Transform"); err != nil {
		return nil, err
	}

	switch t.Method {
	case ScaleCTGAN:
		out, err := t.Hyper.Transform(tbl)
		if err != nil {
			return nil, err
		}
		return out.Matrix()
	case ScaleNone:
		return tbl.Matrix()
	default:
		X, err := tbl.Matrix()
		if err != nil {
			return nil, err
		}
		return t.inner().Transform(X)
	}
}

// FitTransform fits the scaler and transforms the same table.
func (t *TabScaler) FitTransform(tbl *dataset.Table) (mat.Matrix, error) {
	if err := t.Fit(tbl); err != nil {
		return nil, err
	}
	return t.Transform(tbl)
}

// InverseTransform maps a model-space matrix back to a table with the
// original columns.
func (t *TabScaler) InverseTransform(X mat.Matrix) (*dataset.Table, error) {
	if err := t.RequireFitted("TabScaler", "InverseTransform"); err != nil {
		return nil, err
	}

	switch t.Method {
	case ScaleCTGAN:
		tbl, err := dataset.FromMatrix(t.Hyper.OutputColumns(), X)
		if err != nil {
			return nil, err
		}
		return t.Hyper.ReverseTransform(tbl)
	case ScaleNone:
		return dataset.FromMatrix(t.Columns, X)
	default:
		orig, err := t.inner().InverseTransform(X)
		if err != nil {
			return nil, err
		}
		return dataset.FromMatrix(t.Columns, orig)
	}
}

func (t *TabScaler) inner() matrixScaler {
	if t.Method == ScaleMinMax {
		return t.MinMax
	}
	return t.Scaler
}
