package models

import (
	"gonum.org/v1/gonum/mat"

	"github.com/salijona/C-AdvDGM/core/model"
	"github.com/salijona/C-AdvDGM/core/parallel"
	"github.com/salijona/C-AdvDGM/pkg/errors"
	"github.com/salijona/C-AdvDGM/search"
)

func init() {
	Register("linear", func(cfg Config) (Model, error) {
		if cfg.Objective == ObjectiveClassification {
			return nil, errors.NewValidationError("objective",
				"the linear model only supports regression", cfg.Objective)
		}
		return NewLinearModel(), nil
	})
}

// LinearModel is ordinary least squares solved by the normal equation
// w = (XᵀX)⁻¹Xᵀy. It has no hyperparameters and serves as the baseline
// entry of the registry.
type LinearModel struct {
	model.StateManager

	Weights   []float64
	Intercept float64
}

// NewLinearModel creates an untrained linear model.
func NewLinearModel() *LinearModel {
	return &LinearModel{}
}

// Name returns the registry name.
func (m *LinearModel) Name() string { return "linear" }

// Fit solves the normal equation for the given data.
func (m *LinearModel) Fit(x *mat.Dense, y []float64) error {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("LinearModel.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(y) != r {
		return errors.NewDimensionError("LinearModel.Fit", r, len(y), 0)
	}

	// Prepend an all-ones column for the intercept.
	design := mat.NewDense(r, c+1, nil)
	parallel.ParallelizeWithThreshold(r, 1000, func(start, end int) {
		for i := start; i < end; i++ {
			design.Set(i, 0, 1)
			for j := 0; j < c; j++ {
				design.Set(i, j+1, x.At(i, j))
			}
		}
	})

	var xtx mat.Dense
	xtx.Mul(design.T(), design)

	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return errors.NewModelError("LinearModel.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	var xty mat.VecDense
	xty.MulVec(design.T(), mat.NewVecDense(r, y))

	weights := mat.NewVecDense(c+1, nil)
	weights.MulVec(&inv, &xty)

	m.Intercept = weights.AtVec(0)
	m.Weights = make([]float64, c)
	for j := 0; j < c; j++ {
		m.Weights[j] = weights.AtVec(j + 1)
	}

	m.SetDimensions(c, r)
	m.SetFitted()
	return nil
}

// Predict returns the fitted linear combination per row.
func (m *LinearModel) Predict(x mat.Matrix) ([]float64, error) {
	if err := m.RequireFitted("LinearModel", "Predict"); err != nil {
		return nil, err
	}
	r, c := x.Dims()
	if c != len(m.Weights) {
		return nil, errors.NewDimensionError("LinearModel.Predict", len(m.Weights), c, 1)
	}

	out := make([]float64, r)
	for i := 0; i < r; i++ {
		pred := m.Intercept
		for j := 0; j < c; j++ {
			pred += x.At(i, j) * m.Weights[j]
		}
		out[i] = pred
	}
	return out, nil
}

// PredictProba is unsupported: the linear model is regression-only.
func (m *LinearModel) PredictProba(mat.Matrix) ([][]float64, error) {
	return nil, errors.NewValueError("LinearModel.PredictProba",
		"classification not supported")
}

// DefineTrialParams returns an empty space: the model has nothing to tune.
func (m *LinearModel) DefineTrialParams(*search.Trial) map[string]any {
	return map[string]any{}
}

// DefaultParams returns an empty parameter set.
func (m *LinearModel) DefaultParams() map[string]any {
	return map[string]any{}
}
