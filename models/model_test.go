package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/salijona/C-AdvDGM/metrics"
	advErrors "github.com/salijona/C-AdvDGM/pkg/errors"
)

func TestRegistry(t *testing.T) {
	assert.Contains(t, Names(), "linear")

	m, err := Load("linear", Config{})
	require.NoError(t, err)
	assert.Equal(t, "linear", m.Name())

	_, err = Load("gradient_unicorn", Config{})
	assert.True(t, advErrors.Is(err, advErrors.ErrUnknownModel))

	_, err = LoadAll([]string{"linear", "gradient_unicorn"}, Config{})
	assert.True(t, advErrors.Is(err, advErrors.ErrUnknownModel))
}

func TestConfigDefaultsAndValidation(t *testing.T) {
	cfg := Config{}.WithDefaults()
	assert.Equal(t, ObjectiveRegression, cfg.Objective)
	assert.Equal(t, 128, cfg.BatchSize)
	assert.Equal(t, uint64(42), cfg.Seed)
	require.NoError(t, cfg.Validate())

	bad := Config{Objective: ObjectiveClassification, NumClasses: 1}
	var invalid *advErrors.ValidationError
	assert.True(t, advErrors.As(bad.Validate(), &invalid))

	bad = Config{Objective: "clustering"}
	assert.Error(t, bad.Validate())
}

func TestConfigParamHelpers(t *testing.T) {
	cfg := Config{Params: map[string]any{
		"hidden_dim": float64(150), // YAML numbers arrive as float64
		"n_layers":   3,
		"theta":      -9,
	}}
	assert.Equal(t, 150, cfg.IntParam("hidden_dim", 100))
	assert.Equal(t, 3, cfg.IntParam("n_layers", 5))
	assert.Equal(t, -9.0, cfg.FloatParam("theta", -7.5))
	assert.Equal(t, 0.001, cfg.FloatParam("learning_rate", 0.001))
}

func TestLinearModelRecoversCoefficients(t *testing.T) {
	// y = 3 + 2*x0 - x1
	n := 50
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := float64(i)
		b := float64((i * 7) % 13)
		x.Set(i, 0, a)
		x.Set(i, 1, b)
		y[i] = 3 + 2*a - b
	}

	m := NewLinearModel()
	require.NoError(t, m.Fit(x, y))

	assert.InDelta(t, 3, m.Intercept, 1e-8)
	assert.InDelta(t, 2, m.Weights[0], 1e-8)
	assert.InDelta(t, -1, m.Weights[1], 1e-8)

	preds, err := m.Predict(x)
	require.NoError(t, err)
	r2, err := metrics.R2Score(y, preds)
	require.NoError(t, err)
	assert.InDelta(t, 1, r2, 1e-10)
}

func TestLinearModelErrors(t *testing.T) {
	m := NewLinearModel()

	_, err := m.Predict(mat.NewDense(1, 1, []float64{1}))
	var notFitted *advErrors.NotFittedError
	assert.True(t, advErrors.As(err, &notFitted))

	err = m.Fit(mat.NewDense(2, 1, []float64{1, 2}), []float64{1})
	var dim *advErrors.DimensionError
	assert.True(t, advErrors.As(err, &dim))

	_, err = m.PredictProba(mat.NewDense(1, 1, nil))
	assert.Error(t, err)

	// Duplicated columns make XᵀX singular.
	x := mat.NewDense(3, 2, []float64{1, 1, 2, 2, 3, 3})
	err = m.Fit(x, []float64{1, 2, 3})
	assert.True(t, advErrors.Is(err, advErrors.ErrSingularMatrix))
}
