package tabsurvey

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/salijona/C-AdvDGM/metrics"
	"github.com/salijona/C-AdvDGM/models"
	advErrors "github.com/salijona/C-AdvDGM/pkg/errors"
	"github.com/salijona/C-AdvDGM/search"
)

func TestCallbackRejectsBadNorm(t *testing.T) {
	_, err := NewRLNCallback(mat.NewDense(2, 2, nil), 3, -7.5, 0.001)
	var invalid *advErrors.ValidationError
	assert.True(t, advErrors.As(err, &invalid))
}

func TestCallbackFirstBatchShrinksWeights(t *testing.T) {
	w := mat.NewDense(2, 2, []float64{0.5, -0.5, 0.25, 0})
	cb, err := NewRLNCallback(w, 1, -7.5, 0.001)
	require.NoError(t, err)

	cb.OnTrainBegin()
	cb.OnBatchEnd()

	// On the first batch no λ gradient exists yet, so every nonzero weight
	// moves toward zero by exactly sign(w)·exp(θ).
	step := math.Exp(-7.5)
	assert.InDelta(t, 0.5-step, w.At(0, 0), 1e-15)
	assert.InDelta(t, -0.5+step, w.At(0, 1), 1e-15)
	assert.InDelta(t, 0.25-step, w.At(1, 0), 1e-15)
	assert.Equal(t, 0.0, w.At(1, 1))
}

func TestCallbackLambdaClipPreventsOvershoot(t *testing.T) {
	// A tiny weight with a huge θ: without clipping, exp(θ) would flip the
	// weight's sign; the clip caps the step at |w| instead.
	w := mat.NewDense(1, 1, []float64{1e-6})
	cb, err := NewRLNCallback(w, 1, 5, 0.001)
	require.NoError(t, err)

	cb.OnTrainBegin()
	cb.OnBatchEnd()

	assert.InDelta(t, 0, w.At(0, 0), 1e-18)
	assert.LessOrEqual(t, cb.Lambdas().At(0, 0), math.Log(1e-6)+1e-12)
}

func TestCallbackLambdaMeanStaysAtTheta(t *testing.T) {
	w := mat.NewDense(2, 3, []float64{0.4, -0.3, 0.2, -0.1, 0.5, -0.6})
	cb, err := NewRLNCallback(w, 2, -8, 100)
	require.NoError(t, err)

	cb.OnTrainBegin()
	for step := 0; step < 5; step++ {
		// Simulate SGD movement between callback invocations.
		r, c := w.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				w.Set(i, j, w.At(i, j)+float64(i-j)*1e-4)
			}
		}
		cb.OnBatchEnd()
	}

	// The projection keeps mean(λ) at θ; the later clip can only lower it.
	r, c := cb.Lambdas().Dims()
	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sum += cb.Lambdas().At(i, j)
		}
	}
	assert.LessOrEqual(t, sum/float64(r*c), -8+1e-9)
}

func regressionData(n int) (*mat.Dense, []float64) {
	x := mat.NewDense(n, 3, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := math.Sin(float64(i) * 0.7)
		b := math.Cos(float64(i) * 1.3)
		c := float64(i%10) / 10
		x.Set(i, 0, a)
		x.Set(i, 1, b)
		x.Set(i, 2, c)
		y[i] = 2*a - b + 0.5*c
	}
	return x, y
}

func classificationData(n int) (*mat.Dense, []float64) {
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := math.Sin(float64(i) * 2.1)
		b := math.Cos(float64(i) * 0.9)
		x.Set(i, 0, a)
		x.Set(i, 1, b)
		if a+b > 0 {
			y[i] = 1
		}
	}
	return x, y
}

func TestRLNNetRegression(t *testing.T) {
	x, y := regressionData(400)

	n, err := NewRLNNet(models.Config{
		Objective:    models.ObjectiveRegression,
		Epochs:       150,
		BatchSize:    32,
		LearningRate: 0.05,
		ScalerType:   "standard",
		Params:       map[string]any{"hidden_dim": 32, "n_layers": 2, "theta": -12},
	})
	require.NoError(t, err)
	require.NoError(t, n.Fit(x, y))

	preds, err := n.Predict(x)
	require.NoError(t, err)
	mse, err := metrics.MSE(y, preds)
	require.NoError(t, err)

	// Predicting the mean would score around 2.5.
	assert.Less(t, mse, 0.5)
}

func TestRLNNetClassification(t *testing.T) {
	x, y := classificationData(400)

	n, err := NewRLNNet(models.Config{
		Objective:    models.ObjectiveClassification,
		NumClasses:   2,
		Epochs:       150,
		BatchSize:    32,
		LearningRate: 0.05,
		Params:       map[string]any{"hidden_dim": 16, "n_layers": 2, "theta": -12},
	})
	require.NoError(t, err)
	require.NoError(t, n.Fit(x, y))

	preds, err := n.Predict(x)
	require.NoError(t, err)
	yTrue := make([]int, len(y))
	yPred := make([]int, len(preds))
	for i := range y {
		yTrue[i] = int(y[i])
		yPred[i] = int(preds[i])
	}
	acc, err := metrics.Accuracy(yTrue, yPred)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.85)

	proba, err := n.PredictProba(x)
	require.NoError(t, err)
	require.Len(t, proba, 400)
	for _, row := range proba[:10] {
		require.Len(t, row, 2)
		assert.InDelta(t, 1, row[0]+row[1], 1e-9)
	}
}

func TestRLNNetDeterministicUnderSeed(t *testing.T) {
	x, y := regressionData(200)

	run := func() []float64 {
		n, err := NewRLNNet(models.Config{
			Objective: models.ObjectiveRegression,
			Epochs:    10,
			BatchSize: 32,
			Seed:      7,
			Params:    map[string]any{"hidden_dim": 8, "n_layers": 2},
		})
		require.NoError(t, err)
		require.NoError(t, n.Fit(x, y))
		preds, err := n.Predict(x)
		require.NoError(t, err)
		return preds
	}

	assert.Equal(t, run(), run())
}

func TestRLNNetRegisteredInRegistry(t *testing.T) {
	m, err := models.Load("rln", models.Config{
		Objective:  models.ObjectiveClassification,
		NumClasses: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "rln", m.Name())

	params := m.DefaultParams()
	assert.Equal(t, 100, params["hidden_dim"])
	assert.Equal(t, 5, params["n_layers"])
	assert.Equal(t, -7.5, params["theta"])
}

func TestRLNNetTrialSpace(t *testing.T) {
	n, err := NewRLNNet(models.Config{})
	require.NoError(t, err)

	study := search.NewStudy(search.Minimize, 5)
	err = study.Optimize(func(tr *search.Trial) (float64, error) {
		params := n.DefineTrialParams(tr)

		hd := params["hidden_dim"].(int)
		assert.GreaterOrEqual(t, hd, 100)
		assert.LessOrEqual(t, hd, 200)

		lr := params["learning_rate"].(float64)
		assert.GreaterOrEqual(t, lr, 0.0005)
		assert.Less(t, lr, 0.001)

		assert.Contains(t, []any{1, 2}, params["norm"])

		theta := params["theta"].(int)
		assert.GreaterOrEqual(t, theta, -12)
		assert.LessOrEqual(t, theta, -8)
		return 0, nil
	}, 20)
	require.NoError(t, err)
}

func TestRLNNetRejectsBadConfig(t *testing.T) {
	_, err := NewRLNNet(models.Config{Objective: models.ObjectiveClassification})
	assert.Error(t, err)

	_, err = NewRLNNet(models.Config{Params: map[string]any{"n_layers": 0}})
	assert.Error(t, err)

	_, err = NewRLNNet(models.Config{ScalerType: "robust"})
	assert.Error(t, err)
}

func TestRLNNetNotFitted(t *testing.T) {
	n, err := NewRLNNet(models.Config{})
	require.NoError(t, err)

	_, err = n.Predict(mat.NewDense(1, 3, nil))
	var notFitted *advErrors.NotFittedError
	assert.True(t, advErrors.As(err, &notFitted))
}
