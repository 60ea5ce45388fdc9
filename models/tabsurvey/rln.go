// Package tabsurvey implements the tabular-survey neural models. Its entry
// point is RLNNet, a multilayer perceptron trained with regularization
// learning on the first layer, registered under the name "rln".
package tabsurvey

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/salijona/C-AdvDGM/core/model"
	"github.com/salijona/C-AdvDGM/core/random"
	"github.com/salijona/C-AdvDGM/dataset"
	"github.com/salijona/C-AdvDGM/models"
	"github.com/salijona/C-AdvDGM/pkg/errors"
	"github.com/salijona/C-AdvDGM/pkg/log"
	"github.com/salijona/C-AdvDGM/preprocessing"
	"github.com/salijona/C-AdvDGM/search"
)

func init() {
	models.Register("rln", func(cfg models.Config) (models.Model, error) {
		return NewRLNNet(cfg)
	})
}

// Default hyperparameters, matching the published search space's defaults.
const (
	defaultHiddenDim = 100
	defaultNLayers   = 5
	defaultNorm      = 1
	defaultTheta     = -7.5

	validationFraction = 0.2
)

// denseLayer is one fully connected layer: out = x·W + b, with W laid out
// (inputs × outputs).
type denseLayer struct {
	W *mat.Dense
	B []float64
}

// RLNNet is a plain MLP (NLayers hidden ReLU layers of HiddenDim units,
// linear output) whose first layer is regularized by an RLNCallback after
// every batch. Classification trains on softmax cross entropy, regression
// on mean squared error, both with minibatch SGD and early stopping on
// validation loss.
type RLNNet struct {
	model.StateManager

	cfg models.Config

	HiddenDim int
	NLayers   int
	Norm      int
	Theta     float64

	scaler   *preprocessing.TabScaler
	layers   []*denseLayer
	callback *RLNCallback
	state    *random.State
}

// NewRLNNet builds the model from a configuration. The network itself is
// materialized at Fit time, once the scaled input width is known.
func NewRLNNet(cfg models.Config) (*RLNNet, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := &RLNNet{
		cfg:       cfg,
		HiddenDim: cfg.IntParam("hidden_dim", defaultHiddenDim),
		NLayers:   cfg.IntParam("n_layers", defaultNLayers),
		Norm:      cfg.IntParam("norm", defaultNorm),
		Theta:     cfg.FloatParam("theta", defaultTheta),
		state:     random.NewState(cfg.Seed, cfg.Seed),
	}
	if n.HiddenDim < 1 {
		return nil, errors.NewValidationError("hidden_dim", "must be positive", n.HiddenDim)
	}
	if n.NLayers < 1 {
		return nil, errors.NewValidationError("n_layers", "must be positive", n.NLayers)
	}

	scaler, err := preprocessing.NewTabScaler(cfg.ScalerType, cfg.Seed)
	if err != nil {
		return nil, err
	}
	n.scaler = scaler
	return n, nil
}

// Name returns the registry name.
func (n *RLNNet) Name() string { return "rln" }

// DefineTrialParams draws the rln search space from a trial.
func (n *RLNNet) DefineTrialParams(tr *search.Trial) map[string]any {
	return map[string]any{
		"hidden_dim":    tr.SuggestInt("hidden_dim", 100, 200),
		"n_layers":      tr.SuggestInt("n_layers", 2, 5),
		"learning_rate": tr.SuggestFloat("learning_rate", 0.0005, 0.001),
		"norm":          tr.SuggestCategorical("norm", []any{1, 2}),
		"theta":         tr.SuggestInt("theta", -12, -8),
	}
}

// DefaultParams returns the published default hyperparameters.
func (n *RLNNet) DefaultParams() map[string]any {
	return map[string]any{
		"hidden_dim":    defaultHiddenDim,
		"n_layers":      defaultNLayers,
		"learning_rate": 0.001,
		"norm":          defaultNorm,
		"theta":         defaultTheta,
	}
}

// Fit trains the network, splitting a validation set off the data.
func (n *RLNNet) Fit(x *mat.Dense, y []float64) error {
	r, _ := x.Dims()
	if len(y) != r {
		return errors.NewDimensionError("RLNNet.Fit", r, len(y), 0)
	}
	if r < 5 {
		return errors.NewModelError("RLNNet.Fit", "not enough rows for a validation split", errors.ErrEmptyData)
	}

	// Seeded 80/20 split.
	perm := n.state.General().Perm(r)
	nVal := int(float64(r) * validationFraction)
	if nVal < 1 {
		nVal = 1
	}

	xTrain, yTrain := selectRows(x, y, perm[nVal:])
	xVal, yVal := selectRows(x, y, perm[:nVal])
	return n.FitValidated(xTrain, yTrain, xVal, yVal)
}

// FitValidated trains the network against an explicit validation set.
func (n *RLNNet) FitValidated(x *mat.Dense, y []float64, xVal *mat.Dense, yVal []float64) error {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("RLNNet.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(y) != r {
		return errors.NewDimensionError("RLNNet.Fit", r, len(y), 0)
	}

	start := time.Now()
	logger := log.GetLoggerWithName("models")

	xs, err := n.scaleFit(x)
	if err != nil {
		return err
	}
	xvs, err := n.scale(xVal)
	if err != nil {
		return err
	}

	_, width := xs.Dims()
	n.buildLayers(width)
	n.callback.OnTrainBegin()

	rows, _ := xs.Dims()
	bestLoss := math.Inf(1)
	var bestLayers []*denseLayer
	var sinceBest int

	for epoch := 0; epoch < n.cfg.Epochs; epoch++ {
		order := n.state.General().Perm(rows)
		for lo := 0; lo < rows; lo += n.cfg.BatchSize {
			hi := lo + n.cfg.BatchSize
			if hi > rows {
				hi = rows
			}
			xb, yb := selectRows(xs, y, order[lo:hi])
			n.trainBatch(xb, yb)
			n.callback.OnBatchEnd()
		}

		valLoss := n.loss(xvs, yVal)
		logger.Debug("epoch finished",
			log.ModelNameKey, n.Name(),
			log.EpochKey, epoch,
			log.LossKey, valLoss,
		)

		if valLoss < bestLoss {
			bestLoss = valLoss
			bestLayers = cloneLayers(n.layers)
			sinceBest = 0
		} else {
			sinceBest++
			if sinceBest >= n.cfg.EarlyStoppingRounds {
				break
			}
		}
	}

	if bestLayers != nil {
		n.layers = bestLayers
	}

	n.SetDimensions(c, r)
	n.SetFitted()

	logger.Info("training finished",
		log.ModelNameKey, n.Name(),
		log.RowsKey, r,
		log.FeaturesKey, width,
		log.LossKey, bestLoss,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict returns predicted values: the regression output, or the class
// index with the highest score for classification.
func (n *RLNNet) Predict(x mat.Matrix) ([]float64, error) {
	if err := n.RequireFitted("RLNNet", "Predict"); err != nil {
		return nil, err
	}
	xs, err := n.scale(toDense(x))
	if err != nil {
		return nil, err
	}

	out := n.forward(xs)
	rows, cols := out.Dims()
	preds := make([]float64, rows)
	for i := 0; i < rows; i++ {
		if n.cfg.Objective == models.ObjectiveClassification {
			best := 0
			for j := 1; j < cols; j++ {
				if out.At(i, j) > out.At(i, best) {
					best = j
				}
			}
			preds[i] = float64(best)
		} else {
			preds[i] = out.At(i, 0)
		}
	}
	return preds, nil
}

// PredictProba returns the softmax class probabilities per row.
func (n *RLNNet) PredictProba(x mat.Matrix) ([][]float64, error) {
	if err := n.RequireFitted("RLNNet", "PredictProba"); err != nil {
		return nil, err
	}
	if n.cfg.Objective != models.ObjectiveClassification {
		return nil, errors.NewValueError("RLNNet.PredictProba", "model was trained for regression")
	}
	xs, err := n.scale(toDense(x))
	if err != nil {
		return nil, err
	}

	out := n.forward(xs)
	rows, cols := out.Dims()
	proba := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = out.At(i, j)
		}
		proba[i] = softmax(row)
	}
	return proba, nil
}

// FirstLayerWeights exposes the regularized layer for inspection.
func (n *RLNNet) FirstLayerWeights() *mat.Dense {
	if len(n.layers) == 0 {
		return nil
	}
	return n.layers[0].W
}

func (n *RLNNet) outputDim() int {
	if n.cfg.Objective == models.ObjectiveClassification {
		return n.cfg.NumClasses
	}
	return 1
}

// buildLayers initializes the weights with uniform Glorot draws from the
// model's random state.
func (n *RLNNet) buildLayers(inputDim int) {
	dims := make([]int, 0, n.NLayers+2)
	dims = append(dims, inputDim)
	for i := 0; i < n.NLayers; i++ {
		dims = append(dims, n.HiddenDim)
	}
	dims = append(dims, n.outputDim())

	n.layers = make([]*denseLayer, len(dims)-1)
	for l := range n.layers {
		in, out := dims[l], dims[l+1]
		limit := math.Sqrt(6.0 / float64(in+out))
		w := mat.NewDense(in, out, nil)
		for i := 0; i < in; i++ {
			for j := 0; j < out; j++ {
				w.Set(i, j, (n.state.General().Float64()*2-1)*limit)
			}
		}
		n.layers[l] = &denseLayer{W: w, B: make([]float64, out)}
	}

	// Validated at construction time, so the error is unreachable here.
	cb, err := NewRLNCallback(n.layers[0].W, n.Norm, n.Theta, n.cfg.LearningRate)
	if err != nil {
		panic(fmt.Sprintf("tabsurvey: %v", err))
	}
	n.callback = cb
}

// forward runs the network, returning the linear output layer activations.
func (n *RLNNet) forward(x *mat.Dense) *mat.Dense {
	h := x
	for l, layer := range n.layers {
		var z mat.Dense
		z.Mul(h, layer.W)
		rows, cols := z.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				v := z.At(i, j) + layer.B[j]
				if l < len(n.layers)-1 && v < 0 {
					v = 0
				}
				z.Set(i, j, v)
			}
		}
		h = &z
	}
	return h
}

// trainBatch runs one SGD step of forward and backward over a minibatch.
func (n *RLNNet) trainBatch(x *mat.Dense, y []float64) {
	m, _ := x.Dims()

	// Forward pass keeping every activation for the backward pass.
	acts := make([]*mat.Dense, len(n.layers)+1)
	acts[0] = x
	for l, layer := range n.layers {
		var z mat.Dense
		z.Mul(acts[l], layer.W)
		rows, cols := z.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				v := z.At(i, j) + layer.B[j]
				if l < len(n.layers)-1 && v < 0 {
					v = 0
				}
				z.Set(i, j, v)
			}
		}
		acts[l+1] = &z
	}

	// Output gradient.
	out := acts[len(acts)-1]
	_, outDim := out.Dims()
	delta := mat.NewDense(m, outDim, nil)
	if n.cfg.Objective == models.ObjectiveClassification {
		for i := 0; i < m; i++ {
			row := make([]float64, outDim)
			for j := 0; j < outDim; j++ {
				row[j] = out.At(i, j)
			}
			p := softmax(row)
			for j := 0; j < outDim; j++ {
				g := p[j]
				if j == int(y[i]) {
					g--
				}
				delta.Set(i, j, g/float64(m))
			}
		}
	} else {
		for i := 0; i < m; i++ {
			delta.Set(i, 0, 2*(out.At(i, 0)-y[i])/float64(m))
		}
	}

	// Backward pass with immediate SGD updates.
	for l := len(n.layers) - 1; l >= 0; l-- {
		layer := n.layers[l]

		var gradW mat.Dense
		gradW.Mul(acts[l].T(), delta)

		rows, cols := delta.Dims()
		gradB := make([]float64, cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				gradB[j] += delta.At(i, j)
			}
		}

		var next *mat.Dense
		if l > 0 {
			var back mat.Dense
			back.Mul(delta, layer.W.T())
			// ReLU derivative of the previous activation.
			br, bc := back.Dims()
			for i := 0; i < br; i++ {
				for j := 0; j < bc; j++ {
					if acts[l].At(i, j) <= 0 {
						back.Set(i, j, 0)
					}
				}
			}
			next = &back
		}

		wr, wc := layer.W.Dims()
		for i := 0; i < wr; i++ {
			for j := 0; j < wc; j++ {
				layer.W.Set(i, j, layer.W.At(i, j)-n.cfg.LearningRate*gradW.At(i, j))
			}
		}
		for j := range layer.B {
			layer.B[j] -= n.cfg.LearningRate * gradB[j]
		}

		delta = next
	}
}

// loss computes the validation objective: cross entropy or MSE.
func (n *RLNNet) loss(x *mat.Dense, y []float64) float64 {
	out := n.forward(x)
	rows, cols := out.Dims()

	var sum float64
	if n.cfg.Objective == models.ObjectiveClassification {
		for i := 0; i < rows; i++ {
			row := make([]float64, cols)
			for j := 0; j < cols; j++ {
				row[j] = out.At(i, j)
			}
			p := softmax(row)[int(y[i])]
			if p < 1e-15 {
				p = 1e-15
			}
			sum -= math.Log(p)
		}
	} else {
		for i := 0; i < rows; i++ {
			d := out.At(i, 0) - y[i]
			sum += d * d
		}
	}
	return sum / float64(rows)
}

// scaleFit fits the scaler on the training matrix and transforms it.
func (n *RLNNet) scaleFit(x *mat.Dense) (*mat.Dense, error) {
	tbl, err := matrixTable(x)
	if err != nil {
		return nil, err
	}
	scaled, err := n.scaler.FitTransform(tbl)
	if err != nil {
		return nil, err
	}
	return toDense(scaled), nil
}

func (n *RLNNet) scale(x *mat.Dense) (*mat.Dense, error) {
	tbl, err := matrixTable(x)
	if err != nil {
		return nil, err
	}
	scaled, err := n.scaler.Transform(tbl)
	if err != nil {
		return nil, err
	}
	return toDense(scaled), nil
}

// matrixTable wraps a feature matrix in a table with generated column names
// so the TabScaler can be applied.
func matrixTable(x *mat.Dense) (*dataset.Table, error) {
	_, c := x.Dims()
	names := make([]string, c)
	for j := range names {
		names[j] = fmt.Sprintf("x%d", j)
	}
	return dataset.FromMatrix(names, x)
}

func toDense(m mat.Matrix) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(m)
}

func selectRows(x *mat.Dense, y []float64, idx []int) (*mat.Dense, []float64) {
	_, c := x.Dims()
	xs := mat.NewDense(len(idx), c, nil)
	ys := make([]float64, len(idx))
	for i, row := range idx {
		for j := 0; j < c; j++ {
			xs.Set(i, j, x.At(row, j))
		}
		ys[i] = y[row]
	}
	return xs, ys
}

func cloneLayers(layers []*denseLayer) []*denseLayer {
	out := make([]*denseLayer, len(layers))
	for i, l := range layers {
		out[i] = &denseLayer{
			W: mat.DenseCopyOf(l.W),
			B: append([]float64(nil), l.B...),
		}
	}
	return out
}

func softmax(row []float64) []float64 {
	max := row[0]
	for _, v := range row {
		if v > max {
			max = v
		}
	}
	var total float64
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = math.Exp(v - max)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}
