package tabsurvey

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/salijona/C-AdvDGM/pkg/errors"
)

// RLNCallback applies regularization learning (Shavitt & Segal,
// https://arxiv.org/abs/1805.06440) to one weight matrix after every
// training batch: each weight carries its own regularization coefficient
// λ, adapted in log scale from the weight's recent movement, and the
// weight is shrunk by norm'(w)·exp(λ).
type RLNCallback struct {
	weights *mat.Dense // the live layer weights, updated in place

	norm   int
	avgReg float64
	lr     float64

	snapshot *mat.Dense
	lambdas  *mat.Dense
	prevReg  *mat.Dense
}

// NewRLNCallback attaches regularization learning to a weight matrix.
// norm selects L1 (1) or L2 (2); avgReg is θ, the mean of the λ simplex;
// lr is ν, the learning rate of the coefficients.
func NewRLNCallback(weights *mat.Dense, norm int, avgReg, lr float64) (*RLNCallback, error) {
	if norm != 1 && norm != 2 {
		return nil, errors.NewValidationError("norm", "only L1 and L2 norms are supported", norm)
	}
	return &RLNCallback{weights: weights, norm: norm, avgReg: avgReg, lr: lr}, nil
}

// OnTrainBegin snapshots the initial weights and resets every λ to θ.
func (c *RLNCallback) OnTrainBegin() {
	r, k := c.weights.Dims()
	c.snapshot = mat.DenseCopyOf(c.weights)
	c.lambdas = mat.NewDense(r, k, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < k; j++ {
			c.lambdas.Set(i, j, c.avgReg)
		}
	}
	c.prevReg = nil
}

// OnBatchEnd updates the coefficients from the weight movement of the batch
// just finished and applies the regularization step to the weights.
func (c *RLNCallback) OnBatchEnd() {
	r, k := c.weights.Dims()

	prev := c.snapshot
	c.snapshot = mat.DenseCopyOf(c.weights)

	reg := mat.NewDense(r, k, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < k; j++ {
			w := c.snapshot.At(i, j)

			var normDeriv float64
			if c.norm == 1 {
				normDeriv = sign(w)
			} else {
				normDeriv = 2 * w
			}

			lambda := c.lambdas.At(i, j)
			if c.prevReg != nil {
				grad := w - prev.At(i, j)
				lambda -= c.lr * grad * c.prevReg.At(i, j)
			}
			c.lambdas.Set(i, j, lambda)

			// Stashed until the λ projection below is done.
			reg.Set(i, j, normDeriv)
		}
	}

	// Project the λ onto the simplex mean(λ) = θ. Only after the first
	// batch, matching the gradient update above.
	if c.prevReg != nil {
		var sum float64
		for i := 0; i < r; i++ {
			for j := 0; j < k; j++ {
				sum += c.lambdas.At(i, j)
			}
		}
		translation := c.avgReg - sum/float64(r*k)
		for i := 0; i < r; i++ {
			for j := 0; j < k; j++ {
				c.lambdas.Set(i, j, c.lambdas.At(i, j)+translation)
			}
		}
	}

	// Clip each λ so exp(λ)·norm'(w) cannot exceed |w|, then apply the
	// regularization step.
	for i := 0; i < r; i++ {
		for j := 0; j < k; j++ {
			w := c.snapshot.At(i, j)
			normDeriv := reg.At(i, j)

			maxLambda := math.Inf(1)
			if normDeriv != 0 {
				ratio := math.Abs(w / normDeriv)
				if ratio > 0 {
					maxLambda = math.Log(ratio)
				} else {
					maxLambda = math.Inf(-1)
				}
			}
			lambda := math.Min(c.lambdas.At(i, j), maxLambda)
			c.lambdas.Set(i, j, lambda)

			step := normDeriv * math.Exp(lambda)
			reg.Set(i, j, step)
			c.weights.Set(i, j, w-step)
			// The next batch's Δw must not include this step.
			c.snapshot.Set(i, j, w-step)
		}
	}

	c.prevReg = reg
}

// Lambdas exposes the current coefficients for inspection.
func (c *RLNCallback) Lambdas() *mat.Dense { return c.lambdas }

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
