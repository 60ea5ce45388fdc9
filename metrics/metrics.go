// Package metrics implements the evaluation metrics used by model training,
// early stopping and hyperparameter search.
package metrics

import (
	"math"

	"github.com/salijona/C-AdvDGM/pkg/errors"
)

// logLossEps keeps predicted probabilities away from 0 and 1 so the log
// stays finite.
const logLossEps = 1e-15

func checkLengths(op string, yTrue, yPred int) error {
	if yTrue == 0 {
		return errors.NewValueError(op, "empty input")
	}
	if yPred != yTrue {
		return errors.NewDimensionError(op, yTrue, yPred, 0)
	}
	return nil
}

// MSE computes the mean squared error between targets and predictions.
func MSE(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths("metrics.MSE", len(yTrue), len(yPred)); err != nil {
		return 0, err
	}

	var sum float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		sum += d * d
	}
	return sum / float64(len(yTrue)), nil
}

// R2Score computes the coefficient of determination. A constant target
// yields 0 when predictions match it and negative infinity otherwise,
// mirroring the residual definition.
func R2Score(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths("metrics.R2Score", len(yTrue), len(yPred)); err != nil {
		return 0, err
	}

	var mean float64
	for _, v := range yTrue {
		mean += v
	}
	mean /= float64(len(yTrue))

	var ssRes, ssTot float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		ssRes += d * d
		t := yTrue[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 0, nil
		}
		return math.Inf(-1), nil
	}
	return 1 - ssRes/ssTot, nil
}

// Accuracy computes the fraction of matching class labels.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if err := checkLengths("metrics.Accuracy", len(yTrue), len(yPred)); err != nil {
		return 0, err
	}

	var correct int
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// LogLoss computes the multiclass cross entropy. proba holds one probability
// row per sample; yTrue holds the true class index per sample.
func LogLoss(yTrue []int, proba [][]float64) (float64, error) {
	if err := checkLengths("metrics.LogLoss", len(yTrue), len(proba)); err != nil {
		return 0, err
	}

	var sum float64
	for i, label := range yTrue {
		if label < 0 || label >= len(proba[i]) {
			return 0, errors.NewValueError("metrics.LogLoss", "class label out of range")
		}
		p := proba[i][label]
		if p < logLossEps {
			p = logLossEps
		}
		if p > 1-logLossEps {
			p = 1 - logLossEps
		}
		sum -= math.Log(p)
	}
	return sum / float64(len(yTrue)), nil
}
