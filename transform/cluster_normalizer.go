package transform

import (
	"encoding/gob"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/salijona/C-AdvDGM/core/parallel"
	"github.com/salijona/C-AdvDGM/core/random"
	"github.com/salijona/C-AdvDGM/dataset"
	"github.com/salijona/C-AdvDGM/pkg/errors"
)

func init() {
	Register("cluster_based_normalizer", SDTypeNumerical, func() Transformer {
		return NewClusterBasedNormalizer()
	})
	gob.Register(&ClusterBasedNormalizer{})
}

const (
	// Residuals are expressed in units of four standard deviations and
	// clipped, following mode-specific normalization.
	stdSpan      = 4.0
	residualClip = 0.99

	emMaxIterations = 100
	emTolerance     = 1e-4
	sigmaFloor      = 1e-6
)

// ClusterBasedNormalizer implements mode-specific normalization for
// continuous columns: a Gaussian mixture is fitted to the column, and each
// value is represented as the pair (mixture component, normalized residual
// within that component). The component is sampled from the posterior with
// the transform-phase streams, so transforming the same table twice yields
// different (but reproducible) component assignments.
type ClusterBasedNormalizer struct {
	Base

	MaxClusters        int
	WeightThreshold    float64
	ModelMissingValues bool

	// Mixture parameters for the retained components.
	Means   []float64
	Stds    []float64
	Weights []float64

	// Imputation value and null bookkeeping learned during Fit.
	FillValue float64
	HasNulls  bool
}

// NewClusterBasedNormalizer creates the transformer with default
// hyperparameters (at most 10 components, 0.5% weight threshold).
func NewClusterBasedNormalizer() *ClusterBasedNormalizer {
	t := &ClusterBasedNormalizer{
		MaxClusters:        10,
		WeightThreshold:    0.005,
		ModelMissingValues: true,
	}
	t.Base = newBase("cluster_based_normalizer", SDTypeNumerical, false, nil)
	return t
}

// Params returns the current hyperparameter configuration.
func (t *ClusterBasedNormalizer) Params() map[string]any {
	return map[string]any{
		"max_clusters":         t.MaxClusters,
		"weight_threshold":     t.WeightThreshold,
		"model_missing_values": t.ModelMissingValues,
	}
}

// DefaultParams returns the default hyperparameter configuration.
func (t *ClusterBasedNormalizer) DefaultParams() map[string]any {
	return NewClusterBasedNormalizer().Params()
}

// Fit learns the Gaussian mixture for a continuous column.
func (t *ClusterBasedNormalizer) Fit(tbl *dataset.Table, column string) error {
	return t.runFit(tbl, column, t.fit)
}

// Transform maps the column to its (normalized, component) representation.
func (t *ClusterBasedNormalizer) Transform(tbl *dataset.Table) (*dataset.Table, error) {
	return t.runTransform(tbl, t.transform)
}

// ReverseTransform reconstructs the column from its mode-specific
// representation.
func (t *ClusterBasedNormalizer) ReverseTransform(tbl *dataset.Table) (*dataset.Table, error) {
	return t.runReverse(tbl, t.reverse)
}

func (t *ClusterBasedNormalizer) fit(col dataset.Column, st *random.State) error {
	if col.Kind != dataset.Float {
		return errors.NewValueError(t.TransformerName+".Fit", "column '"+col.Name+"' is not numeric")
	}

	values, hasNulls, mean := imputeMean(col.Floats)
	t.FillValue = mean
	t.HasNulls = hasNulls

	if err := t.fitMixture(values, st); err != nil {
		return err
	}

	t.Props = []OutputProperty{
		{Suffix: "normalized", SDType: SDTypeFloat},
		{Suffix: "component", SDType: SDTypeCategorical},
	}
	if t.ModelMissingValues && t.HasNulls {
		t.Props = append(t.Props, OutputProperty{Suffix: "is_null", SDType: SDTypeFloat})
	}
	return nil
}

// fitMixture runs EM and keeps components whose weight clears the threshold.
func (t *ClusterBasedNormalizer) fitMixture(values []float64, st *random.State) error {
	n := len(values)
	k := t.MaxClusters
	if distinct := countDistinct(values); k > distinct {
		k = distinct
	}
	if k < 1 {
		k = 1
	}

	// Initialize means from a random permutation of the observed values,
	// spreads from the overall deviation.
	perm := st.General().Perm(n)
	sigma := stddev(values)
	if sigma < sigmaFloor {
		sigma = sigmaFloor
	}

	means := make([]float64, k)
	stds := make([]float64, k)
	weights := make([]float64, k)
	for j := 0; j < k; j++ {
		means[j] = values[perm[j]]
		stds[j] = sigma
		weights[j] = 1.0 / float64(k)
	}

	resp := make([]float64, n*k)
	prevLogLik := math.Inf(-1)
	converged := false

	var iter int
	for iter = 0; iter < emMaxIterations; iter++ {
		// E-step: posterior responsibilities, row-parallel (no state
		// draws happen here, so chunk order cannot matter).
		logLiks := make([]float64, n)
		parallel.ParallelizeWithThreshold(n, 256, func(start, end int) {
			for i := start; i < end; i++ {
				total := 0.0
				for j := 0; j < k; j++ {
					norm := distuv.Normal{Mu: means[j], Sigma: stds[j]}
					p := weights[j] * norm.Prob(values[i])
					resp[i*k+j] = p
					total += p
				}
				if total <= 0 {
					for j := 0; j < k; j++ {
						resp[i*k+j] = 1.0 / float64(k)
					}
					total = 1.0
					logLiks[i] = math.Log(math.SmallestNonzeroFloat64)
					continue
				}
				for j := 0; j < k; j++ {
					resp[i*k+j] /= total
				}
				logLiks[i] = math.Log(total)
			}
		})

		logLik := 0.0
		for _, l := range logLiks {
			logLik += l
		}

		// M-step.
		for j := 0; j < k; j++ {
			var nj, mu float64
			for i := 0; i < n; i++ {
				nj += resp[i*k+j]
				mu += resp[i*k+j] * values[i]
			}
			if nj <= 0 {
				weights[j] = 0
				continue
			}
			mu /= nj

			var variance float64
			for i := 0; i < n; i++ {
				d := values[i] - mu
				variance += resp[i*k+j] * d * d
			}
			variance /= nj

			means[j] = mu
			stds[j] = math.Sqrt(variance)
			if stds[j] < sigmaFloor {
				stds[j] = sigmaFloor
			}
			weights[j] = nj / float64(n)
		}

		if math.Abs(logLik-prevLogLik) < emTolerance*(math.Abs(prevLogLik)+1) {
			converged = true
			break
		}
		prevLogLik = logLik
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("gaussian mixture EM", iter, ""))
	}

	// Prune low-weight components.
	t.Means = t.Means[:0]
	t.Stds = t.Stds[:0]
	t.Weights = t.Weights[:0]
	for j := 0; j < k; j++ {
		if weights[j] >= t.WeightThreshold {
			t.Means = append(t.Means, means[j])
			t.Stds = append(t.Stds, stds[j])
			t.Weights = append(t.Weights, weights[j])
		}
	}
	if len(t.Means) == 0 {
		// Degenerate data: keep the heaviest component.
		best := 0
		for j := 1; j < k; j++ {
			if weights[j] > weights[best] {
				best = j
			}
		}
		t.Means = []float64{means[best]}
		t.Stds = []float64{stds[best]}
		t.Weights = []float64{1}
	}
	return nil
}

func (t *ClusterBasedNormalizer) transform(col dataset.Column, st *random.State) ([]dataset.Column, error) {
	n := col.Len()
	k := len(t.Means)

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

	// Posterior over components, row-parallel. Sampling stays sequential
	// below so the transform stream is consumed in row order.
	probs := make([]float64, n*k)
	parallel.ParallelizeWithThreshold(n, 256, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < k; j++ {
				norm := distuv.Normal{Mu: t.Means[j], Sigma: t.Stds[j]}
				probs[i*k+j] = t.Weights[j] * norm.Prob(values[i])
			}
		}
	})

	normalized := make([]float64, n)
	component := make([]float64, n)
	for i := 0; i < n; i++ {
		row := probs[i*k : (i+1)*k]
		total := 0.0
		for _, p := range row {
			total += p
		}
		if total <= 0 {
			for j := range row {
				row[j] = 1
			}
		}

		var j int
		if k > 1 {
			cat := distuv.NewCategorical(row, st.Source())
			j = int(cat.Rand())
		}

		r := (values[i] - t.Means[j]) / (stdSpan * t.Stds[j])
		normalized[i] = clip(r, -residualClip, residualClip)
		component[i] = float64(j)
	}

	out := []dataset.Column{
		dataset.FloatColumn("normalized", normalized),
		dataset.FloatColumn("component", component),
	}
	if t.ModelMissingValues && t.HasNulls {
		out = append(out, dataset.FloatColumn("is_null", isNull))
	}
	return out, nil
}

func (t *ClusterBasedNormalizer) reverse(outputs *dataset.Table, _ *random.State) (dataset.Column, error) {
	normalized, err := outputs.Column(t.outputName("normalized"))
	if err != nil {
		return dataset.Column{}, err
	}
	component, err := outputs.Column(t.outputName("component"))
	if err != nil {
		return dataset.Column{}, err
	}

	var isNull *dataset.Column
	if t.ModelMissingValues && t.HasNulls {
		if isNull, err = outputs.Column(t.outputName("is_null")); err != nil {
			return dataset.Column{}, err
		}
	}

	n := normalized.Len()
	restored := make([]float64, n)
	for i := 0; i < n; i++ {
		j := int(component.Floats[i])
		if j < 0 || j >= len(t.Means) {
			return dataset.Column{}, errors.NewValueError(
				t.TransformerName+".ReverseTransform", "component index out of range")
		}
		r := clip(normalized.Floats[i], -1, 1)
		restored[i] = r*stdSpan*t.Stds[j] + t.Means[j]
		if isNull != nil && isNull.Floats[i] > 0.5 {
			restored[i] = math.NaN()
		}
	}
	return dataset.FloatColumn("", restored), nil
}

// ===========================================================================
//
//	helpers shared by the numerical transformers
//
// ===========================================================================

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// imputeMean replaces NaNs with the mean of the observed values and reports
// whether any were present.
func imputeMean(values []float64) (out []float64, hasNulls bool, mean float64) {
	var sum float64
	var count int
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			count++
		}
	}
	if count > 0 {
		mean = sum / float64(count)
	}

	out = make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = mean
			hasNulls = true
		} else {
			out[i] = v
		}
	}
	return out, hasNulls, mean
}

func stddev(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= n

	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / n)
}

func countDistinct(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
