// Package preprocessing provides feature scalers for model inputs: the matrix
// scalers used directly by models, and the TabScaler facade that selects the
// scaling strategy by name.
package preprocessing

import (
	"encoding/gob"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/salijona/C-AdvDGM/core/model"
	"github.com/salijona/C-AdvDGM/pkg/errors"
)

func init() {
	gob.Register(&StandardScaler{})
	gob.Register(&MinMaxScaler{})
}

// StandardScaler shifts each feature to zero mean and scales it to unit
// standard deviation. Constant features are left unscaled.
type StandardScaler struct {
	model.StateManager

	Mean  []float64
	Scale []float64

	WithMean bool
	WithStd  bool
}

// NewStandardScaler creates a scaler that both centers and scales.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{WithMean: true, WithStd: true}
}

// Fit computes per-feature mean and standard deviation.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		if s.WithMean {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}

		s.Scale[j] = 1.0
		if s.WithStd {
			ss := 0.0
			for i := 0; i < r; i++ {
				d := X.At(i, j) - s.Mean[j]
				ss += d * d
			}
			sd := math.Sqrt(ss / float64(r))
			if sd > 1e-8 {
				s.Scale[j] = sd
			}
		}
	}

	s.SetDimensions(c, r)
	s.SetFitted()
	return nil
}

// Transform standardizes X with the fitted statistics.
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != len(s.Mean) {
		return nil, errors.NewDimensionError("StandardScaler.Transform", len(s.Mean), c, 1)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return out, nil
}

// FitTransform fits the scaler and transforms the same data.
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized data back to the original scale.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.RequireFitted("StandardScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != len(s.Mean) {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", len(s.Mean), c, 1)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}
	return out, nil
}

// MinMaxScaler rescales each feature into FeatureRange (default [0, 1]).
// Constant features map onto the lower bound.
type MinMaxScaler struct {
	model.StateManager

	DataMin []float64
	DataMax []float64
	Scale   []float64 // data range per feature, 1 for constant features

	FeatureRange [2]float64
}

// NewMinMaxScaler creates a scaler targeting the [0, 1] range.
func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{FeatureRange: [2]float64{0, 1}}
}

// Fit records per-feature minima and maxima.
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if m.FeatureRange[1] <= m.FeatureRange[0] {
		return errors.NewValidationError("feature_range", "upper bound must exceed lower bound", m.FeatureRange)
	}

	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		lo, hi := X.At(0, j), X.At(0, j)
		for i := 1; i < r; i++ {
			v := X.At(i, j)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		m.DataMin[j] = lo
		m.DataMax[j] = hi
		m.Scale[j] = hi - lo
		if m.Scale[j] < 1e-8 {
			m.Scale[j] = 1.0
		}
	}

	m.SetDimensions(c, r)
	m.SetFitted()
	return nil
}

// Transform rescales X into the feature range.
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.RequireFitted("MinMaxScaler", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != len(m.DataMin) {
		return nil, errors.NewDimensionError("MinMaxScaler.Transform", len(m.DataMin), c, 1)
	}

	span := m.FeatureRange[1] - m.FeatureRange[0]
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			scaled := (X.At(i, j)-m.DataMin[j])/m.Scale[j]*span + m.FeatureRange[0]
			out.Set(i, j, scaled)
		}
	}
	return out, nil
}

// FitTransform fits the scaler and transforms the same data.
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform maps scaled data back to the original range.
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.RequireFitted("MinMaxScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != len(m.DataMin) {
		return nil, errors.NewDimensionError("MinMaxScaler.InverseTransform", len(m.DataMin), c, 1)
	}

	span := m.FeatureRange[1] - m.FeatureRange[0]
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			original := (X.At(i, j)-m.FeatureRange[0])/span*m.Scale[j] + m.DataMin[j]
			out.Set(i, j, original)
		}
	}
	return out, nil
}
