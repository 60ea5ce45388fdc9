// Package model provides the fitted-state management and persistence helpers
// shared by transformers and models.
package model

import (
	"sync"

	"github.com/salijona/C-AdvDGM/pkg/errors"
)

// StateManager tracks whether an estimator has been fitted, in a thread-safe
// manner. It is embedded by transformers and models via composition. Fields
// are exported for gob encoding.
type StateManager struct {
	Fitted bool
	mu     sync.RWMutex

	// Dimensions seen during fitting.
	NFeatures int
	NSamples  int
}

// IsFitted reports whether Fit has completed on this instance.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the instance as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset returns the instance to the unfitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NFeatures = 0
	s.NSamples = 0
}

// SetDimensions records the data shape seen during fitting.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NFeatures = nFeatures
	s.NSamples = nSamples
}

// GetDimensions returns the data shape seen during fitting.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NSamples
}

// RequireFitted returns a NotFittedError naming the instance and method when
// Fit has not run yet.
func (s *StateManager) RequireFitted(name, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(name, method)
	}
	return nil
}
