// Package search implements random hyperparameter search: a Study draws
// parameter values through a Trial's Suggest methods and keeps the best
// objective value. Sampling goes through an explicit random state, so two
// equally-seeded studies explore the same configurations.
package search

import (
	"math"
	"time"

	"github.com/salijona/C-AdvDGM/core/random"
	"github.com/salijona/C-AdvDGM/pkg/errors"
	"github.com/salijona/C-AdvDGM/pkg/log"
)

// Direction tells the study whether lower or higher objective values win.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

// String returns "minimize" or "maximize".
func (d Direction) String() string {
	if d == Maximize {
		return "maximize"
	}
	return "minimize"
}

// ParseDirection maps a config string onto a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "minimize", "":
		return Minimize, nil
	case "maximize":
		return Maximize, nil
	default:
		return 0, errors.NewValidationError("direction", "must be 'minimize' or 'maximize'", s)
	}
}

// Trial records the parameters suggested for one objective evaluation.
type Trial struct {
	// Number is the zero-based trial index within its study.
	Number int

	// Params holds every suggested value by parameter name.
	Params map[string]any

	state *random.State
}

func newTrial(number int, state *random.State) *Trial {
	return &Trial{Number: number, Params: make(map[string]any), state: state}
}

// SuggestInt draws an integer uniformly from [low, high] inclusive.
func (t *Trial) SuggestInt(name string, low, high int) int {
	v := low
	if high > low {
		v = low + int(t.state.General().Int64N(int64(high-low+1)))
	}
	t.Params[name] = v
	return v
}

// SuggestFloat draws a float uniformly from [low, high).
func (t *Trial) SuggestFloat(name string, low, high float64) float64 {
	v := low + t.state.General().Float64()*(high-low)
	t.Params[name] = v
	return v
}

// SuggestCategorical draws one of the given choices uniformly.
func (t *Trial) SuggestCategorical(name string, choices []any) any {
	v := choices[t.state.General().IntN(len(choices))]
	t.Params[name] = v
	return v
}

// Objective evaluates one trial and returns its score.
type Objective func(tr *Trial) (float64, error)

// Study runs repeated trials of an objective and tracks the best one.
type Study struct {
	Direction Direction

	BestTrial *Trial
	BestValue float64

	state *random.State
}

// NewStudy creates a study with its own sampling stream.
func NewStudy(direction Direction, seed uint64) *Study {
	return &Study{
		Direction: direction,
		BestValue: math.NaN(),
		state:     random.NewState(seed, seed),
	}
}

// Optimize runs the objective nTrials times. A failed trial aborts the study
// and returns the error; the best trial so far stays recorded.
func (s *Study) Optimize(objective Objective, nTrials int) error {
	if nTrials <= 0 {
		return errors.NewValidationError("n_trials", "must be positive", nTrials)
	}

	logger := log.GetLoggerWithName("search")
	start := time.Now()

	for i := 0; i < nTrials; i++ {
		tr := newTrial(i, s.state)
		value, err := objective(tr)
		if err != nil {
			return errors.Wrapf(err, "search: trial %d failed", i)
		}

		if s.BestTrial == nil || s.better(value) {
			s.BestTrial = tr
			s.BestValue = value
		}

		logger.Info("trial finished",
			log.TrialKey, i,
			log.LossKey, value,
			log.BestValueKey, s.BestValue,
		)
	}

	logger.Info("study finished",
		log.OperationKey, s.Direction.String(),
		log.TrialKey, nTrials,
		log.BestValueKey, s.BestValue,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// BestParams returns the parameters of the best trial, or nil before any
// trial completed.
func (s *Study) BestParams() map[string]any {
	if s.BestTrial == nil {
		return nil
	}
	return s.BestTrial.Params
}

func (s *Study) better(value float64) bool {
	if s.Direction == Maximize {
		return value > s.BestValue
	}
	return value < s.BestValue
}
