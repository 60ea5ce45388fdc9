package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	advErrors "github.com/salijona/C-AdvDGM/pkg/errors"
)

func TestTrialSuggestBounds(t *testing.T) {
	study := NewStudy(Minimize, 1)

	err := study.Optimize(func(tr *Trial) (float64, error) {
		n := tr.SuggestInt("n_layers", 2, 5)
		assert.GreaterOrEqual(t, n, 2)
		assert.LessOrEqual(t, n, 5)

		lr := tr.SuggestFloat("learning_rate", 0.0005, 0.001)
		assert.GreaterOrEqual(t, lr, 0.0005)
		assert.Less(t, lr, 0.001)

		norm := tr.SuggestCategorical("norm", []any{1, 2})
		assert.Contains(t, []any{1, 2}, norm)

		assert.Equal(t, n, tr.Params["n_layers"])
		assert.Equal(t, lr, tr.Params["learning_rate"])
		return lr, nil
	}, 50)
	require.NoError(t, err)
}

func TestStudyMinimizeKeepsBest(t *testing.T) {
	values := []float64{3, 1, 2, 5}

	study := NewStudy(Minimize, 7)
	err := study.Optimize(func(tr *Trial) (float64, error) {
		return values[tr.Number], nil
	}, len(values))
	require.NoError(t, err)

	assert.Equal(t, 1.0, study.BestValue)
	assert.Equal(t, 1, study.BestTrial.Number)
}

func TestStudyMaximizeKeepsBest(t *testing.T) {
	values := []float64{3, 1, 5, 2}

	study := NewStudy(Maximize, 7)
	err := study.Optimize(func(tr *Trial) (float64, error) {
		return values[tr.Number], nil
	}, len(values))
	require.NoError(t, err)

	assert.Equal(t, 5.0, study.BestValue)
	assert.Equal(t, map[string]any{}, study.BestParams())
}

func TestStudyReproducible(t *testing.T) {
	run := func() []any {
		var draws []any
		study := NewStudy(Minimize, 42)
		err := study.Optimize(func(tr *Trial) (float64, error) {
			draws = append(draws,
				tr.SuggestInt("hidden_dim", 100, 200),
				tr.SuggestFloat("theta", -12, -8),
				tr.SuggestCategorical("norm", []any{1, 2}),
			)
			return 0, nil
		}, 10)
		require.NoError(t, err)
		return draws
	}

	assert.Equal(t, run(), run())
}

func TestStudyPropagatesObjectiveError(t *testing.T) {
	study := NewStudy(Minimize, 3)
	boom := advErrors.New("objective blew up")

	err := study.Optimize(func(tr *Trial) (float64, error) {
		if tr.Number == 2 {
			return 0, boom
		}
		return float64(tr.Number), nil
	}, 5)
	require.Error(t, err)
	assert.True(t, advErrors.Is(err, boom))

	// The best value from the completed trials survives the failure.
	assert.Equal(t, 0.0, study.BestValue)
}

func TestStudyRejectsNonPositiveTrials(t *testing.T) {
	study := NewStudy(Minimize, 3)
	err := study.Optimize(func(*Trial) (float64, error) { return 0, nil }, 0)
	var invalid *advErrors.ValidationError
	assert.True(t, advErrors.As(err, &invalid))
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("maximize")
	require.NoError(t, err)
	assert.Equal(t, Maximize, d)

	d, err = ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, Minimize, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}
