package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	advErrors "github.com/salijona/C-AdvDGM/pkg/errors"
)

const sampleYAML = `
dataset:
  path: data/adult.csv
  target: income
columns:
  sdtypes:
    age: numerical
    workclass: categorical
  transformers:
    fnlwgt: float_formatter
model:
  name: rln
  objective: classification
  num_classes: 2
  batch_size: 64
  scaler: ctgan
  params:
    hidden_dim: 150
    theta: -9
search:
  trials: 15
  direction: minimize
seed: 7
`

func TestParse(t *testing.T) {
	exp, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "data/adult.csv", exp.Dataset.Path)
	assert.Equal(t, "income", exp.Dataset.Target)
	assert.True(t, exp.Dataset.WithHeader())
	assert.Equal(t, "numerical", exp.Columns.SDTypes["age"])
	assert.Equal(t, "float_formatter", exp.Columns.Transformers["fnlwgt"])
	assert.Equal(t, "rln", exp.Model.Name)
	assert.Equal(t, 64, exp.Model.BatchSize)
	assert.Equal(t, "ctgan", exp.Model.Scaler)
	assert.Equal(t, 150, exp.Model.Params["hidden_dim"])
	assert.Equal(t, 15, exp.Search.Trials)
	assert.Equal(t, uint64(7), exp.Seed)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	exp, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "rln", exp.Model.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing path", "dataset:\n  target: y\nmodel:\n  name: rln\n"},
		{"missing target", "dataset:\n  path: a.csv\nmodel:\n  name: rln\n"},
		{"missing model", "dataset:\n  path: a.csv\n  target: y\n"},
		{"bad objective", "dataset:\n  path: a.csv\n  target: y\nmodel:\n  name: rln\n  objective: clustering\n"},
		{"classification without classes", "dataset:\n  path: a.csv\n  target: y\nmodel:\n  name: rln\n  objective: classification\n"},
		{"bad direction", "dataset:\n  path: a.csv\n  target: y\nmodel:\n  name: rln\nsearch:\n  direction: sideways\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			var invalid *advErrors.ValidationError
			assert.True(t, advErrors.As(err, &invalid))
		})
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("dataset: ["))
	assert.Error(t, err)
}
