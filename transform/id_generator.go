package transform

import (
	"encoding/gob"
	"fmt"

	"github.com/google/uuid"

	"github.com/salijona/C-AdvDGM/core/random"
	"github.com/salijona/C-AdvDGM/dataset"
	"github.com/salijona/C-AdvDGM/pkg/errors"
)

func init() {
	Register("id_generator", SDTypeID, func() Transformer {
		return NewIDGenerator()
	})
	gob.Register(&IDGenerator{})
}

// IDGenerator handles identifier columns, which carry no signal for the
// generator: Transform drops the column entirely and ReverseTransform
// produces fresh identifiers. With a Prefix set, identifiers are sequential
// ("<prefix><n>"); otherwise they are UUIDs drawn deterministically from the
// reverse-phase stream.
type IDGenerator struct {
	Base

	Prefix  string
	StartAt int
}

// NewIDGenerator creates the generator producing UUID identifiers.
func NewIDGenerator() *IDGenerator {
	t := &IDGenerator{}
	t.Base = newBase("id_generator", SDTypeID, true, nil)
	return t
}

// Params returns the current hyperparameter configuration.
func (t *IDGenerator) Params() map[string]any {
	return map[string]any{"prefix": t.Prefix, "start_at": t.StartAt}
}

// DefaultParams returns the default hyperparameter configuration.
func (t *IDGenerator) DefaultParams() map[string]any {
	return NewIDGenerator().Params()
}

// Fit binds the generator to the identifier column.
func (t *IDGenerator) Fit(tbl *dataset.Table, column string) error {
	return t.runFit(tbl, column, t.fit)
}

// Transform drops the identifier column.
func (t *IDGenerator) Transform(tbl *dataset.Table) (*dataset.Table, error) {
	return t.runTransform(tbl, t.transform)
}

// ReverseTransform generates a fresh identifier column.
func (t *IDGenerator) ReverseTransform(tbl *dataset.Table) (*dataset.Table, error) {
	return t.runReverse(tbl, t.reverse)
}

func (t *IDGenerator) fit(dataset.Column, *random.State) error {
	// Identifiers carry no parameters to learn; the transformer only needs
	// the column binding, and it produces no output columns.
	t.Props = nil
	return nil
}

func (t *IDGenerator) transform(dataset.Column, *random.State) ([]dataset.Column, error) {
	return nil, nil
}

func (t *IDGenerator) reverse(outputs *dataset.Table, st *random.State) (dataset.Column, error) {
	n := outputs.Len()
	ids := make([]string, n)

	if t.Prefix != "" {
		for i := 0; i < n; i++ {
			ids[i] = fmt.Sprintf("%s%d", t.Prefix, t.StartAt+i)
		}
		return dataset.StringColumn("", ids), nil
	}

	reader := st.Reader()
	for i := 0; i < n; i++ {
		id, err := uuid.NewRandomFromReader(reader)
		if err != nil {
			return dataset.Column{}, errors.Wrap(err, t.TransformerName+".ReverseTransform")
		}
		ids[i] = id.String()
	}
	return dataset.StringColumn("", ids), nil
}
