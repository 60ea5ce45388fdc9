package transform

import (
	"strings"

	"github.com/google/uuid"

	"github.com/salijona/C-AdvDGM/core/model"
	"github.com/salijona/C-AdvDGM/core/random"
	"github.com/salijona/C-AdvDGM/dataset"
	"github.com/salijona/C-AdvDGM/pkg/errors"
	"github.com/salijona/C-AdvDGM/pkg/log"
)

// Base carries the state shared by all transformers: the bound columns, the
// derived output column names, and the per-phase random streams. Concrete
// transformers embed Base and implement their phase hooks against the
// explicit *random.State handed to them; nothing ever draws from the global
// generators. Fields are exported for gob encoding.
type Base struct {
	model.StateManager

	TransformerName string
	InputType       string
	Supported       []string
	Generator       bool

	Columns      []string
	ColumnPrefix string
	Outputs      []string
	Props        []OutputProperty

	// States holds the per-phase stream pairs. Nil opts out of
	// reproducibility: all phases then share one time-seeded state owned
	// by this instance.
	States *random.States

	// ID tags this instance in structured logs.
	ID string

	// Lazily created when States is nil. Unexported so gob skips it.
	ambient *random.State
}

// newBase initializes a Base with default-seeded phase streams.
func newBase(name, inputType string, generator bool, props []OutputProperty) Base {
	return Base{
		TransformerName: name,
		InputType:       inputType,
		Supported:       []string{inputType},
		Generator:       generator,
		Props:           props,
		States:          random.NewStates(),
		ID:              uuid.NewString(),
	}
}

// Name returns the registry name of the transformer.
func (b *Base) Name() string { return b.TransformerName }

// InputSDType returns the sdtype the transformer accepts.
func (b *Base) InputSDType() string { return b.InputType }

// SupportedSDTypes returns all sdtypes the transformer accepts.
func (b *Base) SupportedSDTypes() []string {
	return append([]string(nil), b.Supported...)
}

// IsGenerator reports whether ReverseTransform generates new data.
func (b *Base) IsGenerator() bool { return b.Generator }

// InputColumn returns the column name bound by Fit.
func (b *Base) InputColumn() string {
	if len(b.Columns) == 0 {
		return ""
	}
	return b.Columns[0]
}

// OutputColumns returns the names of the columns created by Transform.
func (b *Base) OutputColumns() []string {
	return append([]string(nil), b.Outputs...)
}

// OutputSDTypes maps output column names to the sdtypes they carry.
func (b *Base) OutputSDTypes() map[string]string {
	out := make(map[string]string, len(b.Props))
	for _, p := range b.Props {
		out[b.outputName(p.Suffix)] = p.SDType
	}
	return out
}

// NextTransformers maps output column names to suggested follow-up
// transformer names.
func (b *Base) NextTransformers() map[string]string {
	out := make(map[string]string, len(b.Props))
	for _, p := range b.Props {
		out[b.outputName(p.Suffix)] = p.NextTransformer
	}
	return out
}

// ResetRandomization restarts all three phase streams at their seeds.
func (b *Base) ResetRandomization() {
	if b.States != nil {
		b.States.Reset()
	}
}

// SetRandomStates replaces the phase streams. Passing nil disables
// reproducibility.
func (b *Base) SetRandomStates(states *random.States) { b.States = states }

// state returns the stream pair for one phase.
func (b *Base) state(p random.Phase) *random.State {
	if b.States == nil {
		if b.ambient == nil {
			b.ambient = random.TimeSeeded()
		}
		return b.ambient
	}
	return b.States.For(p)
}

func (b *Base) outputName(suffix string) string {
	if suffix == "" {
		return b.ColumnPrefix
	}
	return b.ColumnPrefix + "." + suffix
}

// storeColumns validates and records the input column.
func (b *Base) storeColumns(tbl *dataset.Table, column string) error {
	if !tbl.Has(column) {
		return errors.NewMissingColumnsError(b.TransformerName+".Fit", []string{column})
	}
	b.Columns = []string{column}
	return nil
}

// buildOutputColumns derives the output column names from the bound columns,
// suffixing the prefix with '#' until no name collides with an existing
// table column. A collision emits a ColumnCollisionWarning.
func (b *Base) buildOutputColumns(tbl *dataset.Table) {
	b.ColumnPrefix = strings.Join(b.Columns, "#")

	for {
		b.Outputs = b.Outputs[:0]
		for _, p := range b.Props {
			b.Outputs = append(b.Outputs, b.outputName(p.Suffix))
		}

		inputs := make(map[string]bool, len(b.Columns))
		for _, c := range b.Columns {
			inputs[c] = true
		}

		var repeated []string
		for _, out := range b.Outputs {
			// A column may regenerate itself under the same name.
			if !inputs[out] && tbl.Has(out) {
				repeated = append(repeated, out)
			}
		}
		if len(repeated) == 0 {
			return
		}

		b.ColumnPrefix += "#"
		errors.Warn(&errors.ColumnCollisionWarning{
			Transformer: b.TransformerName,
			Columns:     repeated,
			Prefix:      b.ColumnPrefix,
		})
	}
}

// runFit executes the fit hook with the fit-phase state and the bound
// column's data, then derives the output columns.
func (b *Base) runFit(tbl *dataset.Table, column string, fit func(col dataset.Column, st *random.State) error) error {
	if tbl == nil || tbl.Len() == 0 {
		return errors.NewModelError(b.TransformerName+".Fit", "empty data", errors.ErrEmptyData)
	}
	if err := b.storeColumns(tbl, column); err != nil {
		return err
	}

	col, err := tbl.Column(column)
	if err != nil {
		return err
	}
	if err := fit(col.Clone(), b.state(random.PhaseFit)); err != nil {
		return err
	}

	b.buildOutputColumns(tbl)
	b.SetDimensions(1, tbl.Len())
	b.SetFitted()

	log.GetLoggerWithName("transform").Debug("fit finished",
		log.TransformerNameKey, b.TransformerName,
		log.EstimatorIDKey, b.ID,
		log.ColumnKey, column,
		log.RowsKey, tbl.Len(),
	)
	return nil
}

// runTransform executes the transform hook with the transform-phase state,
// then swaps the input column for the produced output columns.
func (b *Base) runTransform(tbl *dataset.Table, fn func(col dataset.Column, st *random.State) ([]dataset.Column, error)) (*dataset.Table, error) {
	if err := b.RequireFitted(b.TransformerName, "Transform"); err != nil {
		return nil, err
	}
	col, err := tbl.Column(b.InputColumn())
	if err != nil {
		return nil, err
	}

	outs, err := fn(col.Clone(), b.state(random.PhaseTransform))
	if err != nil {
		return nil, err
	}
	if len(outs) != len(b.Outputs) {
		return nil, errors.NewDimensionError(b.TransformerName+".Transform", len(b.Outputs), len(outs), 1)
	}
	for i := range outs {
		outs[i].Name = b.Outputs[i]
	}

	result := tbl.Drop(b.Columns...)
	if err := result.Append(outs...); err != nil {
		return nil, err
	}
	return result, nil
}

// runReverse executes the reverse hook with the reverse-phase state and the
// transformer's output columns, then swaps them for the restored input.
func (b *Base) runReverse(tbl *dataset.Table, fn func(outputs *dataset.Table, st *random.State) (dataset.Column, error)) (*dataset.Table, error) {
	if err := b.RequireFitted(b.TransformerName, "ReverseTransform"); err != nil {
		return nil, err
	}

	outputs, err := tbl.Select(b.Outputs...)
	if err != nil {
		return nil, err
	}

	restored, err := fn(outputs, b.state(random.PhaseReverseTransform))
	if err != nil {
		return nil, err
	}
	restored.Name = b.InputColumn()

	result := tbl.Drop(b.Outputs...)
	if err := result.Append(restored); err != nil {
		return nil, err
	}
	return result, nil
}
