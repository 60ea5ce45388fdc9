package transform

import (
	"time"

	"github.com/salijona/C-AdvDGM/core/model"
	"github.com/salijona/C-AdvDGM/core/random"
	"github.com/salijona/C-AdvDGM/dataset"
	"github.com/salijona/C-AdvDGM/pkg/errors"
	"github.com/salijona/C-AdvDGM/pkg/log"
)

// HyperTransformer composes per-column transformers into a whole-table
// pipeline: every column of the fitted table is handled by one transformer,
// assigned explicitly by name, via a declared sdtype, or inferred from the
// column's storage kind. Fields are exported for gob encoding.
type HyperTransformer struct {
	model.StateManager

	// Assignments maps column names to registry transformer names and wins
	// over SDTypes, which maps column names to sdtypes resolved through the
	// registry defaults. Unlisted columns fall back on their storage kind
	// (float -> numerical, string -> categorical).
	Assignments map[string]string
	SDTypes     map[string]string

	// Transformers holds the fitted transformer per input column.
	Transformers map[string]Transformer

	// ColumnOrder is the fitted table's column order, restored by
	// ReverseTransform.
	ColumnOrder []string

	// Seed, when non-zero, derives per-column random states so that two
	// equally-seeded pipelines reproduce each other exactly.
	Seed uint64
}

// HyperOption configures a HyperTransformer.
type HyperOption func(*HyperTransformer)

// WithAssignments fixes transformer names per column.
func WithAssignments(assignments map[string]string) HyperOption {
	return func(h *HyperTransformer) { h.Assignments = assignments }
}

// WithSDTypes declares column sdtypes resolved via the registry defaults.
func WithSDTypes(sdtypes map[string]string) HyperOption {
	return func(h *HyperTransformer) { h.SDTypes = sdtypes }
}

// WithSeed makes the pipeline reproducible under a custom seed.
func WithSeed(seed uint64) HyperOption {
	return func(h *HyperTransformer) { h.Seed = seed }
}

// NewHyperTransformer creates a pipeline with the given options.
func NewHyperTransformer(options ...HyperOption) *HyperTransformer {
	h := &HyperTransformer{}
	for _, opt := range options {
		opt(h)
	}
	return h
}

type seedable interface {
	SetRandomStates(*random.States)
}

func (h *HyperTransformer) transformerFor(tbl *dataset.Table, column string) (Transformer, error) {
	if name, ok := h.Assignments[column]; ok {
		return New(name)
	}
	if sdtype, ok := h.SDTypes[column]; ok {
		return NewDefault(sdtype)
	}

	col, err := tbl.Column(column)
	if err != nil {
		return nil, err
	}
	if col.Kind == dataset.Float {
		return NewDefault(SDTypeNumerical)
	}
	return NewDefault(SDTypeCategorical)
}

// Fit assigns and fits one transformer per column, composing them in table
// order: each transformer is fitted against the table produced by its
// predecessors, so output-name collisions are detected the same way they
// will occur during Transform.
func (h *HyperTransformer) Fit(tbl *dataset.Table) error {
	if tbl == nil || tbl.Len() == 0 {
		return errors.NewModelError("HyperTransformer.Fit", "empty data", errors.ErrEmptyData)
	}

	start := time.Now()
	h.Transformers = make(map[string]Transformer, tbl.NumColumns())
	h.ColumnOrder = tbl.Columns()

	work := tbl.Clone()
	for i, column := range h.ColumnOrder {
		tr, err := h.transformerFor(tbl, column)
		if err != nil {
			return err
		}
		if h.Seed != 0 {
			if s, ok := tr.(seedable); ok {
				s.SetRandomStates(random.NewStatesSeed(h.Seed + uint64(i)))
			}
		}

		if err := tr.Fit(work, column); err != nil {
			return err
		}
		work, err = tr.Transform(work)
		if err != nil {
			return err
		}
		h.Transformers[column] = tr
	}

	h.SetDimensions(tbl.NumColumns(), tbl.Len())
	h.SetFitted()

	log.GetLoggerWithName("transform").Info("pipeline fitted",
		log.OperationKey, "fit",
		log.FeaturesKey, tbl.NumColumns(),
		log.RowsKey, tbl.Len(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Transform applies every column transformer in fit order.
func (h *HyperTransformer) Transform(tbl *dataset.Table) (*dataset.Table, error) {
	if err := h.RequireFitted("HyperTransformer", "Transform"); err != nil {
		return nil, err
	}

	work := tbl
	for _, column := range h.ColumnOrder {
		var err error
		if work, err = h.Transformers[column].Transform(work); err != nil {
			return nil, err
		}
	}
	return work, nil
}

// FitTransform fits the pipeline and transforms the same table.
func (h *HyperTransformer) FitTransform(tbl *dataset.Table) (*dataset.Table, error) {
	if err := h.Fit(tbl); err != nil {
		return nil, err
	}
	return h.Transform(tbl)
}

// ReverseTransform applies the reverse transformers in reverse fit order and
// restores the original column order.
func (h *HyperTransformer) ReverseTransform(tbl *dataset.Table) (*dataset.Table, error) {
	if err := h.RequireFitted("HyperTransformer", "ReverseTransform"); err != nil {
		return nil, err
	}

	work := tbl
	for i := len(h.ColumnOrder) - 1; i >= 0; i-- {
		var err error
		if work, err = h.Transformers[h.ColumnOrder[i]].ReverseTransform(work); err != nil {
			return nil, err
		}
	}
	return work.Reorder(h.ColumnOrder...)
}

// OutputColumns returns the names of the columns Transform produces,
// grouped by input column in fit order.
func (h *HyperTransformer) OutputColumns() []string {
	var out []string
	for _, column := range h.ColumnOrder {
		out = append(out, h.Transformers[column].OutputColumns()...)
	}
	return out
}

// ResetRandomization restarts the phase streams of every column transformer.
func (h *HyperTransformer) ResetRandomization() {
	for _, tr := range h.Transformers {
		tr.ResetRandomization()
	}
}
