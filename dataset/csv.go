package dataset

import (
	"github.com/sjwhitworth/golearn/base"

	"github.com/salijona/C-AdvDGM/pkg/errors"
)

// ReadCSV loads a CSV file into a table. Attribute typing is delegated to
// golearn's CSV parser: float attributes become Float columns, everything
// else becomes String columns with the parsed category labels.
func ReadCSV(path string, hasHeader bool) (*Table, error) {
	inst, err := base.ParseCSVToInstances(path, hasHeader)
	if err != nil {
		return nil, errors.Wrap(err, "dataset.ReadCSV")
	}
	return fromInstances(inst)
}

func fromInstances(inst *base.DenseInstances) (*Table, error) {
	attrs := inst.AllAttributes()
	specs := base.ResolveAttributes(inst, attrs)
	_, rows := inst.Size()

	cols := make([]Column, 0, len(attrs))
	for i, attr := range attrs {
		switch attr.GetType() {
		case base.Float64Type, base.BinaryType:
			vals := make([]float64, rows)
			for r := 0; r < rows; r++ {
				vals[r] = base.UnpackBytesToFloat(inst.Get(specs[i], r))
			}
			cols = append(cols, FloatColumn(attr.GetName(), vals))
		default:
			vals := make([]string, rows)
			for r := 0; r < rows; r++ {
				vals[r] = attr.GetStringFromSysVal(inst.Get(specs[i], r))
			}
			cols = append(cols, StringColumn(attr.GetName(), vals))
		}
	}
	return NewTable(cols...)
}
