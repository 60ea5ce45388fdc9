// Package advdgm provides reversible tabular data transformation and
// model training utilities for Go.
//
// The library turns mixed-type tables (numerical, categorical, id
// columns) into fully numerical matrices and back, with per-phase
// reproducible randomness, and trains models on the encoded output.
//
// # Quick Start
//
// Encode a table end to end with a HyperTransformer:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/salijona/C-AdvDGM/dataset"
//	    "github.com/salijona/C-AdvDGM/transform"
//	)
//
//	func main() {
//	    tbl, err := dataset.ReadCSV("train.csv", true)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    ht := transform.NewHyperTransformer(transform.WithSeed(42))
//	    encoded, err := ht.FitTransform(tbl)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    fmt.Println("Encoded columns:", encoded.Columns())
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - transform: reversible column transformers and the HyperTransformer
//   - preprocessing: matrix scalers and the TabScaler facade
//   - models: the model registry and a linear baseline
//   - models/tabsurvey: the regularization learning network (RLN)
//   - search: random hyperparameter search
//   - metrics: evaluation metrics (MSE, R², accuracy, log loss)
//   - dataset: the column-major Table type and CSV loading
//   - config: YAML experiment configuration
//   - core/random: per-phase seeded random generator state
//   - core/model: fitted-state management and gob persistence
//   - core/parallel: parallel processing utilities
//
// # Reproducibility
//
// Stochastic transformers draw from per-phase generators seeded at
// construction, so a fitted transformer replays the same transform and
// reverse streams after ResetRandomization or a gob round trip.
package advdgm
