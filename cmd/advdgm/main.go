// Command advdgm runs a tabular experiment described by a YAML file: it
// loads a CSV dataset, fits the column transformers, trains the configured
// model (optionally after a random hyperparameter search) and reports
// metrics.
package main

import (
	"flag"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/salijona/C-AdvDGM/config"
	"github.com/salijona/C-AdvDGM/core/random"
	"github.com/salijona/C-AdvDGM/dataset"
	"github.com/salijona/C-AdvDGM/metrics"
	"github.com/salijona/C-AdvDGM/models"
	_ "github.com/salijona/C-AdvDGM/models/tabsurvey"
	"github.com/salijona/C-AdvDGM/pkg/errors"
	"github.com/salijona/C-AdvDGM/pkg/log"
	"github.com/salijona/C-AdvDGM/search"
	"github.com/salijona/C-AdvDGM/transform"
)

func main() {
	configPath := flag.String("config", "", "path to the experiment YAML file")
	tune := flag.Bool("tune", false, "run a random hyperparameter search before training")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: advdgm -config exp.yaml [-tune]")
		os.Exit(2)
	}

	if err := run(*configPath, *tune); err != nil {
		log.GetLoggerWithName("advdgm").Error("experiment failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, tune bool) error {
	logger := log.GetLoggerWithName("advdgm")

	exp, err := config.Load(configPath)
	if err != nil {
		return err
	}

	tbl, err := dataset.ReadCSV(exp.Dataset.Path, exp.Dataset.WithHeader())
	if err != nil {
		return err
	}
	logger.Info("dataset loaded",
		log.RowsKey, tbl.Len(),
		log.FeaturesKey, tbl.NumColumns(),
	)

	y, err := targetVector(tbl, exp.Dataset.Target)
	if err != nil {
		return err
	}
	features := tbl.Drop(exp.Dataset.Target)

	// Column transformers turn the mixed feature table into the numeric
	// matrix the models train on.
	hyper := transform.NewHyperTransformer(
		transform.WithAssignments(exp.Columns.Transformers),
		transform.WithSDTypes(exp.Columns.SDTypes),
		transform.WithSeed(exp.Seed),
	)
	encoded, err := hyper.FitTransform(features)
	if err != nil {
		return err
	}
	x, err := encoded.Matrix()
	if err != nil {
		return err
	}

	cfg := models.Config{
		Objective:           exp.Model.Objective,
		NumClasses:          exp.Model.NumClasses,
		BatchSize:           exp.Model.BatchSize,
		Epochs:              exp.Model.Epochs,
		EarlyStoppingRounds: exp.Model.EarlyStoppingRounds,
		LearningRate:        exp.Model.LearningRate,
		ScalerType:          exp.Model.Scaler,
		Seed:                exp.Seed,
		Params:              exp.Model.Params,
	}.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if tune {
		best, err := tuneParams(exp, cfg, x, y)
		if err != nil {
			return err
		}
		cfg.Params = merged(cfg.Params, best)
		logger.Info("search finished", log.OperationKey, "tune")
	}

	m, err := models.Load(exp.Model.Name, cfg)
	if err != nil {
		return err
	}
	if err := m.Fit(x, y); err != nil {
		return err
	}

	preds, err := m.Predict(x)
	if err != nil {
		return err
	}
	return report(logger, cfg, y, preds)
}

// targetVector extracts the label column as floats; categorical targets are
// mapped to class indices in first-seen order.
func targetVector(tbl *dataset.Table, target string) ([]float64, error) {
	col, err := tbl.Column(target)
	if err != nil {
		return nil, err
	}
	if col.Kind == dataset.Float {
		return append([]float64(nil), col.Floats...), nil
	}

	index := make(map[string]int)
	y := make([]float64, col.Len())
	for i, v := range col.Strings {
		j, ok := index[v]
		if !ok {
			j = len(index)
			index[v] = j
		}
		y[i] = float64(j)
	}
	return y, nil
}

// tuneParams runs a random search over the model's own trial space,
// evaluating each configuration on a held-out fifth of the data.
func tuneParams(exp *config.Experiment, cfg models.Config, x *mat.Dense, y []float64) (map[string]any, error) {
	trials := exp.Search.Trials
	if trials <= 0 {
		trials = 10
	}
	direction, err := search.ParseDirection(exp.Search.Direction)
	if err != nil {
		return nil, err
	}

	proto, err := models.Load(exp.Model.Name, cfg)
	if err != nil {
		return nil, err
	}

	rows, _ := x.Dims()
	perm := random.NewState(cfg.Seed, cfg.Seed).General().Perm(rows)
	nVal := rows / 5
	if nVal < 1 {
		return nil, errors.NewModelError("tune", "not enough rows for evaluation", errors.ErrEmptyData)
	}
	valIdx, trainIdx := perm[:nVal], perm[nVal:]

	study := search.NewStudy(direction, cfg.Seed)
	objective := func(tr *search.Trial) (float64, error) {
		trialCfg := cfg
		trialCfg.Params = merged(cfg.Params, proto.DefineTrialParams(tr))
		if lr, ok := trialCfg.Params["learning_rate"].(float64); ok {
			trialCfg.LearningRate = lr
		}

		m, err := models.Load(exp.Model.Name, trialCfg)
		if err != nil {
			return 0, err
		}

		xTrain, yTrain := subset(x, y, trainIdx)
		xVal, yVal := subset(x, y, valIdx)
		if err := m.Fit(xTrain, yTrain); err != nil {
			return 0, err
		}
		return score(trialCfg, m, xVal, yVal)
	}
	if err := study.Optimize(objective, trials); err != nil {
		return nil, err
	}
	return study.BestParams(), nil
}

// score computes the search objective: log loss for classification, MSE for
// regression.
func score(cfg models.Config, m models.Model, x *mat.Dense, y []float64) (float64, error) {
	if cfg.Objective == models.ObjectiveClassification {
		proba, err := m.PredictProba(x)
		if err != nil {
			return 0, err
		}
		labels := make([]int, len(y))
		for i, v := range y {
			labels[i] = int(v)
		}
		return metrics.LogLoss(labels, proba)
	}

	preds, err := m.Predict(x)
	if err != nil {
		return 0, err
	}
	return metrics.MSE(y, preds)
}

func report(logger log.Logger, cfg models.Config, y, preds []float64) error {
	if cfg.Objective == models.ObjectiveClassification {
		yTrue := make([]int, len(y))
		yPred := make([]int, len(preds))
		for i := range y {
			yTrue[i] = int(y[i])
			yPred[i] = int(preds[i])
		}
		acc, err := metrics.Accuracy(yTrue, yPred)
		if err != nil {
			return err
		}
		logger.Info("training metrics", log.AccuracyKey, acc)
		return nil
	}

	mse, err := metrics.MSE(y, preds)
	if err != nil {
		return err
	}
	r2, err := metrics.R2Score(y, preds)
	if err != nil {
		return err
	}
	logger.Info("training metrics", log.LossKey, mse, "r2", r2)
	return nil
}

func subset(x *mat.Dense, y []float64, idx []int) (*mat.Dense, []float64) {
	_, c := x.Dims()
	xs := mat.NewDense(len(idx), c, nil)
	ys := make([]float64, len(idx))
	for i, row := range idx {
		for j := 0; j < c; j++ {
			xs.Set(i, j, x.At(row, j))
		}
		ys[i] = y[row]
	}
	return xs, ys
}

func merged(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
