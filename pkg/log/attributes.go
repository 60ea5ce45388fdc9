package log

// Standard attribute keys. Using these constants keeps field names uniform
// across transformers, models and the search module, which makes the JSON
// logs filterable.

// Transformer and model context.
const (
	// TransformerNameKey identifies the transformer type, e.g.
	// "cluster_based_normalizer" or "uniform_encoder".
	TransformerNameKey = "transformer.name"

	// ModelNameKey identifies the model type from the registry, e.g. "rln".
	ModelNameKey = "model.name"

	// EstimatorIDKey is a unique identifier for one instance, so that two
	// transformers of the same type can be told apart in the logs.
	EstimatorIDKey = "estimator.id"

	// OperationKey is the lifecycle operation: "fit", "transform",
	// "reverse_transform", "fit_transform", "predict".
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	ComponentKey = "ml.component"

	// ColumnKey is the input column a transformer is bound to.
	ColumnKey = "data.column"
)

// Data shape.
const (
	// RowsKey is the number of rows being processed.
	RowsKey = "data.rows"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// SDTypeKey is the semantic data type of a column.
	SDTypeKey = "data.sdtype"
)

// Training and search progress.
const (
	// EpochKey is the current training epoch.
	EpochKey = "training.epoch"

	// IterationKey is the current iteration of an iterative fit.
	IterationKey = "training.iteration"

	// LossKey is a loss value.
	LossKey = "metrics.loss"

	// AccuracyKey is a classification accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// TrialKey is the hyperparameter-search trial number.
	TrialKey = "search.trial"

	// BestValueKey is the best objective value found so far.
	BestValueKey = "search.best_value"

	// DurationMsKey is the elapsed time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
