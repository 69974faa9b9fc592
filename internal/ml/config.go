package ml

import (
	"fmt"

	"github.com/Edgar-Del/malaria-predict-mono/internal/ml/features"
)

// Config is the full pipeline configuration consumed by trainer and
// predictor.
type Config struct {
	// TestSize is the held-out fraction for evaluation, constrained to [0.1, 0.5].
	TestSize float64
	// RandomState seeds the train/test split and the forest's bootstrap
	// sampling. It makes the split reproducible; it is not a bit-exact
	// numerics guarantee.
	RandomState int64

	NumTrees        int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	// BalancedClasses reweights training samples inversely to class frequency.
	BalancedClasses bool

	// CVFolds enables k-fold cross-validation when >= 2; 0 disables it.
	CVFolds int

	// MinHistoryWeeks is the minimum municipality history required before a
	// prediction is attempted.
	MinHistoryWeeks int

	Features features.Config
}

// DefaultConfig returns the canonical training configuration.
func DefaultConfig() Config {
	return Config{
		TestSize:        0.2,
		RandomState:     42,
		NumTrees:        100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		CVFolds:         5,
		MinHistoryWeeks: 4,
		Features:        features.DefaultConfig(),
	}
}

// Validate checks every recognized option, failing fast with a ConfigError
// before any computation.
func (c Config) Validate() error {
	if c.TestSize < 0.1 || c.TestSize > 0.5 {
		return &ConfigError{Option: "test_size", Reason: fmt.Sprintf("must be in [0.1, 0.5], got %g", c.TestSize)}
	}
	if c.NumTrees < 1 {
		return &ConfigError{Option: "n_estimators", Reason: fmt.Sprintf("must be >= 1, got %d", c.NumTrees)}
	}
	if c.MaxDepth < 0 {
		return &ConfigError{Option: "max_depth", Reason: fmt.Sprintf("must be >= 0, got %d", c.MaxDepth)}
	}
	if c.MinSamplesSplit < 2 {
		return &ConfigError{Option: "min_samples_split", Reason: fmt.Sprintf("must be >= 2, got %d", c.MinSamplesSplit)}
	}
	if c.MinSamplesLeaf < 1 {
		return &ConfigError{Option: "min_samples_leaf", Reason: fmt.Sprintf("must be >= 1, got %d", c.MinSamplesLeaf)}
	}
	if c.CVFolds < 0 || c.CVFolds == 1 {
		return &ConfigError{Option: "cv_folds", Reason: fmt.Sprintf("must be 0 or >= 2, got %d", c.CVFolds)}
	}
	if c.MinHistoryWeeks < 1 {
		return &ConfigError{Option: "min_history_weeks", Reason: fmt.Sprintf("must be >= 1, got %d", c.MinHistoryWeeks)}
	}
	if err := c.Features.Validate(); err != nil {
		return &ConfigError{Option: "features", Reason: err.Error()}
	}
	return nil
}
