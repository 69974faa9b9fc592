package ml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Edgar-Del/malaria-predict-mono/internal/ml"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ml.Config)
		option string
	}{
		{"defaults", func(c *ml.Config) {}, ""},
		{"cv disabled", func(c *ml.Config) { c.CVFolds = 0 }, ""},
		{"test size too small", func(c *ml.Config) { c.TestSize = 0.05 }, "test_size"},
		{"test size too large", func(c *ml.Config) { c.TestSize = 0.6 }, "test_size"},
		{"no trees", func(c *ml.Config) { c.NumTrees = 0 }, "n_estimators"},
		{"negative depth", func(c *ml.Config) { c.MaxDepth = -1 }, "max_depth"},
		{"split below two", func(c *ml.Config) { c.MinSamplesSplit = 1 }, "min_samples_split"},
		{"leaf below one", func(c *ml.Config) { c.MinSamplesLeaf = 0 }, "min_samples_leaf"},
		{"one fold", func(c *ml.Config) { c.CVFolds = 1 }, "cv_folds"},
		{"no history", func(c *ml.Config) { c.MinHistoryWeeks = 0 }, "min_history_weeks"},
		{"bad features", func(c *ml.Config) { c.Features.LagPeriods = nil }, "features"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ml.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.option == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ml.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.option, cfgErr.Option)
		})
	}
}
