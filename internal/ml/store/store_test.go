package store_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edgar-Del/malaria-predict-mono/internal/ml"
	"github.com/Edgar-Del/malaria-predict-mono/internal/ml/features"
	"github.com/Edgar-Del/malaria-predict-mono/internal/ml/forest"
	"github.com/Edgar-Del/malaria-predict-mono/internal/ml/store"
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

func sampleModel(t *testing.T) *ml.TrainedModel {
	t.Helper()

	x := [][]float64{{0, 1}, {1, 0}, {0, 2}, {2, 0}, {10, 1}, {11, 0}, {10, 2}, {12, 0}}
	y := []int{0, 0, 0, 0, 1, 1, 1, 1}
	cfg := forest.DefaultConfig()
	cfg.NumTrees = 5
	f, err := forest.Fit(x, y, 2, cfg)
	require.NoError(t, err)

	return &ml.TrainedModel{
		Version:       "v20250101_120000",
		FeatureNames:  []string{"cases_lag1", "rainfall_mm"},
		Classes:       []models.RiskLabel{models.RiskLow, models.RiskHigh},
		Forest:        f,
		FeatureConfig: features.DefaultConfig(),
		TrainedAt:     time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Metrics: models.EvaluationMetrics{
			Accuracy:     0.9,
			ModelVersion: "v20250101_120000",
			TestSamples:  8,
		},
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "malaria.model")
	fileStore := store.NewFileStore(path)

	original := sampleModel(t)
	require.NoError(t, fileStore.Save(original))

	loaded, err := fileStore.Load()
	require.NoError(t, err)

	assert.Equal(t, original.Version, loaded.Version)
	assert.Equal(t, original.FeatureNames, loaded.FeatureNames)
	assert.Equal(t, original.Classes, loaded.Classes)
	assert.Equal(t, original.FeatureConfig, loaded.FeatureConfig)
	assert.Equal(t, original.Metrics, loaded.Metrics)

	// The restored forest must predict identically.
	for _, probe := range [][]float64{{0, 1}, {11, 0}, {5, 1}} {
		assert.Equal(t, original.Forest.Proba(probe), loaded.Forest.Proba(probe))
	}
}

func TestFileStore_MetadataSidecar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "malaria.model")
	fileStore := store.NewFileStore(path)

	original := sampleModel(t)
	require.NoError(t, fileStore.Save(original))

	meta, err := fileStore.LoadMetadata()
	require.NoError(t, err)
	assert.Equal(t, original.Version, meta.Version)
	assert.Equal(t, original.FeatureNames, meta.FeatureNames)
	assert.Equal(t, original.Classes, meta.Classes)
	assert.True(t, original.TrainedAt.Equal(meta.TrainedAt))
}

func TestFileStore_OverwriteReplacesArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "malaria.model")
	fileStore := store.NewFileStore(path)

	first := sampleModel(t)
	require.NoError(t, fileStore.Save(first))

	second := sampleModel(t)
	second.Version = "v20250202_120000"
	require.NoError(t, fileStore.Save(second))

	loaded, err := fileStore.Load()
	require.NoError(t, err)
	assert.Equal(t, "v20250202_120000", loaded.Version)
}

func TestFileStore_LoadMissing(t *testing.T) {
	fileStore := store.NewFileStore(filepath.Join(t.TempDir(), "absent.model"))

	_, err := fileStore.Load()
	var storageErr *ml.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.True(t, errors.Is(storageErr.Err, fs.ErrNotExist))
}

func TestFileStore_SaveToUnwritablePath(t *testing.T) {
	// The parent of the artifact directory is a file, so MkdirAll must fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	fileStore := store.NewFileStore(filepath.Join(blocker, "sub", "malaria.model"))
	err := fileStore.Save(sampleModel(t))
	var storageErr *ml.StorageError
	assert.ErrorAs(t, err, &storageErr)
}
