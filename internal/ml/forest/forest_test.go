package forest_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edgar-Del/malaria-predict-mono/internal/ml/forest"
)

// separableDataset builds three well-separated clusters in two dimensions,
// one per class.
func separableDataset(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	centers := [][2]float64{{0, 0}, {10, 10}, {20, 0}}
	x := make([][]float64, 0, n)
	y := make([]int, 0, n)
	for i := 0; i < n; i++ {
		class := i % 3
		x = append(x, []float64{
			centers[class][0] + rng.NormFloat64(),
			centers[class][1] + rng.NormFloat64(),
		})
		y = append(y, class)
	}
	return x, y
}

func TestFit_Validation(t *testing.T) {
	cfg := forest.DefaultConfig()

	_, err := forest.Fit(nil, nil, 3, cfg)
	assert.Error(t, err)

	_, err = forest.Fit([][]float64{{1, 2}}, []int{0, 1}, 3, cfg)
	assert.Error(t, err, "mismatched sample and label counts")

	_, err = forest.Fit([][]float64{{1, 2}}, []int{5}, 3, cfg)
	assert.Error(t, err, "label outside class range")
}

func TestFit_PredictsSeparableClasses(t *testing.T) {
	x, y := separableDataset(120, 1)

	cfg := forest.DefaultConfig()
	cfg.NumTrees = 30

	f, err := forest.Fit(x, y, 3, cfg)
	require.NoError(t, err)

	correct := 0
	for i, sample := range x {
		if f.Predict(sample) == y[i] {
			correct++
		}
	}
	assert.Greater(t, float64(correct)/float64(len(x)), 0.9)
}

func TestProba_SumsToOne(t *testing.T) {
	x, y := separableDataset(90, 2)
	f, err := forest.Fit(x, y, 3, forest.DefaultConfig())
	require.NoError(t, err)

	for _, sample := range [][]float64{{0, 0}, {10, 10}, {20, 0}, {5, 5}} {
		probs := f.Proba(sample)
		require.Len(t, probs, 3)
		total := 0.0
		for _, p := range probs {
			assert.GreaterOrEqual(t, p, 0.0)
			total += p
		}
		assert.InDelta(t, 1.0, total, 1e-9)
	}
}

func TestFit_DeterministicWithSeed(t *testing.T) {
	x, y := separableDataset(60, 3)

	cfg := forest.DefaultConfig()
	cfg.NumTrees = 10

	a, err := forest.Fit(x, y, 3, cfg)
	require.NoError(t, err)
	b, err := forest.Fit(x, y, 3, cfg)
	require.NoError(t, err)

	probe := []float64{7, 3}
	assert.Equal(t, a.Proba(probe), b.Proba(probe))
	assert.Equal(t, a.FeatureImportance(), b.FeatureImportance())
}

func TestFit_HandlesNaNFeatures(t *testing.T) {
	x, y := separableDataset(60, 4)
	x[0][1] = math.NaN()
	x[10][0] = math.NaN()

	f, err := forest.Fit(x, y, 3, forest.DefaultConfig())
	require.NoError(t, err)

	probs := f.Proba([]float64{10, 10})
	total := 0.0
	for _, p := range probs {
		total += p
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestFeatureImportance_Normalized(t *testing.T) {
	x, y := separableDataset(90, 5)
	f, err := forest.Fit(x, y, 3, forest.DefaultConfig())
	require.NoError(t, err)

	imp := f.FeatureImportance()
	require.Len(t, imp, 2)
	total := 0.0
	for _, v := range imp {
		assert.GreaterOrEqual(t, v, 0.0)
		total += v
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestFit_SingleClass(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	y := []int{1, 1, 1, 1}

	f, err := forest.Fit(x, y, 3, forest.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, f.Predict([]float64{2.5}))
	probs := f.Proba([]float64{2.5})
	assert.Equal(t, 1.0, probs[1])
}
