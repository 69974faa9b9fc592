package ml

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/Edgar-Del/malaria-predict-mono/internal/ml/features"
	"github.com/Edgar-Del/malaria-predict-mono/internal/ml/forest"
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

// Trainer fits a risk classifier from weekly records and persists the
// resulting artifact. A Trainer is safe to reuse across training runs; each
// run produces a fresh TrainedModel.
type Trainer struct {
	cfg    Config
	store  ArtifactStore
	logger *logrus.Logger
}

// NewTrainer validates the configuration and returns a Trainer. The store
// may be nil, in which case the fitted model is returned without being
// persisted.
func NewTrainer(cfg Config, store ArtifactStore, logger *logrus.Logger) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Trainer{cfg: cfg, store: store, logger: logger}, nil
}

// Train runs the full training procedure: feature engineering, stratified
// split, fit, evaluation, optional cross-validation, and artifact
// persistence. A persistence failure makes the whole run fail; there is no
// partial success.
func (t *Trainer) Train(records []models.WeeklyRecord) (*TrainedModel, error) {
	if len(records) == 0 {
		return nil, &DataError{Reason: "no training data"}
	}

	table, err := features.Build(records, t.cfg.Features)
	if err != nil {
		return nil, &DataError{Reason: err.Error()}
	}

	x, y, classes, err := t.prepare(table)
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx := stratifiedSplit(y, t.cfg.TestSize, rand.New(rand.NewSource(t.cfg.RandomState)))
	xTrain, yTrain := subset(x, y, trainIdx)
	xTest, yTest := subset(x, y, testIdx)

	t.logger.Infof("training model: %d train, %d test, %d features, %d classes",
		len(xTrain), len(xTest), len(table.Names), len(classes))

	start := time.Now()
	f, err := forest.Fit(xTrain, yTrain, len(classes), t.forestConfig())
	if err != nil {
		return nil, &DataError{Reason: fmt.Sprintf("fit failed: %v", err)}
	}

	yPred := make([]int, len(xTest))
	for i, vec := range xTest {
		yPred[i] = f.Predict(vec)
	}
	metrics := evaluate(yTest, yPred, classes)
	metrics.TrainSamples = len(xTrain)
	metrics.FeatureCount = len(table.Names)

	if t.cfg.CVFolds >= 2 {
		mean, std, cvErr := t.crossValidate(x, y, len(classes), classes)
		if cvErr != nil {
			t.logger.Warnf("cross-validation skipped: %v", cvErr)
		} else {
			metrics.CVFolds = t.cfg.CVFolds
			metrics.CVF1Mean = &mean
			metrics.CVF1Std = &std
		}
	}

	trainedAt := time.Now().UTC()
	metrics.TrainedAt = trainedAt
	metrics.ModelVersion = "v" + trainedAt.Format("20060102_150405")

	model := &TrainedModel{
		Version:       metrics.ModelVersion,
		FeatureNames:  table.Names,
		Classes:       classes,
		Forest:        f,
		FeatureConfig: t.cfg.Features,
		TrainedAt:     trainedAt,
		Metrics:       metrics,
	}

	if t.store != nil {
		if err := t.store.Save(model); err != nil {
			return nil, err
		}
	}

	t.logger.Infof("training finished in %s: version=%s accuracy=%.4f f1_macro=%.4f",
		time.Since(start).Round(time.Millisecond), model.Version, metrics.Accuracy, metrics.F1Macro)

	return model, nil
}

// prepare selects labeled rows with fully defined feature vectors and
// encodes labels to class indices. Rows with undefined lag features are
// dropped here explicitly, never zero-filled.
func (t *Trainer) prepare(table *features.Table) ([][]float64, []int, []models.RiskLabel, error) {
	var x [][]float64
	var labels []models.RiskLabel
	seen := map[models.RiskLabel]bool{}

	for _, row := range table.Trainable() {
		if !row.Complete(table.Names) {
			continue
		}
		x = append(x, row.Vector(table.Names))
		labels = append(labels, row.Label)
		seen[row.Label] = true
	}

	if len(x) == 0 {
		return nil, nil, nil, &DataError{Reason: "no training data after dropping rows with undefined features"}
	}

	var classes []models.RiskLabel
	for _, label := range models.RiskLabels {
		if seen[label] {
			classes = append(classes, label)
		}
	}
	if len(classes) < 2 {
		return nil, nil, nil, &DataError{Reason: fmt.Sprintf("need at least 2 risk classes, got %d", len(classes))}
	}

	index := map[models.RiskLabel]int{}
	for i, label := range classes {
		index[label] = i
	}
	y := make([]int, len(labels))
	for i, label := range labels {
		y[i] = index[label]
	}
	return x, y, classes, nil
}

func (t *Trainer) forestConfig() forest.Config {
	return forest.Config{
		NumTrees:        t.cfg.NumTrees,
		MaxDepth:        t.cfg.MaxDepth,
		MinSamplesSplit: t.cfg.MinSamplesSplit,
		MinSamplesLeaf:  t.cfg.MinSamplesLeaf,
		Balanced:        t.cfg.BalancedClasses,
		Seed:            t.cfg.RandomState,
	}
}

// crossValidate reports mean and standard deviation of macro-F1 over a
// stratified k-fold, independent of the single train/test split.
func (t *Trainer) crossValidate(x [][]float64, y []int, numClasses int, classes []models.RiskLabel) (mean, std float64, err error) {
	folds := stratifiedFolds(y, t.cfg.CVFolds, rand.New(rand.NewSource(t.cfg.RandomState)))
	scores := make([]float64, 0, len(folds))

	for k, testIdx := range folds {
		if len(testIdx) == 0 {
			continue
		}
		inTest := make(map[int]bool, len(testIdx))
		for _, i := range testIdx {
			inTest[i] = true
		}
		var trainIdx []int
		for i := range y {
			if !inTest[i] {
				trainIdx = append(trainIdx, i)
			}
		}
		xTrain, yTrain := subset(x, y, trainIdx)
		if distinct(yTrain) < numClasses {
			return 0, 0, fmt.Errorf("fold %d lost a class; too few samples for %d folds", k, t.cfg.CVFolds)
		}
		f, fitErr := forest.Fit(xTrain, yTrain, numClasses, t.forestConfig())
		if fitErr != nil {
			return 0, 0, fitErr
		}
		xTest, yTest := subset(x, y, testIdx)
		yPred := make([]int, len(xTest))
		for i, vec := range xTest {
			yPred[i] = f.Predict(vec)
		}
		scores = append(scores, evaluate(yTest, yPred, classes).F1Macro)
	}

	if len(scores) == 0 {
		return 0, 0, fmt.Errorf("no usable folds")
	}
	mean, std = stat.MeanStdDev(scores, nil)
	if len(scores) < 2 || math.IsNaN(std) {
		std = 0
	}
	return mean, std, nil
}

// stratifiedSplit partitions sample indices into train and test sets
// preserving per-class proportions. Classes with a single sample stay in the
// training set.
func stratifiedSplit(y []int, testSize float64, rng *rand.Rand) (train, test []int) {
	byClass := map[int][]int{}
	for i, cls := range y {
		byClass[cls] = append(byClass[cls], i)
	}
	for cls := 0; cls <= maxClass(y); cls++ {
		indices := byClass[cls]
		if len(indices) == 0 {
			continue
		}
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		nTest := int(math.Round(testSize * float64(len(indices))))
		if nTest == 0 && len(indices) > 1 {
			nTest = 1
		}
		if nTest >= len(indices) {
			nTest = len(indices) - 1
		}
		test = append(test, indices[:nTest]...)
		train = append(train, indices[nTest:]...)
	}
	return train, test
}

// stratifiedFolds assigns each sample to one of k folds, round-robin within
// each shuffled class so every fold keeps the class proportions.
func stratifiedFolds(y []int, k int, rng *rand.Rand) [][]int {
	folds := make([][]int, k)
	byClass := map[int][]int{}
	for i, cls := range y {
		byClass[cls] = append(byClass[cls], i)
	}
	for cls := 0; cls <= maxClass(y); cls++ {
		indices := byClass[cls]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		for pos, idx := range indices {
			folds[pos%k] = append(folds[pos%k], idx)
		}
	}
	return folds
}

func subset(x [][]float64, y []int, indices []int) ([][]float64, []int) {
	xs := make([][]float64, len(indices))
	ys := make([]int, len(indices))
	for i, idx := range indices {
		xs[i] = x[idx]
		ys[i] = y[idx]
	}
	return xs, ys
}

func distinct(y []int) int {
	seen := map[int]bool{}
	for _, v := range y {
		seen[v] = true
	}
	return len(seen)
}

func maxClass(y []int) int {
	m := 0
	for _, v := range y {
		if v > m {
			m = v
		}
	}
	return m
}
