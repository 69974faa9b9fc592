package ml

import (
	"time"

	"github.com/Edgar-Del/malaria-predict-mono/internal/ml/features"
	"github.com/Edgar-Del/malaria-predict-mono/internal/ml/forest"
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

// TrainedModel is an immutable fitted classifier plus the metadata needed to
// reproduce its input shape: the ordered feature-name list, the class
// encoding, the feature pipeline configuration, and a version string.
// Retraining produces a new value with a new version; a loaded model is safe
// for concurrent reads.
type TrainedModel struct {
	Version string
	// FeatureNames defines the required input vector order.
	FeatureNames []string
	// Classes maps class index to canonical label, in encoder order.
	Classes       []models.RiskLabel
	Forest        *forest.Forest
	FeatureConfig features.Config
	TrainedAt     time.Time
	Metrics       models.EvaluationMetrics
}

// Classify runs the classifier on a feature vector aligned to FeatureNames
// and returns the predicted label plus the probability for each of the three
// canonical classes. Classes absent from the model's label set get
// probability zero.
func (m *TrainedModel) Classify(vector []float64) (models.RiskLabel, [3]float64) {
	probs := m.Forest.Proba(vector)

	var canonical [3]float64
	best := 0
	for i, p := range probs {
		canonical[m.Classes[i].Index()] = p
		if p > probs[best] {
			best = i
		}
	}
	return m.Classes[best], canonical
}

// FeatureImportance maps feature names to their normalized importance.
func (m *TrainedModel) FeatureImportance() map[string]float64 {
	weights := m.Forest.FeatureImportance()
	out := make(map[string]float64, len(m.FeatureNames))
	for i, name := range m.FeatureNames {
		out[name] = weights[i]
	}
	return out
}

// ArtifactStore persists and retrieves trained models as opaque blobs.
// Implementations must report failures as StorageError.
type ArtifactStore interface {
	Save(model *TrainedModel) error
	Load() (*TrainedModel, error)
}
