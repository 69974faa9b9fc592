package ml

import (
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

// RiskScore collapses a class probability triple into one comparable scalar:
// the class-weighted average (1·P(low) + 2·P(medium) + 3·P(high)) / 3. It
// lies in [1/3, 1] and grows monotonically with higher-class mass, so two
// predictions landing in different classes with similar confidence still
// compare sensibly. The probability of the predicted class does not compose
// across classes and is deliberately not used.
func RiskScore(probLow, probMedium, probHigh float64) float64 {
	return (probLow*1 + probMedium*2 + probHigh*3) / 3
}

// AlertThresholds are the score cutoffs external alerting applies. They are
// configuration, not constants baked into the scoring policy.
type AlertThresholds struct {
	High   float64
	Medium float64
}

// DefaultAlertThresholds returns the operational defaults.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{High: 0.7, Medium: 0.4}
}

// Priority grades one prediction: "high" when the score reaches the high
// cutoff, "moderate" when it reaches the medium cutoff and the dominant
// class is medium or high, "none" otherwise.
func (t AlertThresholds) Priority(p models.PredictionResult) string {
	switch {
	case p.RiskScore >= t.High:
		return "high"
	case p.RiskScore >= t.Medium && (p.RiskClass == models.RiskMedium || p.RiskClass == models.RiskHigh):
		return "moderate"
	default:
		return "none"
	}
}
