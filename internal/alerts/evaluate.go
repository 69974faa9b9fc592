// Package alerts turns stored weekly predictions into alert bulletins and
// dispatches them to the configured delivery providers.
package alerts

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Edgar-Del/malaria-predict-mono/internal/ml"
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

// Evaluate builds the weekly bulletin for one epidemiological week. The
// alert level follows the share of municipalities classified high risk:
// half or more is critical, a quarter or more is moderate, anything else is
// low. Score thresholds come from configuration, not constants.
func Evaluate(epiWeek string, predictions []models.PredictionResult, thresholds ml.AlertThresholds) models.Alert {
	highCount := 0
	for _, p := range predictions {
		if p.RiskClass == models.RiskHigh || thresholds.Priority(p) == "high" {
			highCount++
		}
	}

	pctHigh := 0.0
	if len(predictions) > 0 {
		pctHigh = float64(highCount) / float64(len(predictions)) * 100
	}

	var level models.AlertLevel
	var message string
	switch {
	case pctHigh >= 50:
		level = models.AlertCritical
		message = fmt.Sprintf("CRITICAL ALERT: %.1f%% of municipalities at high risk", pctHigh)
	case pctHigh >= 25:
		level = models.AlertModerate
		message = fmt.Sprintf("MODERATE ALERT: %.1f%% of municipalities at high risk", pctHigh)
	case highCount > 0:
		level = models.AlertLow
		message = fmt.Sprintf("LOW ALERT: %d municipality(ies) at high risk", highCount)
	default:
		level = models.AlertLow
		message = "Situation under control: no municipality at high risk"
	}

	return models.Alert{
		ID:          uuid.NewString(),
		EpiWeek:     epiWeek,
		Level:       level,
		Subject:     fmt.Sprintf("Malaria Risk Bulletin %s [%s]", epiWeek, level),
		Message:     message,
		PctHighRisk: pctHigh,
		Predictions: predictions,
		CreatedAt:   time.Now().UTC(),
	}
}

// Recommendations returns the operational guidance attached to a bulletin.
func Recommendations(alert models.Alert) []string {
	recs := []string{
		"Keep weekly epidemiological surveillance up to date",
	}
	if len(alert.HighRisk()) > 0 {
		recs = append(recs,
			"Reinforce vector control in high-risk municipalities",
			"Pre-position rapid diagnostic tests and antimalarials",
		)
	}
	if alert.Level == models.AlertCritical {
		recs = append(recs, "Activate the provincial emergency response committee")
	}
	return recs
}
