package models

import "time"

// AlertLevel classifies a weekly alert bulletin.
type AlertLevel string

const (
	AlertCritical AlertLevel = "critical"
	AlertModerate AlertLevel = "moderate"
	AlertLow      AlertLevel = "low"
)

// Alert is one evaluated weekly bulletin queued for dispatch.
type Alert struct {
	ID          string             `json:"id"`
	EpiWeek     string             `json:"epi_week"`
	Level       AlertLevel         `json:"level"`
	Subject     string             `json:"subject"`
	Message     string             `json:"message"`
	PctHighRisk float64            `json:"pct_high_risk"`
	Predictions []PredictionResult `json:"predictions"`
	CreatedAt   time.Time          `json:"created_at"`
}

// HighRisk returns the predictions classified high, preserving order.
func (a Alert) HighRisk() []PredictionResult {
	var out []PredictionResult
	for _, p := range a.Predictions {
		if p.RiskClass == RiskHigh {
			out = append(out, p)
		}
	}
	return out
}
