package models

import "time"

// PredictionResult is one model output for a municipality and target week.
// Probabilities always cover the three canonical classes and sum to 1.
type PredictionResult struct {
	Municipality string    `json:"municipality"`
	TargetYear   int       `json:"target_year"`
	TargetWeek   int       `json:"target_week"`
	RiskClass    RiskLabel `json:"risk_class"`
	RiskScore    float64   `json:"risk_score"`
	ProbLow      float64   `json:"probability_low"`
	ProbMedium   float64   `json:"probability_medium"`
	ProbHigh     float64   `json:"probability_high"`
	ModelVersion string    `json:"model_version"`
	CreatedAt    time.Time `json:"created_at"`
}

// TargetEpiWeek formats the predicted week as "YYYY-WW".
func (p PredictionResult) TargetEpiWeek() string {
	return FormatEpiWeek(p.TargetYear, p.TargetWeek)
}

// ClassMetrics holds per-class evaluation figures. A class absent from the
// test fold yields no entry at all rather than zeros.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// EvaluationMetrics is the flat metrics snapshot persisted per training run.
type EvaluationMetrics struct {
	Accuracy       float64                    `json:"accuracy"`
	PrecisionMacro float64                    `json:"precision_macro"`
	RecallMacro    float64                    `json:"recall_macro"`
	F1Macro        float64                    `json:"f1_macro"`
	PerClass       map[RiskLabel]ClassMetrics `json:"per_class"`
	CVFolds        int                        `json:"cv_folds,omitempty"`
	CVF1Mean       *float64                   `json:"cv_f1_mean,omitempty"`
	CVF1Std        *float64                   `json:"cv_f1_std,omitempty"`
	TrainSamples   int                        `json:"train_samples"`
	TestSamples    int                        `json:"test_samples"`
	FeatureCount   int                        `json:"feature_count"`
	ModelVersion   string                     `json:"model_version"`
	TrainedAt      time.Time                  `json:"trained_at"`
}
