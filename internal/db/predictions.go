package db

import (
	"context"
	"fmt"

	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

// InsertPrediction stores a prediction keyed by (municipality, target week,
// model version). Re-running the same model over the same week is an
// idempotent upsert, not a duplicate row.
func (d *DB) InsertPrediction(ctx context.Context, p models.PredictionResult) error {
	query := `
	INSERT INTO predictions (
		municipality, target_year, target_week, risk_class, risk_score,
		prob_low, prob_medium, prob_high, model_version, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (municipality, target_year, target_week, model_version) DO UPDATE SET
		risk_class = EXCLUDED.risk_class,
		risk_score = EXCLUDED.risk_score,
		prob_low = EXCLUDED.prob_low,
		prob_medium = EXCLUDED.prob_medium,
		prob_high = EXCLUDED.prob_high,
		created_at = EXCLUDED.created_at`

	_, err := d.Pool.Exec(ctx, query,
		p.Municipality, p.TargetYear, p.TargetWeek, string(p.RiskClass), p.RiskScore,
		p.ProbLow, p.ProbMedium, p.ProbHigh, p.ModelVersion, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction for %s %s: %w", p.Municipality, p.TargetEpiWeek(), err)
	}
	return nil
}

// GetPredictions returns stored predictions, optionally filtered by target
// week ("YYYY-WW") and/or municipality, newest first.
func (d *DB) GetPredictions(ctx context.Context, epiWeek, municipality string, limit int) ([]models.PredictionResult, error) {
	targetYear, targetWeek := 0, 0
	if epiWeek != "" {
		var err error
		targetYear, targetWeek, err = models.ParseEpiWeek(epiWeek)
		if err != nil {
			return nil, err
		}
	}
	if limit <= 0 {
		limit = 100
	}

	query := `
	SELECT municipality, target_year, target_week, risk_class, risk_score,
	       prob_low, prob_medium, prob_high, model_version, created_at
	FROM predictions
	WHERE ($1 <= 0 OR (target_year = $1 AND target_week = $2))
	  AND ($3 = '' OR LOWER(municipality) = LOWER($3))
	ORDER BY created_at DESC
	LIMIT $4`

	rows, err := d.Pool.Query(ctx, query, targetYear, targetWeek, municipality, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get predictions: %w", err)
	}
	defer rows.Close()

	var list []models.PredictionResult
	for rows.Next() {
		var p models.PredictionResult
		var class string
		err := rows.Scan(
			&p.Municipality, &p.TargetYear, &p.TargetWeek, &class, &p.RiskScore,
			&p.ProbLow, &p.ProbMedium, &p.ProbHigh, &p.ModelVersion, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		label, err := models.ParseRiskLabel(class)
		if err != nil {
			return nil, fmt.Errorf("stored prediction has invalid class: %w", err)
		}
		p.RiskClass = label
		list = append(list, p)
	}
	return list, rows.Err()
}
