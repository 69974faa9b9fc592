package db

import (
	"context"
	"fmt"

	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

// InsertMetrics stores one training run's evaluation snapshot keyed by
// (model version, trained-at).
func (d *DB) InsertMetrics(ctx context.Context, m models.EvaluationMetrics) error {
	query := `
	INSERT INTO model_metrics (
		model_version, trained_at, accuracy, precision_macro, recall_macro, f1_macro,
		cv_folds, cv_f1_mean, cv_f1_std, train_samples, test_samples, feature_count
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (model_version, trained_at) DO NOTHING`

	_, err := d.Pool.Exec(ctx, query,
		m.ModelVersion, m.TrainedAt, m.Accuracy, m.PrecisionMacro, m.RecallMacro, m.F1Macro,
		m.CVFolds, m.CVF1Mean, m.CVF1Std, m.TrainSamples, m.TestSamples, m.FeatureCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert metrics for %s: %w", m.ModelVersion, err)
	}
	return nil
}

// GetLatestMetrics returns the most recent training run's metrics.
func (d *DB) GetLatestMetrics(ctx context.Context) (models.EvaluationMetrics, error) {
	query := `
	SELECT model_version, trained_at, accuracy, precision_macro, recall_macro, f1_macro,
	       cv_folds, cv_f1_mean, cv_f1_std, train_samples, test_samples, feature_count
	FROM model_metrics
	ORDER BY trained_at DESC
	LIMIT 1`

	var m models.EvaluationMetrics
	err := d.Pool.QueryRow(ctx, query).Scan(
		&m.ModelVersion, &m.TrainedAt, &m.Accuracy, &m.PrecisionMacro, &m.RecallMacro, &m.F1Macro,
		&m.CVFolds, &m.CVF1Mean, &m.CVF1Std, &m.TrainSamples, &m.TestSamples, &m.FeatureCount,
	)
	if err != nil {
		return models.EvaluationMetrics{}, fmt.Errorf("failed to get latest metrics: %w", err)
	}
	return m, nil
}
