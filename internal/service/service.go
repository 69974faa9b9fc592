// Package service orchestrates the ML core against storage: it owns the
// currently loaded model, runs training, and produces persisted predictions.
package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Edgar-Del/malaria-predict-mono/internal/ml"
	"github.com/Edgar-Del/malaria-predict-mono/internal/ml/store"
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
	"github.com/Edgar-Del/malaria-predict-mono/internal/observability"
)

// Store is the storage surface the service needs.
type Store interface {
	GetMunicipalities(ctx context.Context) ([]models.Municipality, error)
	GetMunicipality(ctx context.Context, name string) (models.Municipality, error)
	GetSeries(ctx context.Context, municipality string, fromYear, toYear int) ([]models.WeeklyRecord, error)
	GetRecentSeries(ctx context.Context, municipality string, maxWeeks int) ([]models.WeeklyRecord, error)
	InsertPrediction(ctx context.Context, p models.PredictionResult) error
	InsertMetrics(ctx context.Context, m models.EvaluationMetrics) error
}

// historyWeeks is how much trailing history is loaded per prediction. It
// comfortably covers the widest default lag and rolling window.
const historyWeeks = 52

// Service holds the current model behind a lock; the model value itself is
// immutable, so readers share it freely. Retraining swaps in a new value and
// never disturbs predictions already in flight.
type Service struct {
	store      Store
	artifacts  *store.FileStore
	cfg        ml.Config
	logger     *logrus.Logger
	metrics    *observability.Metrics

	mu    sync.RWMutex
	model *ml.TrainedModel
}

func New(st Store, artifacts *store.FileStore, cfg ml.Config, logger *logrus.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:     st,
		artifacts: artifacts,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
	}
}

// LoadModel restores the persisted artifact if one exists. A missing
// artifact is not an error: the service starts unloaded and training
// produces the first model.
func (s *Service) LoadModel() error {
	model, err := s.artifacts.Load()
	if err != nil {
		var storageErr *ml.StorageError
		if errors.As(err, &storageErr) && errors.Is(storageErr.Err, fs.ErrNotExist) {
			s.logger.Infof("no model artifact at %s, starting unloaded", s.artifacts.Path())
			return nil
		}
		return err
	}
	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
	s.logger.Infof("model loaded: version=%s features=%d", model.Version, len(model.FeatureNames))
	return nil
}

// Model returns the currently loaded model, or nil.
func (s *Service) Model() *ml.TrainedModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Train fits a new model over the full stored series, persists artifact and
// metrics, and swaps the new model in.
func (s *Service) Train(ctx context.Context) (*ml.TrainedModel, error) {
	start := time.Now()

	records, err := s.store.GetSeries(ctx, "", 0, 0)
	if err != nil {
		s.metrics.TrainingFailed.Inc()
		return nil, fmt.Errorf("failed to load training series: %w", err)
	}

	trainer, err := ml.NewTrainer(s.cfg, s.artifacts, s.logger)
	if err != nil {
		s.metrics.TrainingFailed.Inc()
		return nil, err
	}
	model, err := trainer.Train(records)
	if err != nil {
		s.metrics.TrainingFailed.Inc()
		return nil, err
	}

	if err := s.store.InsertMetrics(ctx, model.Metrics); err != nil {
		s.logger.Errorf("failed to persist training metrics: %v", err)
	}

	s.mu.Lock()
	s.model = model
	s.mu.Unlock()

	s.metrics.TrainingRuns.Inc()
	s.metrics.TrainingDuration.Observe(time.Since(start).Seconds())
	return model, nil
}

// Predict classifies the coming week for one municipality and persists the
// result.
func (s *Service) Predict(ctx context.Context, municipality string) (models.PredictionResult, error) {
	recent, err := s.store.GetRecentSeries(ctx, municipality, historyWeeks)
	if err != nil {
		s.metrics.PredictionsFailed.Inc()
		return models.PredictionResult{}, fmt.Errorf("failed to load history for %s: %w", municipality, err)
	}

	predictor, err := ml.NewPredictor(s.Model(), s.cfg, s.logger)
	if err != nil {
		s.metrics.PredictionsFailed.Inc()
		return models.PredictionResult{}, err
	}
	result, err := predictor.Predict(recent)
	if err != nil {
		s.metrics.PredictionsFailed.Inc()
		return models.PredictionResult{}, err
	}

	if err := s.store.InsertPrediction(ctx, result); err != nil {
		s.metrics.PredictionsFailed.Inc()
		return models.PredictionResult{}, err
	}

	s.metrics.PredictionsGenerated.Inc()
	return result, nil
}

// PredictAll runs Predict for every known municipality, collecting results
// and per-municipality failures separately.
func (s *Service) PredictAll(ctx context.Context) ([]models.PredictionResult, map[string]error, error) {
	municipalities, err := s.store.GetMunicipalities(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list municipalities: %w", err)
	}

	var results []models.PredictionResult
	failures := map[string]error{}
	for _, m := range municipalities {
		result, err := s.Predict(ctx, m.Name)
		if err != nil {
			failures[m.Name] = err
			continue
		}
		results = append(results, result)
	}
	return results, failures, nil
}
