package ml

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Edgar-Del/malaria-predict-mono/internal/ml/features"
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

// Predictor turns a trained model plus a municipality's recent history into
// a risk classification. The model is treated as read-only; one Predictor
// can serve concurrent calls.
type Predictor struct {
	model  *TrainedModel
	cfg    Config
	logger *logrus.Logger
}

// NewPredictor validates the configuration and wraps the model. A nil model
// is allowed here so a service can construct its predictor before the first
// training run; Predict then fails with NotLoadedError.
func NewPredictor(model *TrainedModel, cfg Config, logger *logrus.Logger) (*Predictor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Predictor{model: model, cfg: cfg, logger: logger}, nil
}

// Model returns the wrapped model, or nil when none is loaded.
func (p *Predictor) Model() *TrainedModel { return p.model }

// Predict classifies the week following the most recent observation of the
// given municipality history. The history must belong to a single
// municipality and span at least the configured minimum number of weeks.
func (p *Predictor) Predict(recent []models.WeeklyRecord) (models.PredictionResult, error) {
	if p.model == nil {
		return models.PredictionResult{}, &NotLoadedError{}
	}
	if len(recent) == 0 {
		return models.PredictionResult{}, &DataError{Reason: "insufficient history: no records"}
	}
	municipality := recent[0].Municipality
	for _, rec := range recent {
		if rec.Municipality != municipality {
			return models.PredictionResult{}, &DataError{
				Reason: fmt.Sprintf("history mixes municipalities %q and %q", municipality, rec.Municipality),
			}
		}
	}
	if len(recent) < p.cfg.MinHistoryWeeks {
		return models.PredictionResult{}, &DataError{
			Reason: fmt.Sprintf("insufficient history for %s: %d weeks, need %d",
				municipality, len(recent), p.cfg.MinHistoryWeeks),
		}
	}

	// Rebuild the exact training pipeline over the history, then score the
	// most recent row.
	table, err := features.Build(recent, p.model.FeatureConfig)
	if err != nil {
		return models.PredictionResult{}, &DataError{Reason: err.Error()}
	}
	latest := table.Rows[len(table.Rows)-1]

	// Align to the model's feature order. Features the history cannot define
	// (short lags, missing climate) are filled with zero; this is the
	// documented fallback, not an error.
	vector := latest.Vector(p.model.FeatureNames)
	for i, v := range vector {
		if math.IsNaN(v) {
			vector[i] = 0
		}
	}

	class, probs := p.model.Classify(vector)
	targetYear, targetWeek := nextEpiWeek(latest.Year, latest.Week)

	result := models.PredictionResult{
		Municipality: municipality,
		TargetYear:   targetYear,
		TargetWeek:   targetWeek,
		RiskClass:    class,
		RiskScore:    RiskScore(probs[0], probs[1], probs[2]),
		ProbLow:      probs[0],
		ProbMedium:   probs[1],
		ProbHigh:     probs[2],
		ModelVersion: p.model.Version,
		CreatedAt:    time.Now().UTC(),
	}

	p.logger.Debugf("predicted %s %s: class=%s score=%.3f",
		municipality, result.TargetEpiWeek(), result.RiskClass, result.RiskScore)

	return result, nil
}

// nextEpiWeek advances one epidemiological week, rolling 52 into week 1 of
// the following year.
func nextEpiWeek(year, week int) (int, int) {
	if week >= 52 {
		return year + 1, 1
	}
	return year, week + 1
}
