package ml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edgar-Del/malaria-predict-mono/internal/ml"
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
	"github.com/Edgar-Del/malaria-predict-mono/internal/synthetic"
)

func trainModel(t *testing.T) *ml.TrainedModel {
	t.Helper()
	trainer, err := ml.NewTrainer(fastConfig(), nil, nil)
	require.NoError(t, err)
	model, err := trainer.Train(trainingRecords())
	require.NoError(t, err)
	return model
}

func municipalityHistory(weeks int) []models.WeeklyRecord {
	opts := synthetic.DefaultOptions()
	opts.Municipalities = opts.Municipalities[:1]
	records := synthetic.Generate(opts)
	return records[len(records)-weeks:]
}

func TestPredict_NotLoaded(t *testing.T) {
	predictor, err := ml.NewPredictor(nil, fastConfig(), nil)
	require.NoError(t, err)

	_, err = predictor.Predict(municipalityHistory(10))
	var notLoaded *ml.NotLoadedError
	assert.ErrorAs(t, err, &notLoaded)
}

func TestPredict_EmptyHistory(t *testing.T) {
	predictor, err := ml.NewPredictor(trainModel(t), fastConfig(), nil)
	require.NoError(t, err)

	_, err = predictor.Predict(nil)
	var dataErr *ml.DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Contains(t, dataErr.Reason, "insufficient history")
}

func TestPredict_TooFewWeeks(t *testing.T) {
	predictor, err := ml.NewPredictor(trainModel(t), fastConfig(), nil)
	require.NoError(t, err)

	_, err = predictor.Predict(municipalityHistory(2))
	var dataErr *ml.DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Contains(t, dataErr.Reason, "insufficient history")
}

func TestPredict_MixedMunicipalities(t *testing.T) {
	predictor, err := ml.NewPredictor(trainModel(t), fastConfig(), nil)
	require.NoError(t, err)

	history := municipalityHistory(10)
	history[3].Municipality = "Andulo"

	_, err = predictor.Predict(history)
	var dataErr *ml.DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Contains(t, dataErr.Reason, "mixes municipalities")
}

func TestPredict_Valid(t *testing.T) {
	model := trainModel(t)
	predictor, err := ml.NewPredictor(model, fastConfig(), nil)
	require.NoError(t, err)

	history := municipalityHistory(20)
	last := history[len(history)-1]

	result, err := predictor.Predict(history)
	require.NoError(t, err)

	assert.Equal(t, last.Municipality, result.Municipality)
	assert.Equal(t, model.Version, result.ModelVersion)
	assert.Contains(t, []models.RiskLabel{models.RiskLow, models.RiskMedium, models.RiskHigh}, result.RiskClass)

	total := result.ProbLow + result.ProbMedium + result.ProbHigh
	assert.InDelta(t, 1.0, total, 1e-6)
	assert.GreaterOrEqual(t, result.RiskScore, 1.0/3)
	assert.LessOrEqual(t, result.RiskScore, 1.0)

	// Target is the week after the last observation.
	wantYear, wantWeek := last.Year, last.Week+1
	if last.Week >= 52 {
		wantYear, wantWeek = last.Year+1, 1
	}
	assert.Equal(t, wantYear, result.TargetYear)
	assert.Equal(t, wantWeek, result.TargetWeek)
}

func TestPredict_YearRollover(t *testing.T) {
	model := trainModel(t)
	predictor, err := ml.NewPredictor(model, fastConfig(), nil)
	require.NoError(t, err)

	opts := synthetic.DefaultOptions()
	opts.Municipalities = opts.Municipalities[:1]
	opts.Weeks = 52
	history := synthetic.Generate(opts)
	require.Equal(t, 52, history[len(history)-1].Week)

	result, err := predictor.Predict(history)
	require.NoError(t, err)
	assert.Equal(t, history[0].Year+1, result.TargetYear)
	assert.Equal(t, 1, result.TargetWeek)
}

func TestPredict_Deterministic(t *testing.T) {
	model := trainModel(t)
	predictor, err := ml.NewPredictor(model, fastConfig(), nil)
	require.NoError(t, err)

	history := municipalityHistory(15)
	a, err := predictor.Predict(history)
	require.NoError(t, err)
	b, err := predictor.Predict(history)
	require.NoError(t, err)

	assert.Equal(t, a.RiskClass, b.RiskClass)
	assert.Equal(t, a.RiskScore, b.RiskScore)
	assert.Equal(t, [3]float64{a.ProbLow, a.ProbMedium, a.ProbHigh}, [3]float64{b.ProbLow, b.ProbMedium, b.ProbHigh})
}
