package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's prometheus instruments.
type Metrics struct {
	PredictionsGenerated prometheus.Counter
	PredictionsFailed    prometheus.Counter
	TrainingRuns         prometheus.Counter
	TrainingFailed       prometheus.Counter
	TrainingDuration     prometheus.Histogram
	AlertsDispatched     *prometheus.CounterVec
	RecordsIngested      prometheus.Counter
}

// New registers the instruments on the given registerer (use
// prometheus.DefaultRegisterer in production, a fresh registry in tests).
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PredictionsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "malaria_predictions_generated_total",
			Help: "Total number of risk predictions computed.",
		}),
		PredictionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "malaria_predictions_failed_total",
			Help: "Total number of prediction failures.",
		}),
		TrainingRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "malaria_training_runs_total",
			Help: "Total number of completed training runs.",
		}),
		TrainingFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "malaria_training_failed_total",
			Help: "Total number of failed training runs.",
		}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "malaria_training_duration_seconds",
			Help:    "Duration of a full training run.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		AlertsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "malaria_alerts_dispatched_total",
			Help: "Total number of alert dispatches by provider and outcome.",
		}, []string{"provider", "outcome"}),
		RecordsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "malaria_records_ingested_total",
			Help: "Total number of weekly records ingested.",
		}),
	}
}
