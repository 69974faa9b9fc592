package alerts

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Edgar-Del/malaria-predict-mono/internal/config"
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
	"github.com/Edgar-Del/malaria-predict-mono/internal/observability"
	"github.com/Edgar-Del/malaria-predict-mono/internal/providers"
)

// PredictionSource reads stored predictions for a week.
type PredictionSource interface {
	GetPredictions(ctx context.Context, epiWeek, municipality string, limit int) ([]models.PredictionResult, error)
}

// Service evaluates weekly bulletins and dispatches them through a worker
// pool to every configured delivery provider.
type Service struct {
	source  PredictionSource
	logger  *logrus.Logger
	cfg     config.Config
	metrics *observability.Metrics

	queue       chan models.Alert
	ctx         context.Context
	cancel      context.CancelFunc
	wg          *sync.WaitGroup
	dispatchers map[string]func(context.Context, models.Alert) error
}

// New constructs the alert service. Providers without configuration (no
// SMTP credentials, no bot token) are simply not registered.
func New(source PredictionSource, logger *logrus.Logger, cfg config.Config, metrics *observability.Metrics) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		source:  source,
		logger:  logger,
		cfg:     cfg,
		metrics: metrics,
		queue:   make(chan models.Alert, cfg.Alerts.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	s.dispatchers = map[string]func(context.Context, models.Alert) error{}
	if cfg.Email.SMTPServer != "" && len(cfg.Email.Recipients) > 0 {
		s.dispatchers["email"] = func(ctx context.Context, alert models.Alert) error {
			body, err := RenderEmail(alert)
			if err != nil {
				return err
			}
			return providers.SendEmail(ctx, alert, body, s.cfg)
		}
	}
	if cfg.Telegram.BotToken != "" {
		s.dispatchers["telegram"] = func(ctx context.Context, alert models.Alert) error {
			return providers.SendTelegram(ctx, alert, RenderTelegram(alert), s.cfg, s.logger)
		}
	}
	return s
}

// Start launches the worker pool.
func (s *Service) Start(wg *sync.WaitGroup) {
	s.wg = wg
	for i := 0; i < s.cfg.Alerts.Workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop signals the workers to drain and exit.
func (s *Service) Stop() {
	s.cancel()
}

// EvaluateWeek loads the week's predictions, builds the bulletin, and
// queues it for dispatch when it is alert-worthy.
func (s *Service) EvaluateWeek(ctx context.Context, epiWeek string) (models.Alert, error) {
	predictions, err := s.source.GetPredictions(ctx, epiWeek, "", 0)
	if err != nil {
		return models.Alert{}, fmt.Errorf("failed to load predictions for %s: %w", epiWeek, err)
	}
	if len(predictions) == 0 {
		return models.Alert{}, fmt.Errorf("no predictions stored for week %s", epiWeek)
	}

	alert := Evaluate(epiWeek, predictions, s.cfg.Alerts.Thresholds)
	if len(alert.HighRisk()) > 0 || alert.Level != models.AlertLow {
		s.QueueAlert(alert)
	}
	return alert, nil
}

// QueueAlert enqueues a bulletin for dispatch, dropping it if the queue is
// full rather than blocking the caller.
func (s *Service) QueueAlert(alert models.Alert) {
	select {
	case s.queue <- alert:
		s.logger.Infof("queued alert %s for week %s (level %s)", alert.ID, alert.EpiWeek, alert.Level)
	default:
		s.logger.Errorf("alert queue full, dropping alert %s for week %s", alert.ID, alert.EpiWeek)
	}
}

func (s *Service) worker(id int) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debugf("alert worker %d stopped", id)
			return
		case alert := <-s.queue:
			s.dispatch(alert)
		}
	}
}

func (s *Service) dispatch(alert models.Alert) {
	if len(s.dispatchers) == 0 {
		s.logger.Warnf("no alert providers configured, alert %s not delivered", alert.ID)
		return
	}
	for name, send := range s.dispatchers {
		if err := send(s.ctx, alert); err != nil {
			s.logger.Errorf("dispatch via %s failed for alert %s: %v", name, alert.ID, err)
			s.metrics.AlertsDispatched.WithLabelValues(name, "failed").Inc()
			continue
		}
		s.logger.Infof("alert %s dispatched via %s", alert.ID, name)
		s.metrics.AlertsDispatched.WithLabelValues(name, "success").Inc()
	}
}
