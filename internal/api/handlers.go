package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Edgar-Del/malaria-predict-mono/internal/alerts"
	"github.com/Edgar-Del/malaria-predict-mono/internal/config"
	"github.com/Edgar-Del/malaria-predict-mono/internal/db"
	"github.com/Edgar-Del/malaria-predict-mono/internal/ml"
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
	"github.com/Edgar-Del/malaria-predict-mono/internal/service"
)

type Handler struct {
	db     *db.DB
	svc    *service.Service
	alerts *alerts.Service
	logger *logrus.Logger
	config config.Config
}

func NewHandler(database *db.DB, svc *service.Service, alertSvc *alerts.Service, logger *logrus.Logger, cfg config.Config) *Handler {
	return &Handler{db: database, svc: svc, alerts: alertSvc, logger: logger, config: cfg}
}

// statusForError maps the typed ML errors onto HTTP statuses. Anything
// outside the taxonomy is a server fault.
func statusForError(err error) int {
	var (
		notLoaded *ml.NotLoadedError
		dataErr   *ml.DataError
		cfgErr    *ml.ConfigError
	)
	switch {
	case errors.As(err, &notLoaded):
		return http.StatusConflict
	case errors.As(err, &dataErr), errors.As(err, &cfgErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type predictRequest struct {
	Municipality string `json:"municipality" binding:"required"`
}

func (h *Handler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.db.GetMunicipality(c.Request.Context(), req.Municipality); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown municipality: " + req.Municipality})
		return
	}

	result, err := h.svc.Predict(c.Request.Context(), req.Municipality)
	if err != nil {
		h.logger.Errorf("Predict %s failed: %v", req.Municipality, err)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	h.logger.Infof("Predicted %s %s: %s (score %.3f)",
		result.Municipality, result.TargetEpiWeek(), result.RiskClass, result.RiskScore)
	c.JSON(http.StatusOK, result)
}

type predictBatchRequest struct {
	Municipalities []string `json:"municipalities"`
}

func (h *Handler) PredictBatch(c *gin.Context) {
	// An empty or absent body means "all municipalities".
	var req predictBatchRequest
	_ = c.ShouldBindJSON(&req)

	var (
		results  []models.PredictionResult
		failures map[string]error
		err      error
	)
	if len(req.Municipalities) == 0 {
		results, failures, err = h.svc.PredictAll(c.Request.Context())
		if err != nil {
			h.logger.Errorf("Batch prediction failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	} else {
		failures = map[string]error{}
		for _, name := range req.Municipalities {
			result, perr := h.svc.Predict(c.Request.Context(), name)
			if perr != nil {
				failures[name] = perr
				continue
			}
			results = append(results, result)
		}
	}

	failed := make(map[string]string, len(failures))
	for name, ferr := range failures {
		failed[name] = ferr.Error()
	}
	h.logger.Infof("Batch prediction: %d ok, %d failed", len(results), len(failed))
	c.JSON(http.StatusOK, gin.H{"predictions": results, "failures": failed})
}

func (h *Handler) Train(c *gin.Context) {
	model, err := h.svc.Train(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Training failed: %v", err)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	h.logger.Infof("Training complete: version=%s accuracy=%.3f", model.Version, model.Metrics.Accuracy)
	c.JSON(http.StatusOK, gin.H{"version": model.Version, "metrics": model.Metrics})
}

func (h *Handler) GetPredictions(c *gin.Context) {
	week := c.Query("week")
	municipality := c.Query("municipality")
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit: " + raw})
			return
		}
		limit = parsed
	}
	if week != "" {
		if _, _, err := models.ParseEpiWeek(week); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	predictions, err := h.db.GetPredictions(c.Request.Context(), week, municipality, limit)
	if err != nil {
		h.logger.Errorf("Get predictions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, predictions)
}

func (h *Handler) GetMunicipalities(c *gin.Context) {
	municipalities, err := h.db.GetMunicipalities(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Get municipalities failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, municipalities)
}

func (h *Handler) IngestSeries(c *gin.Context) {
	var records []models.WeeklyRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty record batch"})
		return
	}

	seen := map[string]bool{}
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "record " + strconv.Itoa(i) + ": " + err.Error()})
			return
		}
		if !seen[strings.ToLower(rec.Municipality)] {
			m := models.Municipality{Name: rec.Municipality, Province: h.config.API.DefaultProvince}
			if err := h.db.UpsertMunicipality(c.Request.Context(), m); err != nil {
				h.logger.Errorf("Upsert municipality %s failed: %v", rec.Municipality, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			seen[strings.ToLower(rec.Municipality)] = true
		}
		if err := h.db.UpsertWeeklyRecord(c.Request.Context(), rec); err != nil {
			h.logger.Errorf("Upsert weekly record failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	h.logger.Infof("Ingested %d weekly records", len(records))
	c.JSON(http.StatusCreated, gin.H{"ingested": len(records)})
}

func (h *Handler) GetSeries(c *gin.Context) {
	municipality := c.Param("municipality")
	fromYear, toYear := 0, 0
	if raw := c.Query("from_year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from_year: " + raw})
			return
		}
		fromYear = parsed
	}
	if raw := c.Query("to_year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to_year: " + raw})
			return
		}
		toYear = parsed
	}

	series, err := h.db.GetSeries(c.Request.Context(), municipality, fromYear, toYear)
	if err != nil {
		h.logger.Errorf("Get series for %s failed: %v", municipality, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(series) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no series for municipality: " + municipality})
		return
	}
	c.JSON(http.StatusOK, series)
}

func (h *Handler) GetModelMetrics(c *gin.Context) {
	metrics, err := h.db.GetLatestMetrics(c.Request.Context())
	if err != nil {
		if model := h.svc.Model(); model != nil {
			c.JSON(http.StatusOK, model.Metrics)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "no training metrics recorded"})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

type evaluateAlertsRequest struct {
	Week string `json:"week" binding:"required"`
}

func (h *Handler) EvaluateAlerts(c *gin.Context) {
	var req evaluateAlertsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, _, err := models.ParseEpiWeek(req.Week); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, err := h.alerts.EvaluateWeek(c.Request.Context(), req.Week)
	if err != nil {
		h.logger.Errorf("Alert evaluation for %s failed: %v", req.Week, err)
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alert)
}
